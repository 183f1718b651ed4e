// Package media validates and normalizes post images before upload.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"avocado/internal/config"
	"avocado/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadSizeMB = 10
	MasterMaxSize          = 2048
	JPEGQuality            = 82
	WebPQuality            = 70
)

const (
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// Image is an upload ready to be attached to a multipart request.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Normalizer checks uploads and re-encodes them to a bounded size.
type Normalizer struct {
	maxUploadSizeBytes int64
	format             string
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	maxMB := DefaultMaxUploadSizeMB
	format := FormatJPEG
	if cfg != nil {
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxMB = cfg.ImageMaxUploadSizeMB
		}
		if strings.EqualFold(cfg.ImageFormat, FormatWebP) {
			format = FormatWebP
		}
	}
	return &Normalizer{
		maxUploadSizeBytes: int64(maxMB) * 1024 * 1024,
		format:             format,
	}
}

// Validate rejects empty, oversized and non-image uploads and returns the
// detected MIME type.
func (n *Normalizer) Validate(filename, contentType string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > n.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", n.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return "", models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return "", models.NewValidationError("Image content type mismatch")
	}
	return normalizeContentType(detected), nil
}

// Passthrough validates the upload and returns it unchanged.
func (n *Normalizer) Passthrough(filename, contentType string, content []byte) (*Image, error) {
	detected, err := n.Validate(filename, contentType, content)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	return &Image{
		Filename:    filename,
		ContentType: detected,
		Data:        content,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Normalize validates, decodes, shrinks the image to fit MasterMaxSize and
// re-encodes it in the configured format.
func (n *Normalizer) Normalize(filename, contentType string, content []byte) (*Image, error) {
	if _, err := n.Validate(filename, contentType, content); err != nil {
		return nil, err
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)

	var (
		data []byte
		mt   string
		ext  string
	)
	if n.format == FormatWebP {
		data, err = encodeWebP(master, WebPQuality)
		mt, ext = "image/webp", ".webp"
	} else {
		data, err = encodeJPEG(master, JPEGQuality)
		mt, ext = "image/jpeg", ".jpg"
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &Image{
		Filename:    replaceExt(filename, ext),
		ContentType: mt,
		Data:        data,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func replaceExt(filename, ext string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == normalizeContentType(detected)
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
