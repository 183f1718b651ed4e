package mockapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"avocado/internal/media"

	"github.com/google/uuid"
)

const uploadsRoute = "/uploads"

// UploadStore keeps post pictures on disk; they are served under /uploads.
type UploadStore struct {
	dir    string
	images *media.Normalizer
}

func NewUploadStore(dir string, images *media.Normalizer) (*UploadStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &UploadStore{dir: dir, images: images}, nil
}

func (u *UploadStore) Dir() string { return u.dir }

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Save validates the uploaded image, writes it under a random name and
// returns its public URL below baseURL.
func (u *UploadStore) Save(fh *multipart.FileHeader, baseURL string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	detected, err := u.images.Validate(fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + extensions[detected]
	if err := os.WriteFile(filepath.Join(u.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return strings.TrimRight(baseURL, "/") + uploadsRoute + "/" + name, nil
}
