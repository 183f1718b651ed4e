package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"avocado/internal/models"
)

// Upload is an image attached to a post create or update.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) ListPosts(ctx context.Context, token string) ([]models.Post, error) {
	var posts []models.Post
	err := c.do(ctx, request{endpoint: "posts.list", method: http.MethodGet, path: "/api/posts", token: token}, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, token string, id uint) (*models.Post, error) {
	var post models.Post
	err := c.do(ctx, request{
		endpoint: "posts.get",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/api/posts/%d", id),
		token:    token,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost sends a multipart POST with the optional image in "file" and
// the title and article as JSON in "data".
func (c *Client) CreatePost(ctx context.Context, token string, in models.PostInput, upload *Upload) (*models.Post, error) {
	body, contentType, err := postForm(in, upload, "")
	if err != nil {
		return nil, err
	}
	var post models.Post
	err = c.do(ctx, request{
		endpoint:    "posts.create",
		method:      http.MethodPost,
		path:        "/api/posts",
		token:       token,
		body:        body,
		contentType: contentType,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost sends a multipart PUT. A new upload goes in "file"; without one
// the current picture URL is echoed in "postPicture", and with neither an
// empty "file" part is sent.
func (c *Client) UpdatePost(ctx context.Context, token string, id uint, in models.PostInput, upload *Upload, existingPicture string) error {
	body, contentType, err := postForm(in, upload, existingPicture)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint:    "posts.update",
		method:      http.MethodPut,
		path:        fmt.Sprintf("/api/posts/%d", id),
		token:       token,
		body:        body,
		contentType: contentType,
	}, nil)
}

func (c *Client) DeletePost(ctx context.Context, token string, id uint) error {
	return c.do(ctx, request{
		endpoint: "posts.delete",
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/api/posts/%d", id),
		token:    token,
	}, nil)
}

// IncrementViews bumps the view counter of a post.
func (c *Client) IncrementViews(ctx context.Context, token string, id uint) error {
	return c.do(ctx, request{
		endpoint: "posts.views",
		method:   http.MethodPut,
		path:     fmt.Sprintf("/api/posts/%d/views", id),
		token:    token,
	}, nil)
}

func postForm(in models.PostInput, upload *Upload, existingPicture string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	switch {
	case upload != nil:
		if err := writeFilePart(w, upload); err != nil {
			return nil, "", err
		}
	case existingPicture != "":
		if err := w.WriteField("postPicture", existingPicture); err != nil {
			return nil, "", err
		}
	default:
		if _, err := w.CreateFormFile("file", "blob"); err != nil {
			return nil, "", err
		}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return nil, "", fmt.Errorf("encoding post data: %w", err)
	}
	if err := w.WriteField("data", string(data)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, upload *Upload) error {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(upload.Data)
	return err
}
