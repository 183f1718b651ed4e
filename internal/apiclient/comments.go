package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"avocado/internal/models"
)

// ListComments returns the comments of a post. includeEdited asks the API to
// keep comments that were edited after creation.
func (c *Client) ListComments(ctx context.Context, token string, postID uint, includeEdited bool) ([]models.Comment, error) {
	path := fmt.Sprintf("/api/posts/%d/comments", postID)
	if includeEdited {
		path += "?include_edited=true"
	}
	var comments []models.Comment
	err := c.do(ctx, request{endpoint: "comments.list", method: http.MethodGet, path: path, token: token}, &comments)
	return comments, err
}

// CreateComment returns the comment as stored by the API.
func (c *Client) CreateComment(ctx context.Context, token string, postID, userID uint, text string) (*models.Comment, error) {
	body, err := jsonBody(map[string]any{"commentContent": text, "userId": userID})
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	err = c.do(ctx, request{
		endpoint:    "comments.create",
		method:      http.MethodPost,
		path:        fmt.Sprintf("/api/posts/%d/comments", postID),
		token:       token,
		body:        body,
		contentType: "application/json",
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, token string, postID, commentID uint, text string) error {
	body, err := jsonBody(map[string]string{"commentContent": text})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint:    "comments.update",
		method:      http.MethodPut,
		path:        fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID),
		token:       token,
		body:        body,
		contentType: "application/json",
	}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, token string, postID, commentID uint) error {
	return c.do(ctx, request{
		endpoint: "comments.delete",
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID),
		token:    token,
	}, nil)
}
