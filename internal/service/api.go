// Package service orchestrates the REST calls behind each page of the web client.
package service

import (
	"context"

	"avocado/internal/apiclient"
	"avocado/internal/models"
)

// API is the subset of the blog REST API the pages use. *apiclient.Client
// implements it.
type API interface {
	ListPosts(ctx context.Context, token string) ([]models.Post, error)
	GetPost(ctx context.Context, token string, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, token string, in models.PostInput, upload *apiclient.Upload) (*models.Post, error)
	UpdatePost(ctx context.Context, token string, id uint, in models.PostInput, upload *apiclient.Upload, existingPicture string) error
	DeletePost(ctx context.Context, token string, id uint) error
	IncrementViews(ctx context.Context, token string, id uint) error

	ListAccounts(ctx context.Context, token string) ([]models.Account, error)
	GetAccount(ctx context.Context, token string, id uint) (*models.Account, error)
	UpdateNickname(ctx context.Context, token string, id uint, nickname string) error
	Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error)

	ListComments(ctx context.Context, token string, postID uint, includeEdited bool) ([]models.Comment, error)
	CreateComment(ctx context.Context, token string, postID, userID uint, text string) (*models.Comment, error)
	UpdateComment(ctx context.Context, token string, postID, commentID uint, text string) error
	DeleteComment(ctx context.Context, token string, postID, commentID uint) error
}

var _ API = (*apiclient.Client)(nil)

// Viewer is the signed-in browser session: the bearer token and the email
// used to find the current account.
type Viewer struct {
	Token string
	Email string
}

// LoggedIn reports whether the session carries a token.
func (v Viewer) LoggedIn() bool {
	return v.Token != ""
}

// currentUserID scans accounts for the viewer's email; 0 when not found.
func (v Viewer) currentUserID(accounts []models.Account) uint {
	if acc := models.FindAccountByEmail(accounts, v.Email); acc != nil {
		return acc.UserID
	}
	return 0
}
