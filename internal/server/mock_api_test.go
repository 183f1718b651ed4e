package server

import (
	"context"

	"avocado/internal/apiclient"
	"avocado/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAPI is a mock of the service.API interface
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListPosts(ctx context.Context, token string) ([]models.Post, error) {
	args := m.Called(ctx, token)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockAPI) GetPost(ctx context.Context, token string, id uint) (*models.Post, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockAPI) CreatePost(ctx context.Context, token string, in models.PostInput, upload *apiclient.Upload) (*models.Post, error) {
	args := m.Called(ctx, token, in, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockAPI) UpdatePost(ctx context.Context, token string, id uint, in models.PostInput, upload *apiclient.Upload, existingPicture string) error {
	args := m.Called(ctx, token, id, in, upload, existingPicture)
	return args.Error(0)
}

func (m *MockAPI) DeletePost(ctx context.Context, token string, id uint) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockAPI) IncrementViews(ctx context.Context, token string, id uint) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockAPI) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	args := m.Called(ctx, token)
	accounts, _ := args.Get(0).([]models.Account)
	return accounts, args.Error(1)
}

func (m *MockAPI) GetAccount(ctx context.Context, token string, id uint) (*models.Account, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAPI) UpdateNickname(ctx context.Context, token string, id uint, nickname string) error {
	args := m.Called(ctx, token, id, nickname)
	return args.Error(0)
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiclient.LoginResponse), args.Error(1)
}

func (m *MockAPI) ListComments(ctx context.Context, token string, postID uint, includeEdited bool) ([]models.Comment, error) {
	args := m.Called(ctx, token, postID, includeEdited)
	comments, _ := args.Get(0).([]models.Comment)
	// Hand out a copy so page state never aliases the fixture.
	return append([]models.Comment(nil), comments...), args.Error(1)
}

func (m *MockAPI) CreateComment(ctx context.Context, token string, postID, userID uint, text string) (*models.Comment, error) {
	args := m.Called(ctx, token, postID, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockAPI) UpdateComment(ctx context.Context, token string, postID, commentID uint, text string) error {
	args := m.Called(ctx, token, postID, commentID, text)
	return args.Error(0)
}

func (m *MockAPI) DeleteComment(ctx context.Context, token string, postID, commentID uint) error {
	args := m.Called(ctx, token, postID, commentID)
	return args.Error(0)
}
