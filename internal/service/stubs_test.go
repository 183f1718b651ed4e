package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"avocado/internal/apiclient"
	"avocado/internal/models"
)

var errNetwork = errors.New("connection refused")

func apiErr(status int) error {
	return &apiclient.Error{Status: status, Method: http.MethodGet, Endpoint: "/api/x"}
}

// apiStub records calls and answers from its fields. Function fields, when
// set, win over the static answers.
type apiStub struct {
	mu    sync.Mutex
	calls []string

	posts      []models.Post
	postsErr   error
	accounts   []models.Account
	accountErr error
	comments   []models.Comment
	commentErr error

	getPostFn        func(id uint) (*models.Post, error)
	createPostFn     func(in models.PostInput, up *apiclient.Upload) (*models.Post, error)
	updatePostFn     func(id uint, in models.PostInput, up *apiclient.Upload, existing string) error
	createCommentFn  func(postID, userID uint, text string) (*models.Comment, error)
	updateCommentErr error
	deleteErr        error
	nicknameErr      error
	loginFn          func(email, password string) (*apiclient.LoginResponse, error)
	viewsCalled      chan uint
}

func (s *apiStub) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *apiStub) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *apiStub) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *apiStub) ListPosts(_ context.Context, _ string) ([]models.Post, error) {
	s.record("ListPosts")
	return s.posts, s.postsErr
}

func (s *apiStub) GetPost(_ context.Context, _ string, id uint) (*models.Post, error) {
	s.record("GetPost")
	if s.getPostFn != nil {
		return s.getPostFn(id)
	}
	for i := range s.posts {
		if s.posts[i].ID == id {
			p := s.posts[i]
			return &p, nil
		}
	}
	return nil, apiErr(http.StatusNotFound)
}

func (s *apiStub) CreatePost(_ context.Context, _ string, in models.PostInput, up *apiclient.Upload) (*models.Post, error) {
	s.record("CreatePost")
	if s.createPostFn != nil {
		return s.createPostFn(in, up)
	}
	return &models.Post{ID: 99, Title: in.Title, Article: in.Article}, nil
}

func (s *apiStub) UpdatePost(_ context.Context, _ string, id uint, in models.PostInput, up *apiclient.Upload, existing string) error {
	s.record("UpdatePost")
	if s.updatePostFn != nil {
		return s.updatePostFn(id, in, up, existing)
	}
	return nil
}

func (s *apiStub) DeletePost(_ context.Context, _ string, _ uint) error {
	s.record("DeletePost")
	return s.deleteErr
}

func (s *apiStub) IncrementViews(_ context.Context, _ string, id uint) error {
	s.record("IncrementViews")
	if s.viewsCalled != nil {
		s.viewsCalled <- id
	}
	return nil
}

func (s *apiStub) ListAccounts(_ context.Context, _ string) ([]models.Account, error) {
	s.record("ListAccounts")
	return s.accounts, s.accountErr
}

func (s *apiStub) GetAccount(_ context.Context, _ string, id uint) (*models.Account, error) {
	s.record("GetAccount")
	if acc := models.FindAccount(s.accounts, id); acc != nil {
		a := *acc
		return &a, nil
	}
	return nil, apiErr(http.StatusNotFound)
}

func (s *apiStub) UpdateNickname(_ context.Context, _ string, _ uint, _ string) error {
	s.record("UpdateNickname")
	return s.nicknameErr
}

func (s *apiStub) Login(_ context.Context, email, password string) (*apiclient.LoginResponse, error) {
	s.record("Login")
	if s.loginFn != nil {
		return s.loginFn(email, password)
	}
	return &apiclient.LoginResponse{Token: "tok"}, nil
}

func (s *apiStub) ListComments(_ context.Context, _ string, _ uint, _ bool) ([]models.Comment, error) {
	s.record("ListComments")
	return s.comments, s.commentErr
}

func (s *apiStub) CreateComment(_ context.Context, _ string, postID, userID uint, text string) (*models.Comment, error) {
	s.record("CreateComment")
	if s.createCommentFn != nil {
		return s.createCommentFn(postID, userID, text)
	}
	return &models.Comment{ID: 100, PostID: postID, UserID: userID, CommentContent: text}, nil
}

func (s *apiStub) UpdateComment(_ context.Context, _ string, _, _ uint, _ string) error {
	s.record("UpdateComment")
	return s.updateCommentErr
}

func (s *apiStub) DeleteComment(_ context.Context, _ string, _, _ uint) error {
	s.record("DeleteComment")
	return s.deleteErr
}

var _ API = (*apiStub)(nil)

func samplePosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			ID:       uint(i + 1),
			UserID:   1,
			Title:    "Post",
			Article:  "body",
			CreateAt: "2024-05-01T10:00:00",
		}
	}
	return posts
}

var (
	alice = models.Account{UserID: 1, Nickname: "alice", Email: "alice@avocado.dev"}
	bob   = models.Account{UserID: 2, Nickname: "bob", Email: "bob@avocado.dev"}
)

func viewerFor(acc models.Account) Viewer {
	return Viewer{Token: "tok-" + acc.Nickname, Email: acc.Email}
}
