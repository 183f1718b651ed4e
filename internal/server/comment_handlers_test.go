package server

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"avocado/internal/models"
	"avocado/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var existingComments = []models.Comment{
	{ID: 5, PostID: 1, UserID: 2, CommentContent: "Looks tasty", CreateAt: "2024-05-01T11:00:00"},
}

func TestSubmitComment_AppendsWithoutRefetch(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	token := b.login(api, alice)
	expectDetail(api, alicePost(), existingComments)
	api.On("CreateComment", mock.Anything, token, uint(1), alice.UserID, "Ripe today").
		Return(&models.Comment{ID: 9, PostID: 1, UserID: 1, CommentContent: "Ripe today", CreateAt: "2024-05-02T09:00:00"}, nil).Once()

	_, _ = b.get("/post/1")

	resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"Ripe today"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/post/1", resp.Header.Get("Location"))

	_, body := b.get("/post/1")
	assert.Contains(t, body, "Looks tasty")
	assert.Contains(t, body, "Ripe today")
	assert.Contains(t, body, service.MsgCommentCreated)
	api.AssertNumberOfCalls(t, "ListComments", 1)
	api.AssertNumberOfCalls(t, "GetPost", 1)

	// The stored state is rendered once; the next visit loads again.
	_, _ = b.get("/post/1")
	api.AssertNumberOfCalls(t, "ListComments", 2)
}

func TestSubmitComment_EmptyText(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	b.login(api, alice)
	expectDetail(api, alicePost(), existingComments)

	resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"   "}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/post/1#comment-form", resp.Header.Get("Location"))

	_, body := b.get("/post/1")
	assert.Contains(t, body, service.MsgCommentRequired)
	api.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitComment_CreateFailureKeepsList(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	b.login(api, alice)
	expectDetail(api, alicePost(), existingComments)
	api.On("CreateComment", mock.Anything, mock.Anything, uint(1), alice.UserID, "hello").
		Return(nil, errors.New("connection refused")).Once()

	_, _ = b.postForm("/post/1/comments", url.Values{"comment": {"hello"}})
	_, body := b.get("/post/1")
	assert.Contains(t, body, service.MsgCommentCreateFailed)
	assert.Contains(t, body, "Looks tasty")
	assert.NotContains(t, body, `<div class="CommentContent">hello</div>`)
}

func TestSubmitComment_Edit(t *testing.T) {
	t.Run("own comment", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		token := b.login(api, bob)
		expectDetail(api, alicePost(), existingComments)
		api.On("UpdateComment", mock.Anything, token, uint(1), uint(5), "Really tasty").Return(nil).Once()

		resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"Really tasty"}, "editing_id": {"5"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/post/1", resp.Header.Get("Location"))

		_, body := b.get("/post/1")
		assert.Contains(t, body, service.MsgCommentUpdated)
		api.AssertExpectations(t)
	})

	t.Run("someone else's comment", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		b.login(api, alice)
		expectDetail(api, alicePost(), existingComments)

		resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"mine now"}, "editing_id": {"5"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/post/1?edit=5#comment-form", resp.Header.Get("Location"))
		api.AssertNotCalled(t, "UpdateComment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad editing id", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		b.login(api, alice)
		expectDetail(api, alicePost(), existingComments)

		resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"x"}, "editing_id": {"abc"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteComment(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	token := b.login(api, bob)
	expectDetail(api, alicePost(), existingComments)
	api.On("DeleteComment", mock.Anything, token, uint(1), uint(5)).Return(nil).Once()

	_, _ = b.get("/post/1")
	resp, _ := b.postForm("/post/1/comments/5/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := b.get("/post/1")
	assert.Contains(t, body, service.MsgCommentDeleted)
	assert.NotContains(t, body, "Looks tasty")
	api.AssertNumberOfCalls(t, "ListComments", 1)
}

func TestCommentActionsRequireLogin(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))

	resp, _ := b.postForm("/post/1/comments", url.Values{"comment": {"hi"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := b.get("/login")
	assert.Contains(t, body, service.MsgMembersOnly)
}
