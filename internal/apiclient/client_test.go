package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"avocado/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestListPosts_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/posts", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]models.Post{{ID: 1, Title: "Avocado"}, {ID: 2, Title: "Toast"}})
	})

	posts, err := c.ListPosts(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestListPosts_NoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		_, _ = w.Write([]byte("[]"))
	})

	posts, err := c.ListPosts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"conflict", http.StatusConflict, IsConflict},
		{"not found", http.StatusNotFound, IsNotFound},
		{"unauthorized", http.StatusUnauthorized, IsUnauthorized},
		{"forbidden", http.StatusForbidden, IsUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			err := c.UpdateNickname(context.Background(), "tok", 1, "avo")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.status, StatusOf(err))

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "nope", apiErr.Body)
			assert.Equal(t, "/api/accounts/1/nickname", apiErr.Endpoint)
		})
	}
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.ListAccounts(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
	assert.False(t, IsConflict(err))
}

func TestGetAccount_UnwrapsUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/accounts/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"userId":7,"nickname":"avo","email":"a@x.io"}}`))
	})

	acc, err := c.GetAccount(context.Background(), "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, "avo", acc.Nickname)
	assert.Equal(t, "a@x.io", acc.Email)
}

func TestGetAccount_EmptyEnvelopeIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.GetAccount(context.Background(), "tok", 7)
	assert.True(t, IsNotFound(err))
}

func TestListComments_IncludeEdited(t *testing.T) {
	var rawQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":1,"userId":2,"commentContent":"hi"}]`))
	})

	comments, err := c.ListComments(context.Background(), "tok", 3, true)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "include_edited=true", rawQuery)

	_, err = c.ListComments(context.Background(), "tok", 3, false)
	require.NoError(t, err)
	assert.Equal(t, "", rawQuery)
}

func TestCreateComment_Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["commentContent"])
		assert.EqualValues(t, 4, body["userId"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":10,"postId":3,"userId":4,"commentContent":"hello","createAt":"2024-05-01T10:00:00"}`))
	})

	comment, err := c.CreateComment(context.Background(), "tok", 3, 4, "hello")
	require.NoError(t, err)
	assert.Equal(t, uint(10), comment.ID)
	assert.Equal(t, "hello", comment.CommentContent)
}

func TestUpdatePost_MultipartParts(t *testing.T) {
	type captured struct {
		fileName    string
		fileType    string
		fileData    []byte
		hasFile     bool
		postPicture string
		data        models.PostInput
	}

	capture := func(t *testing.T, got *captured) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			if fhs := r.MultipartForm.File["file"]; len(fhs) > 0 {
				got.hasFile = true
				got.fileName = fhs[0].Filename
				got.fileType = fhs[0].Header.Get("Content-Type")
				f, err := fhs[0].Open()
				require.NoError(t, err)
				got.fileData, _ = io.ReadAll(f)
				_ = f.Close()
			}
			got.postPicture = r.FormValue("postPicture")
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &got.data))
			w.WriteHeader(http.StatusOK)
		}
	}

	in := models.PostInput{Title: "T", Article: "A"}

	t.Run("new upload", func(t *testing.T) {
		var got captured
		c := newTestClient(t, capture(t, &got))
		err := c.UpdatePost(context.Background(), "tok", 5, in, &Upload{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("img")}, "http://old")
		require.NoError(t, err)
		assert.True(t, got.hasFile)
		assert.Equal(t, "a.jpg", got.fileName)
		assert.Equal(t, "image/jpeg", got.fileType)
		assert.Equal(t, []byte("img"), got.fileData)
		assert.Empty(t, got.postPicture)
		assert.Equal(t, in, got.data)
	})

	t.Run("existing picture", func(t *testing.T) {
		var got captured
		c := newTestClient(t, capture(t, &got))
		require.NoError(t, c.UpdatePost(context.Background(), "tok", 5, in, nil, "http://old"))
		assert.False(t, got.hasFile)
		assert.Equal(t, "http://old", got.postPicture)
	})

	t.Run("no picture", func(t *testing.T) {
		var got captured
		c := newTestClient(t, capture(t, &got))
		require.NoError(t, c.UpdatePost(context.Background(), "tok", 5, in, nil, ""))
		assert.True(t, got.hasFile)
		assert.Empty(t, got.fileData)
		assert.Empty(t, got.postPicture)
	})
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"jwt","user":{"userId":1,"email":"a@x.io"}}`))
	})

	resp, err := c.Login(context.Background(), "a@x.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)

	_, err = c.Login(context.Background(), "a@x.io", "wrong")
	assert.True(t, IsUnauthorized(err))
}

func TestPing(t *testing.T) {
	status := http.StatusUnauthorized
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	assert.NoError(t, c.Ping(context.Background()))

	status = http.StatusBadGateway
	assert.Equal(t, http.StatusBadGateway, StatusOf(c.Ping(context.Background())))
}
