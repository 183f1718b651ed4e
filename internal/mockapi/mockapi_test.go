package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"avocado/internal/config"
	"avocado/internal/database"
	"avocado/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	api        *API
	app        *fiber.App
	db         *gorm.DB
	alice, bob database.User
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                  "test",
		DBDriver:             "sqlite",
		DBPath:               filepath.Join(t.TempDir(), "api.db"),
		UploadDir:            t.TempDir(),
		JWTSecret:            "test-secret-key-12345678901234567890",
		JWTTTLHours:          1,
		ImageMaxUploadSizeMB: 1,
		MockAPIPort:          "0",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)
	db, err := database.Connect(cfg)
	require.NoError(t, err)

	api, err := New(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hash, err := HashPassword("password")
	require.NoError(t, err)
	f := &fixture{
		api:   api,
		app:   api.App(),
		db:    db,
		alice: database.User{Email: "alice@avocado.dev", Nickname: "alice", Password: hash},
		bob:   database.User{Email: "bob@avocado.dev", Nickname: "bob", Password: hash},
	}
	require.NoError(t, db.Create(&f.alice).Error)
	require.NoError(t, db.Create(&f.bob).Error)
	return f
}

func (f *fixture) token(t *testing.T, u database.User) string {
	t.Helper()
	tok, err := f.api.Tokens().Issue(u.ID, u.Email)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, req *http.Request, token string) (*http.Response, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (f *fixture) json(t *testing.T, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req, token)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 120, G: 180, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartRequest(t *testing.T, method, path string, data models.PostInput, fields map[string]string, file *part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		h.Set("Content-Type", file.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(file.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("data", string(raw)))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (f *fixture) createPost(t *testing.T, owner database.User, title string) database.Post {
	t.Helper()
	p := database.Post{UserID: owner.ID, Title: title, Article: "Body of " + title}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name           string
		email, pw      string
		expectedStatus int
	}{
		{"valid", "alice@avocado.dev", "password", http.StatusOK},
		{"wrong password", "alice@avocado.dev", "nope", http.StatusUnauthorized},
		{"unknown email", "carol@avocado.dev", "password", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.json(t, http.MethodPost, "/api/accounts/login", "", map[string]string{"email": tt.email, "password": tt.pw})
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var out struct {
				Token string         `json:"token"`
				User  models.Account `json:"user"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			uid, err := f.api.Tokens().Parse(out.Token)
			require.NoError(t, err)
			assert.Equal(t, f.alice.ID, uid)
			assert.Equal(t, "alice", out.User.Nickname)
		})
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", 0)
	tok, err := issuer.Issue(7, "a@x.io")
	require.NoError(t, err)

	id, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	_, err = NewTokenIssuer("secret-b", 0).Parse(tok)
	assert.Error(t, err)

	_, err = NewTokenIssuer("", 0).Issue(1, "a@x.io")
	assert.Error(t, err)
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)

	resp, body := f.json(t, http.MethodGet, "/api/accounts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []models.Account
	require.NoError(t, json.Unmarshal(body, &accounts))
	assert.Len(t, accounts, 2)

	resp, body = f.json(t, http.MethodGet, fmt.Sprintf("/api/accounts/%d", f.bob.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"user":{"userId":`)

	resp, _ = f.json(t, http.MethodGet, "/api/accounts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateNickname(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/api/accounts/%d/nickname", f.alice.ID)
	aliceTok := f.token(t, f.alice)

	tests := []struct {
		name           string
		path           string
		token          string
		nickname       string
		expectedStatus int
	}{
		{"no token", path, "", "avo", http.StatusUnauthorized},
		{"garbage token", path, "not-a-jwt", "avo", http.StatusUnauthorized},
		{"another account", fmt.Sprintf("/api/accounts/%d/nickname", f.bob.ID), aliceTok, "avo", http.StatusForbidden},
		{"blank", path, aliceTok, "  ", http.StatusBadRequest},
		{"taken", path, aliceTok, "bob", http.StatusConflict},
		{"own nickname again", path, aliceTok, "alice", http.StatusOK},
		{"free", path, aliceTok, "avo", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := f.json(t, http.MethodPut, tt.path, tt.token, map[string]string{"nickname": tt.nickname})
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	var u database.User
	require.NoError(t, f.db.First(&u, f.alice.ID).Error)
	assert.Equal(t, "avo", u.Nickname)
}

func TestPostsCRUD(t *testing.T) {
	f := newFixture(t)
	aliceTok, bobTok := f.token(t, f.alice), f.token(t, f.bob)
	in := models.PostInput{Title: "Pit", Article: "Grow an avocado tree"}

	// Create with a picture.
	req := multipartRequest(t, http.MethodPost, "/api/posts", in, nil,
		&part{field: "file", filename: "pit.png", contentType: "image/png", data: pngBytes(t)})
	resp, body := f.do(t, req, aliceTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Post
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, f.alice.ID, created.UserID)
	require.Contains(t, created.PostPicture, "/uploads/")
	assert.True(t, strings.HasSuffix(created.PostPicture, ".png"))

	picturePath := created.PostPicture[strings.Index(created.PostPicture, "/uploads/"):]
	resp, _ = f.do(t, httptest.NewRequest(http.MethodGet, picturePath, nil), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	postPath := fmt.Sprintf("/api/posts/%d", created.ID)

	t.Run("not an image", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/api/posts", in, nil,
			&part{field: "file", filename: "x.png", contentType: "image/png", data: []byte("plain text")})
		resp, _ := f.do(t, req, aliceTok)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing title", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/api/posts", models.PostInput{Article: "x"}, nil, nil)
		resp, _ := f.do(t, req, aliceTok)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("update keeps echoed picture", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPut, postPath, models.PostInput{Title: "Pit 2", Article: "Sprouted"},
			map[string]string{"postPicture": created.PostPicture}, nil)
		resp, body := f.do(t, req, aliceTok)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var got models.Post
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "Pit 2", got.Title)
		assert.Equal(t, created.PostPicture, got.PostPicture)
	})

	t.Run("update with empty file drops picture", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPut, postPath, in, nil,
			&part{field: "file", filename: "blob", contentType: "application/octet-stream"})
		resp, body := f.do(t, req, aliceTok)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var got models.Post
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Empty(t, got.PostPicture)
	})

	t.Run("only the author writes", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPut, postPath, in, nil, nil)
		resp, _ := f.do(t, req, bobTok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = f.json(t, http.MethodDelete, postPath, bobTok, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("views", func(t *testing.T) {
		resp, body := f.json(t, http.MethodPut, postPath+"/views", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"views":1}`, string(body))

		resp, _ = f.json(t, http.MethodPut, "/api/posts/999/views", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := f.json(t, http.MethodDelete, postPath, aliceTok, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = f.json(t, http.MethodGet, postPath, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListPosts_NewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.createPost(t, f.alice, "first")
	second := f.createPost(t, f.bob, "second")

	resp, body := f.json(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.Post
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`, posts[0].CreateAt)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	post := f.createPost(t, f.alice, "Guacamole")
	aliceTok, bobTok := f.token(t, f.alice), f.token(t, f.bob)
	base := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	resp, body := f.json(t, http.MethodPost, base, bobTok, map[string]any{"commentContent": "Needs lime", "userId": f.bob.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Comment
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Needs lime", created.CommentContent)

	resp, _ = f.json(t, http.MethodPost, base, bobTok, map[string]any{"commentContent": "as alice", "userId": f.alice.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.json(t, http.MethodPost, base, bobTok, map[string]any{"commentContent": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	commentPath := fmt.Sprintf("%s/%d", base, created.ID)
	resp, _ = f.json(t, http.MethodPut, commentPath, aliceTok, map[string]string{"commentContent": "hijack"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.json(t, http.MethodPut, commentPath, bobTok, map[string]string{"commentContent": "Needs more lime"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := func(query string) []models.Comment {
		resp, body := f.json(t, http.MethodGet, base+query, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []models.Comment
		require.NoError(t, json.Unmarshal(body, &out))
		return out
	}
	assert.Empty(t, list(""))
	withEdited := list("?include_edited=true")
	require.Len(t, withEdited, 1)
	assert.Equal(t, "Needs more lime", withEdited[0].CommentContent)

	resp, _ = f.json(t, http.MethodDelete, fmt.Sprintf("/api/posts/999/comments/%d", created.ID), bobTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.json(t, http.MethodDelete, commentPath, bobTok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, list("?include_edited=true"))
}
