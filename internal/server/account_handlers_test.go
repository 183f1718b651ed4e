package server

import (
	"net/http"
	"net/url"
	"testing"

	"avocado/internal/apiclient"
	"avocado/internal/models"
	"avocado/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func expectProfile(api *MockAPI, acc models.Account) {
	api.On("ListAccounts", mock.Anything, mock.Anything).Return([]models.Account{alice, bob}, nil)
	api.On("GetAccount", mock.Anything, mock.Anything, acc.UserID).Return(&acc, nil)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		apiErr         error
		expectedStatus int
		message        string
	}{
		{
			name:           "missing password",
			form:           url.Values{"email": {alice.Email}},
			expectedStatus: fiber.StatusUnprocessableEntity,
			message:        service.MsgLoginRequired,
		},
		{
			name:           "wrong password",
			form:           url.Values{"email": {alice.Email}, "password": {"nope"}},
			apiErr:         &apiclient.Error{Status: http.StatusUnauthorized},
			expectedStatus: fiber.StatusForbidden,
			message:        service.MsgLoginFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			if tt.apiErr != nil {
				api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.apiErr)
			}
			b := newBrowser(t, newTestApp(t, api, nil))

			resp, body := b.postForm("/login", tt.form)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Contains(t, body, tt.message)
			assert.Contains(t, body, `value="alice@avocado.dev"`)
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	api.On("ListPosts", mock.Anything, mock.Anything).Return([]models.Post{}, nil)
	api.On("ListAccounts", mock.Anything, mock.Anything).Return([]models.Account{alice}, nil)

	b.login(api, alice)

	_, body := b.get("/main")
	assert.Contains(t, body, service.MsgLoginOK)
	assert.Contains(t, body, alice.Email)

	resp, _ := b.get("/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = b.postForm("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/main", resp.Header.Get("Location"))

	_, body = b.get("/main")
	assert.Contains(t, body, service.MsgLogoutOK)
	api.AssertCalled(t, "ListPosts", mock.Anything, "")

	resp, _ = b.get("/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestProfilePage(t *testing.T) {
	api := new(MockAPI)
	b := newBrowser(t, newTestApp(t, api, nil))
	b.login(api, alice)
	expectProfile(api, alice)

	resp, body := b.get("/profile")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, alice.Email)
	assert.Contains(t, body, `value="alice"`)
}

func TestUpdateNickname(t *testing.T) {
	t.Run("duplicate nickname", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		token := b.login(api, alice)
		expectProfile(api, alice)
		api.On("UpdateNickname", mock.Anything, token, alice.UserID, "bob").
			Return(&apiclient.Error{Status: http.StatusConflict}).Once()

		resp, body := b.postForm("/profile/nickname", url.Values{"nickname": {"bob"}})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "duplicate nickname")
		assert.Contains(t, body, `value="bob"`)
		assert.Contains(t, body, `<dd class="ProfileNickname">alice</dd>`)
	})

	t.Run("updated", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		token := b.login(api, alice)
		expectProfile(api, alice)
		api.On("UpdateNickname", mock.Anything, token, alice.UserID, "avo").Return(nil).Once()

		resp, _ := b.postForm("/profile/nickname", url.Values{"nickname": {"  avo "}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/profile", resp.Header.Get("Location"))
		api.AssertExpectations(t)
	})

	t.Run("blank", func(t *testing.T) {
		api := new(MockAPI)
		b := newBrowser(t, newTestApp(t, api, nil))
		b.login(api, alice)
		expectProfile(api, alice)

		resp, body := b.postForm("/profile/nickname", url.Values{"nickname": {" "}})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, service.MsgNicknameRequired)
		api.AssertNotCalled(t, "UpdateNickname", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
