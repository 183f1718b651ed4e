package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"avocado/internal/models"
)

func (c *Client) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	var accounts []models.Account
	err := c.do(ctx, request{endpoint: "accounts.list", method: http.MethodGet, path: "/api/accounts", token: token}, &accounts)
	return accounts, err
}

// GetAccount unwraps the {"user": {...}} envelope of the single-account endpoint.
func (c *Client) GetAccount(ctx context.Context, token string, id uint) (*models.Account, error) {
	var envelope struct {
		User *models.Account `json:"user"`
	}
	err := c.do(ctx, request{
		endpoint: "accounts.get",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/api/accounts/%d", id),
		token:    token,
	}, &envelope)
	if err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, &Error{Endpoint: fmt.Sprintf("/api/accounts/%d", id), Method: http.MethodGet, Status: http.StatusNotFound}
	}
	return envelope.User, nil
}

// UpdateNickname answers a 409 *Error when the nickname is taken.
func (c *Client) UpdateNickname(ctx context.Context, token string, id uint, nickname string) error {
	body, err := jsonBody(map[string]string{"nickname": nickname})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		endpoint:    "accounts.nickname",
		method:      http.MethodPut,
		path:        fmt.Sprintf("/api/accounts/%d/nickname", id),
		token:       token,
		body:        body,
		contentType: "application/json",
	}, nil)
}

// LoginResponse is the answer of POST /api/accounts/login.
type LoginResponse struct {
	Token string          `json:"token"`
	User  *models.Account `json:"user,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	err = c.do(ctx, request{
		endpoint:    "accounts.login",
		method:      http.MethodPost,
		path:        "/api/accounts/login",
		body:        body,
		contentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
