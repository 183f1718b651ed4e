package service

import (
	"context"
	"strings"

	"avocado/internal/apiclient"
	"avocado/internal/models"
)

// AccountService backs the profile and login pages.
type AccountService struct {
	api API
}

func NewAccountService(api API) *AccountService {
	return &AccountService{api: api}
}

// Profile resolves the viewer's account from the session email.
func (s *AccountService) Profile(ctx context.Context, v Viewer) (*models.Account, error) {
	accounts, err := s.api.ListAccounts(ctx, v.Token)
	if err != nil {
		return nil, models.NewNetworkError(MsgProfileFailed, err)
	}
	found := models.FindAccountByEmail(accounts, v.Email)
	if found == nil {
		return nil, models.NewNotFoundError("Account", v.Email)
	}

	acc, err := s.api.GetAccount(ctx, v.Token, found.UserID)
	if err != nil {
		return nil, models.NewNetworkError(MsgProfileFailed, err)
	}
	return acc, nil
}

// UpdateNickname changes acc's nickname. acc is only modified on success; a
// 409 answer returns ErrDuplicateNickname.
func (s *AccountService) UpdateNickname(ctx context.Context, v Viewer, acc *models.Account, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return models.NewValidationError(MsgNicknameRequired)
	}
	if err := s.api.UpdateNickname(ctx, v.Token, acc.UserID, nickname); err != nil {
		if apiclient.IsConflict(err) {
			return ErrDuplicateNickname
		}
		return models.NewNetworkError(MsgNicknameFailed, err)
	}
	acc.Nickname = nickname
	return nil
}

// Login exchanges credentials for a bearer token.
func (s *AccountService) Login(ctx context.Context, email, password string) (Viewer, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Viewer{}, models.NewValidationError(MsgLoginRequired)
	}
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		if apiclient.IsUnauthorized(err) || apiclient.IsNotFound(err) {
			return Viewer{}, models.NewUnauthorizedError(MsgLoginFailed)
		}
		return Viewer{}, models.NewNetworkError(MsgLoginFailed, err)
	}
	if resp.Token == "" {
		return Viewer{}, models.NewUnauthorizedError(MsgLoginFailed)
	}
	return Viewer{Token: resp.Token, Email: email}, nil
}
