package account

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// Service contains the business logic for account operations
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID, userID int64) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.UserID != userID {
		return nil, ErrForbidden
	}

	return account, nil
}

// ListAccounts retrieves the stored accounts of a user, optionally for one connection
func (s *Service) ListAccounts(ctx context.Context, userID, connectionID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.ListByUserID(ctx, userID, connectionID)
}

// UpdateNickname sets the nickname of an owned account. A blank nickname clears it.
func (s *Service) UpdateNickname(ctx context.Context, accountID, userID int64, nickname string) (*Account, error) {
	if _, err := s.GetAccount(ctx, accountID, userID); err != nil {
		return nil, err
	}

	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return nil, ErrNicknameTooLong
	}

	var value *string
	if nickname != "" {
		value = &nickname
	}

	return s.repo.UpdateNickname(ctx, accountID, value)
}
