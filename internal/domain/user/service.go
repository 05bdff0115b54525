package user

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve maps an authenticated identity to a local user, creating it on first sight.
// Existing users are read without a write unless the token carries new profile data.
func (s *Service) Resolve(ctx context.Context, identity Identity) (*User, error) {
	identity.Sub = strings.TrimSpace(identity.Sub)
	if identity.Sub == "" {
		return nil, errors.New("subject is required")
	}
	identity.Email = strings.TrimSpace(identity.Email)
	identity.Name = strings.TrimSpace(identity.Name)

	existing, err := s.repo.GetBySub(ctx, identity.Sub)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return s.repo.UpsertBySub(ctx, identity)
	case err != nil:
		return nil, err
	}

	if (identity.Email != "" && identity.Email != existing.Email) ||
		(identity.Name != "" && identity.Name != existing.Name) {
		return s.repo.UpsertBySub(ctx, identity)
	}
	return existing, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
