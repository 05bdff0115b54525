package household

import (
	"context"
	"strings"
	"unicode/utf8"

	"finsync/internal/domain/account"
)

// AccountOwnership checks that an account belongs to a user
type AccountOwnership interface {
	GetAccount(ctx context.Context, accountID, userID int64) (*account.Account, error)
}

type Service struct {
	repo     Repository
	accounts AccountOwnership
}

func NewService(repo Repository, accounts AccountOwnership) *Service {
	return &Service{repo: repo, accounts: accounts}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Household, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Get returns a household visible to the user. Non-members get ErrHouseholdNotFound.
func (s *Service) Get(ctx context.Context, userID, householdID int64) (*Household, error) {
	if err := s.checkMember(ctx, userID, householdID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, householdID)
}

// Create makes a new household with the caller as owner
func (s *Service) Create(ctx context.Context, userID int64, name string) (*Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	return s.repo.Create(ctx, name, userID)
}

// LinkAccount shares one of the caller's accounts with a household they belong to
func (s *Service) LinkAccount(ctx context.Context, userID, householdID, accountID int64) (*Household, error) {
	if err := s.checkMember(ctx, userID, householdID); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetAccount(ctx, accountID, userID); err != nil {
		return nil, err
	}
	if err := s.repo.LinkAccount(ctx, householdID, accountID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, householdID)
}

func (s *Service) checkMember(ctx context.Context, userID, householdID int64) error {
	ok, err := s.repo.IsMember(ctx, householdID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHouseholdNotFound
	}
	return nil
}
