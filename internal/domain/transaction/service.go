package transaction

import (
	"context"
	"fmt"

	"finsync/internal/shared/errs"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListTransactions applies paging defaults and returns the user's stored transactions.
func (s *Service) ListTransactions(ctx context.Context, params ListParams) ([]*Transaction, error) {
	if params.UserID <= 0 {
		return nil, errs.Wrap(errs.ErrValidation, "list transactions", fmt.Errorf("valid user ID is required"))
	}
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	if params.Offset < 0 {
		return nil, errs.Wrap(errs.ErrValidation, "list transactions", fmt.Errorf("offset must not be negative"))
	}
	if params.StartDate != nil && params.EndDate != nil && params.StartDate.After(*params.EndDate) {
		return nil, errs.Wrap(errs.ErrValidation, "list transactions", fmt.Errorf("start_date must not be after end_date"))
	}

	return s.repo.ListByUserID(ctx, params)
}
