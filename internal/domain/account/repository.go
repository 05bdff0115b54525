package account

import "context"

// Repository defines the interface for account data access.
// Upserts from the aggregator go through the reconciliation store instead.
type Repository interface {
	// GetByID retrieves an account with its owning user resolved
	GetByID(ctx context.Context, id int64) (*Account, error)

	// ListByUserID retrieves a user's accounts, optionally limited to one connection (0 = all)
	ListByUserID(ctx context.Context, userID, connectionID int64) ([]*Account, error)

	// UpdateNickname sets or clears (nil) the user-facing nickname
	UpdateNickname(ctx context.Context, id int64, nickname *string) (*Account, error)
}
