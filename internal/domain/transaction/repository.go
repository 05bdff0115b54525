package transaction

import "context"

// Repository defines read access to stored transactions. Writes go through
// the reconciliation store so that each sync page commits atomically.
type Repository interface {
	// ListByUserID returns a user's transactions, newest first.
	ListByUserID(ctx context.Context, params ListParams) ([]*Transaction, error)
}
