package connection

import "context"

// Repository defines connection persistence. Implementations encrypt the
// access token on write and decrypt it on read.
type Repository interface {
	// Create stores a new connection, or refreshes the token of an already linked item
	Create(ctx context.Context, params CreateParams) (*Connection, error)
	GetByID(ctx context.Context, id int64) (*Connection, error)
	GetByItemID(ctx context.Context, itemID string) (*Connection, error)
	// ListByUserID returns connections without their access tokens
	ListByUserID(ctx context.Context, userID int64) ([]*Connection, error)
	// ListItemIDs returns every linked item id (for scheduled syncs)
	ListItemIDs(ctx context.Context) ([]string, error)
	// Delete removes a connection; accounts and transactions cascade
	Delete(ctx context.Context, id int64) error
}
