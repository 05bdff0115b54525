package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetBySub(ctx context.Context, sub string) (*User, error)
	// UpsertBySub creates the user or refreshes email/name when they are supplied
	UpsertBySub(ctx context.Context, identity Identity) (*User, error)
}
