package household

import "context"

// Repository defines the interface for household data access
type Repository interface {
	// ListByUserID lists households the user belongs to, without members or accounts
	ListByUserID(ctx context.Context, userID int64) ([]*Household, error)
	// GetByID loads a household with its members and shared accounts
	GetByID(ctx context.Context, id int64) (*Household, error)
	// Create inserts the household and its first member in one transaction
	Create(ctx context.Context, name string, ownerID int64) (*Household, error)
	IsMember(ctx context.Context, householdID, userID int64) (bool, error)
	// LinkAccount is idempotent
	LinkAccount(ctx context.Context, householdID, accountID int64) error
}
