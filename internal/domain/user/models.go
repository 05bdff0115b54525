package user

import (
	"fmt"
	"time"

	"finsync/internal/shared/errs"
)

var ErrUserNotFound = fmt.Errorf("user %w", errs.ErrNotFound)

// User is a local user keyed by the identity provider's subject.
type User struct {
	ID        int64     `json:"id"`
	Sub       string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is what the access token tells us about the caller.
type Identity struct {
	Sub   string
	Email string
	Name  string
}
