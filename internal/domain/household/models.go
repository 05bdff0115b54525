package household

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finsync/internal/shared/errs"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"

	MaxNameLength = 120
)

var (
	ErrHouseholdNotFound = fmt.Errorf("household %w", errs.ErrNotFound)
	ErrInvalidName       = errors.New("household name is required")
	ErrNameTooLong       = errors.New("household name is too long")
)

// Household groups users that share a view over some of their accounts.
type Household struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Members   []Member        `json:"members"`
	Accounts  []SharedAccount `json:"accounts"`
}

type Member struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// SharedAccount is an account linked into a household.
type SharedAccount struct {
	AccountID      int64           `json:"accountId"`
	Name           string          `json:"name"`
	Nickname       *string         `json:"nickname"`
	Type           string          `json:"type"`
	BalanceCurrent decimal.Decimal `json:"balanceCurrent"`
	Currency       string          `json:"currency"`
}
