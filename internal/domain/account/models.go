package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsync/internal/shared/errs"
)

const (
	DefaultCurrency   = "USD"
	MaxNicknameLength = 100
)

var (
	// Account types reported by Plaid
	accountTypes = map[string]struct{}{
		"depository": {},
		"credit":     {},
		"loan":       {},
		"investment": {},
		"brokerage":  {},
		"other":      {},
	}
)

// Domain errors
var (
	ErrAccountNotFound  = fmt.Errorf("account %w", errs.ErrNotFound)
	ErrForbidden        = errors.New("access forbidden")
	ErrInvalidCurrency  = errors.New("valid ISO 4217 currency is required")
	ErrNicknameTooLong  = errors.New("nickname is too long")
	ErrMissingAccountID = errors.New("account ID is required")
)

// Account is a stored financial account belonging to one connection.
type Account struct {
	ID             int64           `json:"id"`
	ConnectionID   int64           `json:"connectionId"`
	UserID         int64           `json:"-"`
	AccountID      string          `json:"accountId"` // aggregator account id
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Subtype        string          `json:"subtype,omitempty"`
	BalanceCurrent decimal.Decimal `json:"balanceCurrent"`
	Currency       string          `json:"currency"`
	Nickname       *string         `json:"nickname"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// DisplayName prefers the user's nickname over the provider name.
func (a *Account) DisplayName() string {
	if a.Nickname != nil && *a.Nickname != "" {
		return *a.Nickname
	}
	return a.Name
}

// Record is one account as reported by the aggregator. A nil Nickname
// leaves any stored nickname untouched.
type Record struct {
	AccountID      string
	Name           string
	Type           string
	Subtype        string
	BalanceCurrent decimal.Decimal
	Currency       string
	Nickname       *string
}

// Normalize fills provider defaults: USD for a missing currency and
// "other" for an unknown account type.
func (r Record) Normalize() Record {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if !IsValidAccountType(r.Type) {
		r.Type = "other"
	}
	return r
}

// Validate validates an inbound record after Normalize.
func (r Record) Validate() error {
	if r.AccountID == "" {
		return ErrMissingAccountID
	}
	if len(r.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

// IsValidAccountType checks if the provided account type is known.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}
