package transaction

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a stored transaction snapshot.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"accountId"`      // local account row
	PlaidAccountID  string          `json:"plaidAccountId"` // aggregator account id
	TransactionID   string          `json:"transactionId"`  // aggregator transaction id
	Amount          decimal.Decimal `json:"amount"`
	PostedAt        time.Time       `json:"datePosted"`
	MerchantName    string          `json:"merchantName,omitempty"`
	Description     string          `json:"description"`
	IsPending       bool            `json:"isPending"`
	Category        string          `json:"category,omitempty"`
	IsoCurrencyCode string          `json:"isoCurrencyCode,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Record is one inbound transaction as reported by the aggregator, keyed by
// its external id. Date is still the raw provider string.
type Record struct {
	TransactionID   string
	AccountID       string
	Amount          decimal.Decimal
	Date            string
	MerchantName    string
	Description     string
	Pending         bool
	Categories      []string
	IsoCurrencyCode string
}

// Category returns the flattened category label stored with the transaction.
func (r Record) Category() string {
	return JoinCategories(r.Categories)
}

// JoinCategories flattens category labels into a single comma-delimited string.
func JoinCategories(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, ",")
}

// ListParams filters stored transactions for a user. Both date bounds are
// inclusive; nil leaves that side open.
type ListParams struct {
	UserID     int64
	AccountIDs []int64 // empty means all accounts
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
