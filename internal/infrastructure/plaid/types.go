package plaid

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Exchange is the result of swapping a Link public token for long-lived credentials.
type Exchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// Account represents an account from /accounts/get
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Mask         *string  `json:"mask"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Balances     Balances `json:"balances"`
}

// Balances holds the balance block of an account. Plaid sends null for
// balances it does not know.
type Balances struct {
	Current                *decimal.Decimal `json:"current"`
	Available              *decimal.Decimal `json:"available"`
	Limit                  *decimal.Decimal `json:"limit"`
	IsoCurrencyCode        *string          `json:"iso_currency_code"`
	UnofficialCurrencyCode *string          `json:"unofficial_currency_code"`
}

// CurrentBalance returns the current balance, or zero when Plaid sent none.
func (a *Account) CurrentBalance() decimal.Decimal {
	if a.Balances.Current == nil {
		return decimal.Zero
	}
	return *a.Balances.Current
}

// Currency returns the ISO currency code, defaulting to USD.
func (a *Account) Currency() string {
	if a.Balances.IsoCurrencyCode != nil && *a.Balances.IsoCurrencyCode != "" {
		return *a.Balances.IsoCurrencyCode
	}
	return "USD"
}

// SubtypeOrEmpty returns the subtype or "" when null.
func (a *Account) SubtypeOrEmpty() string {
	if a.Subtype == nil {
		return ""
	}
	return *a.Subtype
}

// Transaction represents a transaction from /transactions/sync
type Transaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Amount                  decimal.Decimal          `json:"amount"`
	IsoCurrencyCode         *string                  `json:"iso_currency_code"`
	Date                    string                   `json:"date"`
	Datetime                *string                  `json:"datetime"`
	Name                    string                   `json:"name"`
	MerchantName            *string                  `json:"merchant_name"`
	Pending                 bool                     `json:"pending"`
	Category                []string                 `json:"category"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
}

// PersonalFinanceCategory is Plaid's structured category taxonomy.
type PersonalFinanceCategory struct {
	Primary         string `json:"primary"`
	Detailed        string `json:"detailed"`
	ConfidenceLevel string `json:"confidence_level"`
}

// Categories returns the category labels in order of precedence: the
// structured primary label, else the legacy category list, else none.
func (t *Transaction) Categories() []string {
	if t.PersonalFinanceCategory != nil && t.PersonalFinanceCategory.Primary != "" {
		return []string{t.PersonalFinanceCategory.Primary}
	}
	if len(t.Category) > 0 {
		return t.Category
	}
	return nil
}

// Merchant returns the merchant name or "" when null.
func (t *Transaction) Merchant() string {
	if t.MerchantName == nil {
		return ""
	}
	return *t.MerchantName
}

// Currency returns the ISO currency code or "" when null.
func (t *Transaction) Currency() string {
	if t.IsoCurrencyCode == nil {
		return ""
	}
	return *t.IsoCurrencyCode
}

// RemovedTransaction identifies a transaction Plaid no longer reports.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
}

// SyncPage is a single /transactions/sync response.
type SyncPage struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

// SyncOptions narrows a /transactions/sync call.
type SyncOptions struct {
	AccountID string // restrict the page to one account
	Count     int    // page-size hint; 0 uses the client default
}

// APIError is the error body Plaid returns with any non-200 status.
type APIError struct {
	StatusCode     int     `json:"-"`
	ErrorType      string  `json:"error_type"`
	ErrorCode      string  `json:"error_code"`
	ErrorMessage   string  `json:"error_message"`
	DisplayMessage *string `json:"display_message"`
	RequestID      string  `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid API error (status %d): %s/%s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateRequest struct {
	credentials
	ClientName   string        `json:"client_name"`
	Language     string        `json:"language"`
	CountryCodes []string      `json:"country_codes"`
	User         linkTokenUser `json:"user"`
	Products     []string      `json:"products"`
}

type linkTokenCreateResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type publicTokenExchangeRequest struct {
	credentials
	PublicToken string `json:"public_token"`
}

type accessTokenRequest struct {
	credentials
	AccessToken string `json:"access_token"`
}

type accountsGetResponse struct {
	Accounts  []Account `json:"accounts"`
	RequestID string    `json:"request_id"`
}

type transactionsSyncOptions struct {
	AccountID string `json:"account_id,omitempty"`
}

type transactionsSyncRequest struct {
	credentials
	AccessToken string                   `json:"access_token"`
	Cursor      string                   `json:"cursor,omitempty"`
	Count       int                      `json:"count,omitempty"`
	Options     *transactionsSyncOptions `json:"options,omitempty"`
}

type itemGetResponse struct {
	Item struct {
		ItemID        string  `json:"item_id"`
		InstitutionID *string `json:"institution_id"`
	} `json:"item"`
	RequestID string `json:"request_id"`
}

type institutionGetRequest struct {
	credentials
	InstitutionID string   `json:"institution_id"`
	CountryCodes  []string `json:"country_codes"`
}

type institutionGetResponse struct {
	Institution struct {
		InstitutionID string `json:"institution_id"`
		Name          string `json:"name"`
	} `json:"institution"`
	RequestID string `json:"request_id"`
}
