package plaid

import "context"

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	SyncPage(ctx context.Context, accessToken, cursor string, opts SyncOptions) (*SyncPage, error)
	GetInstitutionName(ctx context.Context, accessToken string) string
}
