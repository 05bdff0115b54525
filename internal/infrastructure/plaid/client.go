package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finsync/internal/shared/errs"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultPageSize = 100
	maxPageSize     = 500

	linkTokenCreatePath     = "/link/token/create"
	publicTokenExchangePath = "/item/public_token/exchange"
	accountsGetPath         = "/accounts/get"
	transactionsSyncPath    = "/transactions/sync"
	itemGetPath             = "/item/get"
	institutionsGetByIDPath = "/institutions/get_by_id"
)

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// Config holds the settings for a Plaid client.
type Config struct {
	ClientID     string
	Secret       string
	Environment  string
	BaseURL      string // overrides Environment when set
	ClientName   string
	Language     string
	CountryCodes []string
	PageSize     int
	Timeout      time.Duration
}

// Client handles communication with the Plaid API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	creds        credentials
	clientName   string
	language     string
	countryCodes []string
	pageSize     int
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Plaid API client
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = environments[cfg.Environment]
		if !ok {
			return nil, fmt.Errorf("unknown plaid environment %q", cfg.Environment)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}
	countryCodes := cfg.CountryCodes
	if len(countryCodes) == 0 {
		countryCodes = []string{"US"}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:      baseURL,
		creds:        credentials{ClientID: cfg.ClientID, Secret: cfg.Secret},
		clientName:   cfg.ClientName,
		language:     language,
		countryCodes: countryCodes,
		pageSize:     pageSize,
	}, nil
}

// CreateLinkToken creates a Link token for the transactions product
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	req := linkTokenCreateRequest{
		credentials:  c.creds,
		ClientName:   c.clientName,
		Language:     c.language,
		CountryCodes: c.countryCodes,
		User:         linkTokenUser{ClientUserID: clientUserID},
		Products:     []string{"transactions"},
	}

	var resp linkTokenCreateResponse
	if err := c.post(ctx, linkTokenCreatePath, req, &resp); err != nil {
		return "", err
	}
	if resp.LinkToken == "" {
		return "", errs.Wrap(errs.ErrUpstream, linkTokenCreatePath, fmt.Errorf("response has no link_token"))
	}

	return resp.LinkToken, nil
}

// ExchangePublicToken swaps a public token for an access token and item id
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	req := publicTokenExchangeRequest{credentials: c.creds, PublicToken: publicToken}

	var resp Exchange
	if err := c.post(ctx, publicTokenExchangePath, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.ItemID == "" {
		return nil, errs.Wrap(errs.ErrUpstream, publicTokenExchangePath, fmt.Errorf("response missing access_token or item_id"))
	}

	return &resp, nil
}

// GetAccounts fetches all accounts of an item
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	req := accessTokenRequest{credentials: c.creds, AccessToken: accessToken}

	var resp accountsGetResponse
	if err := c.post(ctx, accountsGetPath, req, &resp); err != nil {
		return nil, err
	}

	return resp.Accounts, nil
}

// SyncPage performs exactly one /transactions/sync call. An empty cursor
// requests the item's full history from the beginning.
func (c *Client) SyncPage(ctx context.Context, accessToken, cursor string, opts SyncOptions) (*SyncPage, error) {
	count := opts.Count
	if count <= 0 || count > maxPageSize {
		count = c.pageSize
	}

	req := transactionsSyncRequest{
		credentials: c.creds,
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       count,
	}
	if opts.AccountID != "" {
		req.Options = &transactionsSyncOptions{AccountID: opts.AccountID}
	}

	var page SyncPage
	if err := c.post(ctx, transactionsSyncPath, req, &page); err != nil {
		return nil, err
	}
	if page.HasMore && page.NextCursor == "" {
		return nil, errs.Wrap(errs.ErrUpstream, transactionsSyncPath, fmt.Errorf("has_more set without next_cursor"))
	}

	return &page, nil
}

// GetInstitutionName looks up the display name of the item's institution.
// The name is cosmetic: any failure is logged and reported as "".
func (c *Client) GetInstitutionName(ctx context.Context, accessToken string) string {
	var item itemGetResponse
	if err := c.post(ctx, itemGetPath, accessTokenRequest{credentials: c.creds, AccessToken: accessToken}, &item); err != nil {
		log.Printf("Warning: failed to get item for institution lookup: %v", err)
		return ""
	}
	if item.Item.InstitutionID == nil || *item.Item.InstitutionID == "" {
		return ""
	}

	req := institutionGetRequest{
		credentials:   c.creds,
		InstitutionID: *item.Item.InstitutionID,
		CountryCodes:  c.countryCodes,
	}
	var inst institutionGetResponse
	if err := c.post(ctx, institutionsGetByIDPath, req, &inst); err != nil {
		log.Printf("Warning: failed to get institution %s: %v", *item.Item.InstitutionID, err)
		return ""
	}

	return inst.Institution.Name
}

// post sends a JSON request and decodes the JSON response into out.
// Every failure is reported as errs.ErrUpstream; Plaid's error body is kept
// as *APIError in the chain for logging.
func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.ErrUpstream, path, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrUpstream, path, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.ErrorCode == "" {
			apiErr.ErrorType = "UNKNOWN"
			apiErr.ErrorMessage = http.StatusText(resp.StatusCode)
		}
		return errs.Wrap(errs.ErrUpstream, path, apiErr)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errs.Wrap(errs.ErrUpstream, path, fmt.Errorf("failed to unmarshal response: %w", err))
	}

	return nil
}
