package itemsync

import (
	"context"
	"errors"
	"time"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
)

const (
	DefaultMaxPages   = 1000
	DefaultLockTTL    = 5 * time.Minute
	DefaultRunTimeout = 30 * time.Minute
)

var (
	// ErrSyncInProgress is returned when another process holds the item's sync lock.
	ErrSyncInProgress = errors.New("sync already in progress for this item")
	// ErrCursorConflict is returned by CommitPage when the stored cursor no
	// longer matches the one the page was fetched with.
	ErrCursorConflict = errors.New("sync cursor was advanced by another sync")
)

// Result summarizes one sync invocation. TransactionsSynced counts rows
// written by the store across all pages; rows for unknown accounts are not
// counted.
type Result struct {
	AccountsSynced      int    `json:"accounts_synced"`
	TransactionsSynced  int    `json:"transactions_synced"`
	TransactionsRemoved int    `json:"transactions_removed"`
	Pages               int    `json:"pages"`
	Cursor              string `json:"-"`
}

// Page is one aggregator page, mapped for the store.
type Page struct {
	Upserts []transaction.Record
	Removed []string
}

// PageResult reports what CommitPage wrote.
type PageResult struct {
	Upserted int
	Skipped  int
	Removed  int
}

// Client is the subset of the aggregator client used for syncing
type Client interface {
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
	SyncPage(ctx context.Context, accessToken, cursor string, opts plaid.SyncOptions) (*plaid.SyncPage, error)
}

// Store persists sync results. CommitPage applies a page and moves the
// connection cursor from prevCursor to nextCursor in one transaction.
type Store interface {
	GetConnectionByItemID(ctx context.Context, itemID string) (*connection.Connection, error)
	UpsertAccounts(ctx context.Context, connectionID int64, records []account.Record) (int, error)
	CommitPage(ctx context.Context, connectionID int64, page Page, prevCursor, nextCursor string) (*PageResult, error)
}

// Locker takes a cross-process lock. ok is false when someone else holds it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (lock Lock, ok bool, err error)
}

// Lock is a held lock. Refresh pushes its expiry out to ttl from now.
type Lock interface {
	Refresh(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

type Options struct {
	MaxPages int // upper bound on pages per invocation
	PageSize int // page-size hint passed to the aggregator
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}
