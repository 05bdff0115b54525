package itemsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/errs"
)

// MockClient serves scripted pages keyed by the cursor they were requested with.
type MockClient struct {
	mu       sync.Mutex
	Accounts []plaid.Account
	Pages    map[string]*plaid.SyncPage
	Errs     map[string]error
	Cursors  []string

	GetAccountsFunc func(ctx context.Context, accessToken string) ([]plaid.Account, error)
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return m.Accounts, nil
}

func (m *MockClient) SyncPage(ctx context.Context, accessToken, cursor string, opts plaid.SyncOptions) (*plaid.SyncPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cursors = append(m.Cursors, cursor)
	if err := m.Errs[cursor]; err != nil {
		return nil, err
	}
	page, ok := m.Pages[cursor]
	if !ok {
		return nil, errs.Wrap(errs.ErrUpstream, "sync page", fmt.Errorf("unexpected cursor %q", cursor))
	}
	return page, nil
}

// memStore mirrors the reconciliation store's semantics in memory.
type memStore struct {
	mu           sync.Mutex
	conn         *connection.Connection
	accounts     map[string]bool
	transactions map[string]transaction.Record
}

func newMemStore(itemID string) *memStore {
	return &memStore{
		conn:         &connection.Connection{ID: 1, UserID: 1, ItemID: itemID, AccessToken: "access-sandbox-1"},
		accounts:     map[string]bool{},
		transactions: map[string]transaction.Record{},
	}
}

func (s *memStore) GetConnectionByItemID(ctx context.Context, itemID string) (*connection.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.conn.ItemID != itemID {
		return nil, connection.ErrConnectionNotFound
	}
	c := *s.conn
	return &c, nil
}

func (s *memStore) UpsertAccounts(ctx context.Context, connectionID int64, records []account.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.accounts[r.AccountID] = true
	}
	return len(records), nil
}

func (s *memStore) CommitPage(ctx context.Context, connectionID int64, page Page, prevCursor, nextCursor string) (*PageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn.CursorValue() != prevCursor {
		return nil, ErrCursorConflict
	}
	res := &PageResult{}
	for _, r := range page.Upserts {
		if !s.accounts[r.AccountID] {
			res.Skipped++
			continue
		}
		s.transactions[r.TransactionID] = r
		res.Upserted++
	}
	for _, id := range page.Removed {
		if _, ok := s.transactions[id]; ok {
			delete(s.transactions, id)
			res.Removed++
		}
	}
	s.conn.Cursor = &nextCursor
	return res, nil
}

func (s *memStore) cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.CursorValue()
}

func txn(id, accountID string, amount string, pending bool) plaid.Transaction {
	return plaid.Transaction{
		TransactionID: id,
		AccountID:     accountID,
		Amount:        decimal.RequireFromString(amount),
		Date:          "2024-03-01",
		Name:          "Coffee " + id,
		Pending:       pending,
	}
}

func checkingAccount() plaid.Account {
	return plaid.Account{AccountID: "acc-1", Name: "Checking", Type: "depository"}
}

func twoPageClient() *MockClient {
	return &MockClient{
		Accounts: []plaid.Account{checkingAccount()},
		Pages: map[string]*plaid.SyncPage{
			"": {
				Added:      []plaid.Transaction{txn("tx_A", "acc-1", "4.50", true), txn("tx_B", "acc-1", "12.00", false)},
				NextCursor: "c1",
				HasMore:    true,
			},
			"c1": {
				Added:      []plaid.Transaction{txn("tx_A", "acc-1", "4.50", false)},
				NextCursor: "c2",
				HasMore:    false,
			},
		},
	}
}

func TestSyncItem_TwoPages(t *testing.T) {
	store := newMemStore("item-1")
	svc := NewService(twoPageClient(), store, nil, Options{})

	res, err := svc.SyncItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("SyncItem() failed: %v", err)
	}

	if res.AccountsSynced != 1 {
		t.Errorf("AccountsSynced = %d, want 1", res.AccountsSynced)
	}
	if res.TransactionsSynced != 3 {
		t.Errorf("TransactionsSynced = %d, want 3", res.TransactionsSynced)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if res.Cursor != "c2" || store.cursor() != "c2" {
		t.Errorf("cursor = %q (stored %q), want c2", res.Cursor, store.cursor())
	}
	if len(store.transactions) != 2 {
		t.Errorf("stored %d transactions, want 2", len(store.transactions))
	}
	if store.transactions["tx_A"].Pending {
		t.Error("tx_A should no longer be pending")
	}
	if got := store.transactions["tx_B"].Description; got != "Coffee tx_B" {
		t.Errorf("tx_B description = %q, want provider name", got)
	}
}

func TestSyncItem_FailureKeepsCommittedCursor(t *testing.T) {
	store := newMemStore("item-1")
	client := twoPageClient()
	client.Errs = map[string]error{"c1": errs.Wrap(errs.ErrUpstream, "sync page", errors.New("503"))}
	svc := NewService(client, store, nil, Options{})

	res, err := svc.SyncItem(context.Background(), "item-1")
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("SyncItem() error = %v, want ErrUpstream", err)
	}
	if res.Pages != 1 || res.TransactionsSynced != 2 {
		t.Errorf("partial result = %+v, want 1 page and 2 transactions", res)
	}
	if store.cursor() != "c1" {
		t.Fatalf("stored cursor = %q, want c1", store.cursor())
	}

	// a retry resumes from the committed page
	client.Errs = nil
	client.Cursors = nil
	res, err = svc.SyncItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(client.Cursors) != 1 || client.Cursors[0] != "c1" {
		t.Errorf("retry requested cursors %v, want [c1]", client.Cursors)
	}
	if res.TransactionsSynced != 1 || store.cursor() != "c2" {
		t.Errorf("retry result = %+v, cursor %q", res, store.cursor())
	}
}

func TestSyncItem_UnknownAccountSkipped(t *testing.T) {
	store := newMemStore("item-1")
	client := &MockClient{
		Accounts: []plaid.Account{checkingAccount()},
		Pages: map[string]*plaid.SyncPage{
			"": {
				Added:      []plaid.Transaction{txn("tx_A", "acc-1", "1.00", false), txn("tx_X", "acc-unknown", "2.00", false)},
				NextCursor: "c1",
			},
		},
	}
	svc := NewService(client, store, nil, Options{})

	res, err := svc.SyncItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("SyncItem() failed: %v", err)
	}
	if res.TransactionsSynced != 1 {
		t.Errorf("TransactionsSynced = %d, want 1", res.TransactionsSynced)
	}
	if _, ok := store.transactions["tx_X"]; ok {
		t.Error("transaction for unknown account should not be stored")
	}
}

func TestSyncItem_ModifiedAndRemoved(t *testing.T) {
	store := newMemStore("item-1")
	client := twoPageClient()
	client.Pages["c1"] = &plaid.SyncPage{
		Modified:   []plaid.Transaction{txn("tx_A", "acc-1", "5.00", false)},
		Removed:    []plaid.RemovedTransaction{{TransactionID: "tx_B"}},
		NextCursor: "c2",
	}
	svc := NewService(client, store, nil, Options{})

	res, err := svc.SyncItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("SyncItem() failed: %v", err)
	}
	if res.TransactionsRemoved != 1 {
		t.Errorf("TransactionsRemoved = %d, want 1", res.TransactionsRemoved)
	}
	if _, ok := store.transactions["tx_B"]; ok {
		t.Error("tx_B should have been removed")
	}
	if !store.transactions["tx_A"].Amount.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("tx_A amount = %s, want 5.00", store.transactions["tx_A"].Amount)
	}
}

func TestSyncItem_Errors(t *testing.T) {
	t.Run("Unknown item", func(t *testing.T) {
		svc := NewService(twoPageClient(), newMemStore("item-1"), nil, Options{})
		if _, err := svc.SyncItem(context.Background(), "item-2"); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("SyncItem() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Blank item", func(t *testing.T) {
		svc := NewService(twoPageClient(), newMemStore("item-1"), nil, Options{})
		if _, err := svc.SyncItem(context.Background(), "  "); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("SyncItem() error = %v, want ErrValidation", err)
		}
	})

	t.Run("Accounts fetch fails", func(t *testing.T) {
		store := newMemStore("item-1")
		client := twoPageClient()
		client.GetAccountsFunc = func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			return nil, errs.Wrap(errs.ErrUpstream, "get accounts", errors.New("timeout"))
		}
		svc := NewService(client, store, nil, Options{})

		if _, err := svc.SyncItem(context.Background(), "item-1"); !errors.Is(err, errs.ErrUpstream) {
			t.Errorf("SyncItem() error = %v, want ErrUpstream", err)
		}
		if len(client.Cursors) != 0 {
			t.Errorf("no pages should be fetched, got %v", client.Cursors)
		}
	})

	t.Run("Page limit", func(t *testing.T) {
		client := &MockClient{Pages: map[string]*plaid.SyncPage{}}
		for i := 0; i < 5; i++ {
			prev := ""
			if i > 0 {
				prev = fmt.Sprintf("c%d", i)
			}
			client.Pages[prev] = &plaid.SyncPage{NextCursor: fmt.Sprintf("c%d", i+1), HasMore: true}
		}
		store := newMemStore("item-1")
		svc := NewService(client, store, nil, Options{MaxPages: 3})

		res, err := svc.SyncItem(context.Background(), "item-1")
		if !errors.Is(err, errs.ErrUpstream) {
			t.Fatalf("SyncItem() error = %v, want ErrUpstream", err)
		}
		if res.Pages != 3 || store.cursor() != "c3" {
			t.Errorf("pages = %d, cursor = %q; want 3 and c3", res.Pages, store.cursor())
		}
	})

	t.Run("Cursor conflict", func(t *testing.T) {
		store := newMemStore("item-1")
		client := twoPageClient()
		client.GetAccountsFunc = func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			// another sync commits while this one is starting
			next := "c9"
			store.mu.Lock()
			store.conn.Cursor = &next
			store.mu.Unlock()
			return []plaid.Account{checkingAccount()}, nil
		}
		svc := NewService(client, store, nil, Options{})

		if _, err := svc.SyncItem(context.Background(), "item-1"); !errors.Is(err, ErrCursorConflict) {
			t.Errorf("SyncItem() error = %v, want ErrCursorConflict", err)
		}
		if store.cursor() != "c9" {
			t.Errorf("stored cursor = %q, want c9 untouched", store.cursor())
		}
	})
}

func TestToTransactionRecord(t *testing.T) {
	dt := "2024-03-01T09:15:00Z"
	merchant := "Blue Bottle"
	in := plaid.Transaction{
		TransactionID: "tx_1",
		AccountID:     "acc-1",
		Amount:        decimal.RequireFromString("-3.25"),
		Date:          "2024-03-01",
		Datetime:      &dt,
		Name:          "BLUE BOTTLE #12",
		MerchantName:  &merchant,
		Category:      []string{"Food and Drink", "Coffee Shop"},
	}

	got := toTransactionRecord(&in)
	if got.Date != dt {
		t.Errorf("Date = %q, want datetime %q", got.Date, dt)
	}
	if got.Description != "BLUE BOTTLE #12" || got.MerchantName != merchant {
		t.Errorf("Description/Merchant = %q/%q", got.Description, got.MerchantName)
	}
	if got.Category() != "Food and Drink,Coffee Shop" {
		t.Errorf("Category() = %q", got.Category())
	}

	in.PersonalFinanceCategory = &plaid.PersonalFinanceCategory{Primary: "FOOD_AND_DRINK"}
	if got := toTransactionRecord(&in); got.Category() != "FOOD_AND_DRINK" {
		t.Errorf("Category() with personal finance category = %q", got.Category())
	}
}
