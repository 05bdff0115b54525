package http

import (
	"context"
	"net/http"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/household"
	"finsync/internal/domain/itemsync"
	"finsync/internal/domain/transaction"
	"finsync/internal/domain/user"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/middleware"
)

type MockAccountRepo struct {
	GetByIDFunc        func(ctx context.Context, id int64) (*account.Account, error)
	ListByUserIDFunc   func(ctx context.Context, userID, connectionID int64) ([]*account.Account, error)
	UpdateNicknameFunc func(ctx context.Context, id int64, nickname *string) (*account.Account, error)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID, connectionID int64) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, connectionID)
	}
	return nil, nil
}

func (m *MockAccountRepo) UpdateNickname(ctx context.Context, id int64, nickname *string) (*account.Account, error) {
	if m.UpdateNicknameFunc != nil {
		return m.UpdateNicknameFunc(ctx, id, nickname)
	}
	return nil, nil
}

type MockConnectionRepo struct {
	CreateFunc       func(ctx context.Context, params connection.CreateParams) (*connection.Connection, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*connection.Connection, error)
	DeleteFunc       func(ctx context.Context, id int64) error
}

func (m *MockConnectionRepo) Create(ctx context.Context, params connection.CreateParams) (*connection.Connection, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockConnectionRepo) GetByID(ctx context.Context, id int64) (*connection.Connection, error) {
	return nil, connection.ErrConnectionNotFound
}

func (m *MockConnectionRepo) GetByItemID(ctx context.Context, itemID string) (*connection.Connection, error) {
	return nil, connection.ErrConnectionNotFound
}

func (m *MockConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepo) ListItemIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *MockConnectionRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockLinkClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.Exchange, error)
}

func (m *MockLinkClient) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, clientUserID)
	}
	return "link-sandbox-token", nil
}

func (m *MockLinkClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.Exchange, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &plaid.Exchange{AccessToken: "access-sandbox-1", ItemID: "item-1"}, nil
}

func (m *MockLinkClient) GetInstitutionName(ctx context.Context, accessToken string) string {
	return "First Platypus Bank"
}

type MockSyncer struct {
	SyncItemFunc func(ctx context.Context, itemID string) (*itemsync.Result, error)
}

func (m *MockSyncer) SyncItem(ctx context.Context, itemID string) (*itemsync.Result, error) {
	if m.SyncItemFunc != nil {
		return m.SyncItemFunc(ctx, itemID)
	}
	return &itemsync.Result{}, nil
}

type MockTransactionRepo struct {
	ListByUserIDFunc func(ctx context.Context, params transaction.ListParams) ([]*transaction.Transaction, error)
}

func (m *MockTransactionRepo) ListByUserID(ctx context.Context, params transaction.ListParams) ([]*transaction.Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, params)
	}
	return nil, nil
}

type MockUserRepo struct {
	GetByIDFunc func(ctx context.Context, id int64) (*user.User, error)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepo) GetBySub(ctx context.Context, sub string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepo) UpsertBySub(ctx context.Context, identity user.Identity) (*user.User, error) {
	return nil, nil
}

type MockHouseholdRepo struct {
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*household.Household, error)
	GetByIDFunc      func(ctx context.Context, id int64) (*household.Household, error)
	CreateFunc       func(ctx context.Context, name string, ownerID int64) (*household.Household, error)
	IsMemberFunc     func(ctx context.Context, householdID, userID int64) (bool, error)
	LinkAccountFunc  func(ctx context.Context, householdID, accountID int64) error
}

func (m *MockHouseholdRepo) ListByUserID(ctx context.Context, userID int64) ([]*household.Household, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockHouseholdRepo) GetByID(ctx context.Context, id int64) (*household.Household, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, household.ErrHouseholdNotFound
}

func (m *MockHouseholdRepo) Create(ctx context.Context, name string, ownerID int64) (*household.Household, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, ownerID)
	}
	return nil, nil
}

func (m *MockHouseholdRepo) IsMember(ctx context.Context, householdID, userID int64) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, householdID, userID)
	}
	return false, nil
}

func (m *MockHouseholdRepo) LinkAccount(ctx context.Context, householdID, accountID int64) error {
	if m.LinkAccountFunc != nil {
		return m.LinkAccountFunc(ctx, householdID, accountID)
	}
	return nil
}

// withUser attaches an authenticated user id the way middleware.Auth does.
func withUser(req *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}
