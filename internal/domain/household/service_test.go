package household

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finsync/internal/domain/account"
	"finsync/internal/shared/errs"
)

type MockRepository struct {
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*Household, error)
	GetByIDFunc      func(ctx context.Context, id int64) (*Household, error)
	CreateFunc       func(ctx context.Context, name string, ownerID int64) (*Household, error)
	IsMemberFunc     func(ctx context.Context, householdID, userID int64) (bool, error)
	LinkAccountFunc  func(ctx context.Context, householdID, accountID int64) error
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Household, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Household, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &Household{ID: id}, nil
}

func (m *MockRepository) Create(ctx context.Context, name string, ownerID int64) (*Household, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, ownerID)
	}
	return &Household{ID: 1, Name: name, Members: []Member{{UserID: ownerID, Role: RoleOwner}}}, nil
}

func (m *MockRepository) IsMember(ctx context.Context, householdID, userID int64) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, householdID, userID)
	}
	return false, nil
}

func (m *MockRepository) LinkAccount(ctx context.Context, householdID, accountID int64) error {
	if m.LinkAccountFunc != nil {
		return m.LinkAccountFunc(ctx, householdID, accountID)
	}
	return nil
}

type MockAccounts struct {
	GetAccountFunc func(ctx context.Context, accountID, userID int64) (*account.Account, error)
}

func (m *MockAccounts) GetAccount(ctx context.Context, accountID, userID int64) (*account.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, accountID, userID)
	}
	return &account.Account{ID: accountID, UserID: userID}, nil
}

func memberOf(householdID int64) func(ctx context.Context, hid, uid int64) (bool, error) {
	return func(ctx context.Context, hid, uid int64) (bool, error) {
		return hid == householdID, nil
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Success", "  The Smiths ", nil},
		{"Blank", "   ", ErrInvalidName},
		{"Too Long", strings.Repeat("h", MaxNameLength+1), ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName string
			svc := NewService(&MockRepository{
				CreateFunc: func(ctx context.Context, name string, ownerID int64) (*Household, error) {
					gotName = name
					return &Household{ID: 1, Name: name}, nil
				},
			}, &MockAccounts{})

			_, err := svc.Create(context.Background(), 1, tt.input)
			if err != tt.wantErr {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && gotName != "The Smiths" {
				t.Errorf("name = %q, want trimmed", gotName)
			}
		})
	}
}

func TestGet(t *testing.T) {
	svc := NewService(&MockRepository{
		IsMemberFunc: memberOf(1),
		GetByIDFunc: func(ctx context.Context, id int64) (*Household, error) {
			if id != 1 {
				t.Errorf("GetByID(%d) should not be called for non-members", id)
			}
			return &Household{ID: id, Name: "Home"}, nil
		},
	}, &MockAccounts{})

	h, err := svc.Get(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if h.Name != "Home" {
		t.Errorf("Name = %q, want Home", h.Name)
	}

	if _, err := svc.Get(context.Background(), 1, 2); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestLinkAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		var linked int64
		svc := NewService(&MockRepository{
			IsMemberFunc: memberOf(1),
			LinkAccountFunc: func(ctx context.Context, householdID, accountID int64) error {
				linked = accountID
				return nil
			},
		}, &MockAccounts{})

		if _, err := svc.LinkAccount(ctx, 1, 1, 9); err != nil {
			t.Fatalf("LinkAccount() failed: %v", err)
		}
		if linked != 9 {
			t.Errorf("linked = %d, want 9", linked)
		}
	})

	t.Run("Foreign account", func(t *testing.T) {
		svc := NewService(&MockRepository{
			IsMemberFunc: memberOf(1),
			LinkAccountFunc: func(ctx context.Context, householdID, accountID int64) error {
				t.Error("LinkAccount should not reach the repository for a foreign account")
				return nil
			},
		}, &MockAccounts{
			GetAccountFunc: func(ctx context.Context, accountID, userID int64) (*account.Account, error) {
				return nil, account.ErrForbidden
			},
		})

		if _, err := svc.LinkAccount(ctx, 1, 1, 9); !errors.Is(err, account.ErrForbidden) {
			t.Errorf("LinkAccount() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("Not a member", func(t *testing.T) {
		svc := NewService(&MockRepository{IsMemberFunc: memberOf(1)}, &MockAccounts{})

		if _, err := svc.LinkAccount(ctx, 1, 2, 9); !errors.Is(err, ErrHouseholdNotFound) {
			t.Errorf("LinkAccount() error = %v, want ErrHouseholdNotFound", err)
		}
	})
}
