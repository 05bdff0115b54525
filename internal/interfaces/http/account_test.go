package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finsync/internal/domain/account"
)

func ownedAccount(ctx context.Context, id int64) (*account.Account, error) {
	switch id {
	case 1:
		return &account.Account{ID: 1, UserID: 1, AccountID: "acc-1", Name: "Plaid Checking", Currency: "USD"}, nil
	case 2:
		return &account.Account{ID: 2, UserID: 2, AccountID: "acc-2", Name: "Someone Else", Currency: "USD"}, nil
	default:
		return nil, account.ErrAccountNotFound
	}
}

func TestHandleAccountByID_Get(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		expectedStatus int
	}{
		{"Success", "1", http.StatusOK},
		{"Forbidden", "2", http.StatusForbidden},
		{"Not Found", "999", http.StatusNotFound},
		{"Malformed ID", "acc-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(account.NewService(&MockAccountRepo{GetByIDFunc: ownedAccount}))

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/accounts/"+tt.accountID, nil), 1)
			req.SetPathValue("id", tt.accountID)
			rr := httptest.NewRecorder()
			handler.HandleAccountByID(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleAccountByID_Patch(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		body           string
		expectedStatus int
		wantNickname   *string
	}{
		{
			name:           "Set nickname",
			accountID:      "1",
			body:           `{"nickname":"  Bills  "}`,
			expectedStatus: http.StatusOK,
			wantNickname:   strPtr("Bills"),
		},
		{
			name:           "Clear nickname",
			accountID:      "1",
			body:           `{"nickname":""}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing field",
			accountID:      "1",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Too long",
			accountID:      "1",
			body:           `{"nickname":"` + strings.Repeat("x", account.MaxNicknameLength+1) + `"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Not owner",
			accountID:      "2",
			body:           `{"nickname":"Mine now"}`,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updated bool
			var gotNickname *string
			repo := &MockAccountRepo{
				GetByIDFunc: ownedAccount,
				UpdateNicknameFunc: func(ctx context.Context, id int64, nickname *string) (*account.Account, error) {
					updated = true
					gotNickname = nickname
					acc, _ := ownedAccount(ctx, id)
					acc.Nickname = nickname
					return acc, nil
				},
			}
			handler := NewAccountHandler(account.NewService(repo))

			req := withUser(httptest.NewRequest(http.MethodPatch, "/api/accounts/"+tt.accountID, strings.NewReader(tt.body)), 1)
			req.SetPathValue("id", tt.accountID)
			rr := httptest.NewRecorder()
			handler.HandleAccountByID(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %q)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				if updated {
					t.Error("repository updated on a rejected request")
				}
				return
			}

			if (gotNickname == nil) != (tt.wantNickname == nil) ||
				(gotNickname != nil && *gotNickname != *tt.wantNickname) {
				t.Errorf("nickname = %v, want %v", gotNickname, tt.wantNickname)
			}

			var acc account.Account
			if err := json.NewDecoder(rr.Body).Decode(&acc); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if acc.ID != 1 {
				t.Errorf("account id = %d, want 1", acc.ID)
			}
		})
	}
}

func TestHandleAccountByID_MethodNotAllowed(t *testing.T) {
	handler := NewAccountHandler(account.NewService(&MockAccountRepo{GetByIDFunc: ownedAccount}))

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/accounts/1", nil), 1)
	req.SetPathValue("id", "1")
	rr := httptest.NewRecorder()
	handler.HandleAccountByID(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func strPtr(s string) *string { return &s }
