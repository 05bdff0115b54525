package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finsync/internal/domain/user"
)

func TestHandleMe(t *testing.T) {
	repo := &MockUserRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*user.User, error) {
			if id != 1 {
				return nil, user.ErrUserNotFound
			}
			return &user.User{ID: 1, Sub: "auth0|1", Email: "ana@example.com", Name: "Ana"}, nil
		},
	}

	tests := []struct {
		name           string
		userID         int64
		expectedStatus int
	}{
		{"Success", 1, http.StatusOK},
		{"Deleted user", 2, http.StatusNotFound},
		{"Unauthenticated", 0, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUserHandler(user.NewService(repo))

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.userID != 0 {
				req = withUser(req, tt.userID)
			}
			rr := httptest.NewRecorder()
			handler.HandleMe(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var u user.User
			if err := json.NewDecoder(rr.Body).Decode(&u); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if u.Sub != "auth0|1" || u.Email != "ana@example.com" {
				t.Errorf("user = %+v", u)
			}
		})
	}
}
