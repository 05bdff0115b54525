package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"finsync/internal/domain/user"
	"finsync/internal/shared/auth"
)

type ContextKey string

const (
	UserIDKey  ContextKey = "user_id"
	SubjectKey ContextKey = "sub"
	EmailKey   ContextKey = "email"
)

// TokenVerifier validates an access token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserResolver maps a verified identity to a local user
type UserResolver interface {
	Resolve(ctx context.Context, identity user.Identity) (*user.User, error)
}

// Auth verifies the bearer token and stores the local user id, subject and
// email in the request context.
func Auth(verifier TokenVerifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// Try HttpOnly cookie first (browser requests)
			if cookie, err := r.Cookie("access_token"); err == nil {
				token = cookie.Value
			} else {
				// Fall back to Authorization header (API clients)
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					http.Error(w, "Authentication required", http.StatusUnauthorized)
					return
				}
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
					return
				}
				token = parts[1]
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			u, err := users.Resolve(r.Context(), user.Identity{
				Sub:   claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
			})
			if err != nil {
				log.Printf("Failed to resolve user %s: %v", claims.Subject, err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, u.ID)
			ctx = context.WithValue(ctx, SubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, EmailKey, u.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
