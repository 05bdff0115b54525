package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidAudience = errors.New("token audience mismatch")
	ErrInvalidIssuer   = errors.New("token issuer mismatch")
)

// Claims are the Auth0 access token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Scope string `json:"scope,omitempty"`
}

// Verifier validates RS256 access tokens against a JWKS endpoint.
type Verifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

// NewAuth0Verifier fetches the tenant's signing keys and keeps them refreshed.
func NewAuth0Verifier(domain, audience string) (*Verifier, error) {
	domain = strings.TrimSuffix(strings.TrimPrefix(domain, "https://"), "/")
	issuer := "https://" + domain + "/"
	return NewJWKSVerifier(issuer+".well-known/jwks.json", issuer, audience)
}

func NewJWKSVerifier(jwksURL, issuer, audience string) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Printf("Failed to refresh JWKS from %s: %v", jwksURL, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS: %w", err)
	}

	return &Verifier{jwks: jwks, issuer: issuer, audience: audience}, nil
}

// Verify parses the token and checks its signature, expiry, audience and issuer.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyAudience(v.audience, true) {
		return nil, ErrInvalidAudience
	}
	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}
