package connection

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/errs"
)

// LinkClient is the part of the aggregator client needed to link items
type LinkClient interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.Exchange, error)
	GetInstitutionName(ctx context.Context, accessToken string) string
}

// Service handles linking, listing and removing connections
type Service struct {
	repo   Repository
	client LinkClient
}

func NewService(repo Repository, client LinkClient) *Service {
	return &Service{repo: repo, client: client}
}

// CreateLinkSession returns a link token bound to the user
func (s *Service) CreateLinkSession(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errs.Wrap(errs.ErrValidation, "create link session", fmt.Errorf("valid user ID is required"))
	}
	return s.client.CreateLinkToken(ctx, strconv.FormatInt(userID, 10))
}

// ExchangePublicToken completes a link: exchanges the public token, looks up
// the institution name and stores the encrypted access token.
func (s *Service) ExchangePublicToken(ctx context.Context, userID int64, publicToken string) (*Linked, error) {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return nil, errs.Wrap(errs.ErrValidation, "exchange public token", fmt.Errorf("public_token is required"))
	}

	ex, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	institution := s.client.GetInstitutionName(ctx, ex.AccessToken)

	conn, err := s.repo.Create(ctx, CreateParams{
		UserID:          userID,
		AccessToken:     ex.AccessToken,
		ItemID:          ex.ItemID,
		InstitutionName: institution,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store connection: %w", err)
	}

	log.Printf("User %d linked item %s (%s)", userID, conn.ItemID, institution)

	return &Linked{
		ConnectionID:    conn.ID,
		ItemID:          conn.ItemID,
		InstitutionName: conn.InstitutionName,
	}, nil
}

// ListConnections returns the user's connections. Secrets are never loaded.
func (s *Service) ListConnections(ctx context.Context, userID int64) ([]*Connection, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// DeleteConnection removes an owned connection and everything under it
func (s *Service) DeleteConnection(ctx context.Context, userID, connectionID int64) error {
	if err := s.CheckOwner(ctx, userID, connectionID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, connectionID)
}

// OwnsItem reports whether the item is linked by the user. Unknown items
// are ErrConnectionNotFound.
func (s *Service) OwnsItem(ctx context.Context, userID int64, itemID string) error {
	conns, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if c.ItemID == itemID {
			return nil
		}
	}
	return ErrConnectionNotFound
}

// CheckOwner verifies that connectionID exists and belongs to userID
func (s *Service) CheckOwner(ctx context.Context, userID, connectionID int64) error {
	conns, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if c.ID == connectionID {
			return nil
		}
	}
	return ErrConnectionNotFound
}
