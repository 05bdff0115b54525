package connection

import (
	"fmt"
	"time"

	"finsync/internal/shared/errs"
)

var ErrConnectionNotFound = fmt.Errorf("connection %w", errs.ErrNotFound)

// Connection is one linked aggregator item owned by a user. AccessToken is
// plaintext in memory and only ever stored encrypted.
type Connection struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	AccessToken     string    `json:"-"`
	ItemID          string    `json:"itemId"`
	InstitutionName string    `json:"institutionName,omitempty"`
	Cursor          *string   `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CursorValue returns the stored cursor, "" when the item was never synced.
func (c *Connection) CursorValue() string {
	if c.Cursor == nil {
		return ""
	}
	return *c.Cursor
}

type CreateParams struct {
	UserID          int64
	AccessToken     string
	ItemID          string
	InstitutionName string
}

// Linked is what the exchange operation reports back to the caller.
type Linked struct {
	ConnectionID    int64  `json:"connection_ref"`
	ItemID          string `json:"item_id"`
	InstitutionName string `json:"institution_name"`
}
