package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/connection"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/shared/errs"
)

// ConnectionRepository stores linked items in plaid_users. Access tokens are
// encrypted before they are written and decrypted when read back.
type ConnectionRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewConnectionRepository(db *DB, encryptor *crypto.Encryptor) *ConnectionRepository {
	return &ConnectionRepository{
		db:        db,
		encryptor: encryptor,
	}
}

const connectionColumns = `id, user_id, access_token, item_id, institution_name, sync_cursor, created_at`

func (r *ConnectionRepository) Create(ctx context.Context, params connection.CreateParams) (*connection.Connection, error) {
	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "encrypt access token", err)
	}

	// relinking the same item refreshes its token and keeps the cursor
	query := `
		INSERT INTO plaid_users (user_id, access_token, item_id, institution_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE SET
			access_token = excluded.access_token,
			institution_name = excluded.institution_name
		WHERE plaid_users.user_id = excluded.user_id
		RETURNING ` + connectionColumns

	conn, err := r.scan(r.db.QueryRowContext(ctx, query,
		params.UserID, encrypted, params.ItemID, params.InstitutionName,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.ErrValidation, "create connection", fmt.Errorf("item is linked to another user"))
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "create connection", err)
	}
	conn.AccessToken = params.AccessToken
	return conn, nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id int64) (*connection.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM plaid_users WHERE id = $1`
	return r.getDecrypted(ctx, "get connection", query, id)
}

// GetByItemID loads a connection with its access token decrypted.
func (r *ConnectionRepository) GetByItemID(ctx context.Context, itemID string) (*connection.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM plaid_users WHERE item_id = $1`
	return r.getDecrypted(ctx, "get connection by item", query, itemID)
}

func (r *ConnectionRepository) getDecrypted(ctx context.Context, op, query string, arg any) (*connection.Connection, error) {
	conn, err := r.scan(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, op, err)
	}

	plain, err := r.encryptor.Decrypt(conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("connection %d: %w", conn.ID, err)
	}
	conn.AccessToken = plain
	return conn, nil
}

func (r *ConnectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	query := `
		SELECT id, user_id, item_id, institution_name, sync_cursor, created_at
		FROM plaid_users
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list connections", err)
	}
	defer rows.Close()

	var conns []*connection.Connection
	for rows.Next() {
		var c connection.Connection
		var cursor sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &c.ItemID, &c.InstitutionName, &cursor, &c.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan connection", err)
		}
		if cursor.Valid {
			c.Cursor = &cursor.String
		}
		conns = append(conns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list connections", err)
	}
	return conns, nil
}

func (r *ConnectionRepository) ListItemIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT item_id FROM plaid_users ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list item ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan item id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list item ids", err)
	}
	return ids, nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plaid_users WHERE id = $1`, id)
	if err != nil {
		return errs.Wrap(errs.ErrStore, "delete connection", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.ErrStore, "delete connection", err)
	}
	if n == 0 {
		return connection.ErrConnectionNotFound
	}
	return nil
}

func (r *ConnectionRepository) scan(row *tracedRow) (*connection.Connection, error) {
	var c connection.Connection
	var cursor sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.AccessToken, &c.ItemID, &c.InstitutionName, &cursor, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if cursor.Valid {
		c.Cursor = &cursor.String
	}
	return &c, nil
}
