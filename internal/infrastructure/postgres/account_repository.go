package postgres

import (
	"context"
	"database/sql"
	"errors"

	"finsync/internal/domain/account"
	"finsync/internal/shared/errs"
)

// AccountRepository implements account.Repository
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountSelect = `
	SELECT a.id, a.plaid_user_id, p.user_id, a.account_id, a.name, a.type, a.subtype,
	       a.balance_current, a.currency, a.nickname, a.updated_at
	FROM accounts a
	JOIN plaid_users p ON p.id = a.plaid_user_id
`

// GetByID retrieves an account with its owning user
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	acc, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "get account", err)
	}
	return acc, nil
}

// ListByUserID retrieves a user's accounts. connectionID 0 lists all of them.
func (r *AccountRepository) ListByUserID(ctx context.Context, userID, connectionID int64) ([]*account.Account, error) {
	query := accountSelect + `
		WHERE p.user_id = $1 AND (CAST($2 AS BIGINT) = 0 OR a.plaid_user_id = $2)
		ORDER BY a.plaid_user_id, a.name, a.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, connectionID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list accounts", err)
	}
	defer rows.Close()

	accounts := []*account.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan account", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list accounts", err)
	}
	return accounts, nil
}

// UpdateNickname sets the nickname, or clears it when nickname is nil
func (r *AccountRepository) UpdateNickname(ctx context.Context, id int64, nickname *string) (*account.Account, error) {
	var value sql.NullString
	if nickname != nil {
		value = sql.NullString{String: *nickname, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET nickname = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		value, id,
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "update nickname", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, account.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acc account.Account
	var nickname sql.NullString
	err := row.Scan(
		&acc.ID, &acc.ConnectionID, &acc.UserID, &acc.AccountID, &acc.Name, &acc.Type, &acc.Subtype,
		&acc.BalanceCurrent, &acc.Currency, &nickname, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if nickname.Valid {
		acc.Nickname = &nickname.String
	}
	return &acc, nil
}
