package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/itemsync"
	"finsync/internal/domain/transaction"
	"finsync/internal/shared/errs"
)

// ReconciliationStore merges aggregator records into accounts and
// transactions. Every batch runs in one SQL transaction.
type ReconciliationStore struct {
	db          *DB
	connections *ConnectionRepository
}

func NewReconciliationStore(db *DB, connections *ConnectionRepository) *ReconciliationStore {
	return &ReconciliationStore{db: db, connections: connections}
}

func (s *ReconciliationStore) GetConnectionByItemID(ctx context.Context, itemID string) (*connection.Connection, error) {
	return s.connections.GetByItemID(ctx, itemID)
}

// UpsertAccounts inserts or updates accounts by their aggregator id and
// returns the number of records processed. A stored nickname is kept unless
// the record carries one. Accounts owned by another connection are left as is.
func (s *ReconciliationStore) UpsertAccounts(ctx context.Context, connectionID int64, records []account.Record) (int, error) {
	query := `
		INSERT INTO accounts (plaid_user_id, account_id, name, type, subtype, balance_current, currency, nickname)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			subtype = excluded.subtype,
			balance_current = excluded.balance_current,
			currency = excluded.currency,
			nickname = COALESCE(excluded.nickname, accounts.nickname),
			updated_at = CURRENT_TIMESTAMP
		WHERE accounts.plaid_user_id = excluded.plaid_user_id
	`

	err := s.db.WithTx(ctx, func(tx *Tx) error {
		for _, rec := range records {
			rec = rec.Normalize()
			if err := rec.Validate(); err != nil {
				return errs.Wrap(errs.ErrValidation, "upsert account", err)
			}

			var nickname sql.NullString
			if rec.Nickname != nil {
				nickname = sql.NullString{String: *rec.Nickname, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, query,
				connectionID, rec.AccountID, rec.Name, rec.Type, rec.Subtype,
				rec.BalanceCurrent, rec.Currency, nickname,
			); err != nil {
				return fmt.Errorf("account %s: %w", rec.AccountID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr("upsert accounts", err)
	}
	return len(records), nil
}

// UpsertTransactions stores a batch outside of a sync loop and returns the
// number of rows written. Records for unknown accounts are skipped.
func (s *ReconciliationStore) UpsertTransactions(ctx context.Context, connectionID int64, records []transaction.Record) (int, error) {
	var written int
	err := s.db.WithTx(ctx, func(tx *Tx) error {
		var err error
		written, _, err = upsertTransactions(ctx, tx, connectionID, records)
		return err
	})
	if err != nil {
		return 0, storeErr("upsert transactions", err)
	}
	return written, nil
}

// CommitPage applies one sync page and moves the connection cursor from
// prevCursor to nextCursor. If the stored cursor is no longer prevCursor
// nothing is written and itemsync.ErrCursorConflict is returned.
func (s *ReconciliationStore) CommitPage(ctx context.Context, connectionID int64, page itemsync.Page, prevCursor, nextCursor string) (*itemsync.PageResult, error) {
	result := &itemsync.PageResult{}
	err := s.db.WithTx(ctx, func(tx *Tx) error {
		var err error
		result.Upserted, result.Skipped, err = upsertTransactions(ctx, tx, connectionID, page.Upserts)
		if err != nil {
			return err
		}
		if result.Removed, err = deleteTransactions(ctx, tx, connectionID, page.Removed); err != nil {
			return err
		}
		return advanceCursor(ctx, tx, connectionID, prevCursor, nextCursor)
	})
	if err != nil {
		return nil, storeErr("commit page", err)
	}
	return result, nil
}

func upsertTransactions(ctx context.Context, tx *Tx, connectionID int64, records []transaction.Record) (written, skipped int, err error) {
	query := `
		INSERT INTO transactions (account_id, transaction_id, amount, date_posted, merchant_name,
		                          description, is_pending, category, iso_currency_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transaction_id) DO UPDATE SET
			amount = excluded.amount,
			date_posted = excluded.date_posted,
			merchant_name = excluded.merchant_name,
			description = excluded.description,
			is_pending = excluded.is_pending,
			category = excluded.category,
			iso_currency_code = excluded.iso_currency_code,
			updated_at = CURRENT_TIMESTAMP
		WHERE transactions.account_id = excluded.account_id
	`

	accounts := newAccountResolver(tx, connectionID)
	for _, rec := range records {
		accountID, ok, err := accounts.resolve(ctx, rec.AccountID)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			log.Printf("Connection %d: skipping transaction %s for unknown account %s", connectionID, rec.TransactionID, rec.AccountID)
			skipped++
			continue
		}

		posted, err := transaction.NormalizePostedDate(rec.Date)
		if err != nil {
			return 0, 0, fmt.Errorf("transaction %s: %w", rec.TransactionID, err)
		}

		res, err := tx.ExecContext(ctx, query,
			accountID, rec.TransactionID, rec.Amount, posted, rec.MerchantName,
			rec.Description, rec.Pending, rec.Category(), rec.IsoCurrencyCode,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("transaction %s: %w", rec.TransactionID, err)
		}
		// zero rows when the id already belongs to another account
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			log.Printf("Connection %d: transaction %s belongs to another account, skipped", connectionID, rec.TransactionID)
			skipped++
			continue
		}
		written++
	}
	return written, skipped, nil
}

func deleteTransactions(ctx context.Context, tx *Tx, connectionID int64, ids []string) (int, error) {
	query := `
		DELETE FROM transactions
		WHERE transaction_id = $1
		  AND account_id IN (SELECT id FROM accounts WHERE plaid_user_id = $2)
	`

	removed := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, query, id, connectionID)
		if err != nil {
			return 0, fmt.Errorf("remove transaction %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		removed += int(n)
	}
	return removed, nil
}

func advanceCursor(ctx context.Context, tx *Tx, connectionID int64, prevCursor, nextCursor string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE plaid_users SET sync_cursor = $1
		WHERE id = $2 AND COALESCE(sync_cursor, '') = $3
	`, nextCursor, connectionID, prevCursor)
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM plaid_users WHERE id = $1`, connectionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	if exists == 0 {
		return connection.ErrConnectionNotFound
	}
	return itemsync.ErrCursorConflict
}

// accountResolver maps aggregator account ids to local ids within one
// connection, caching hits and misses for the batch.
type accountResolver struct {
	tx           *Tx
	connectionID int64
	cache        map[string]int64
}

func newAccountResolver(tx *Tx, connectionID int64) *accountResolver {
	return &accountResolver{tx: tx, connectionID: connectionID, cache: map[string]int64{}}
}

func (r *accountResolver) resolve(ctx context.Context, externalID string) (int64, bool, error) {
	if id, ok := r.cache[externalID]; ok {
		return id, id != 0, nil
	}

	var id int64
	err := r.tx.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE account_id = $1 AND plaid_user_id = $2`,
		externalID, r.connectionID,
	).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("resolve account %s: %w", externalID, err)
	}
	r.cache[externalID] = id
	return id, id != 0, nil
}

// storeErr tags err as a store failure unless it already carries a kind or
// is a cursor conflict.
func storeErr(op string, err error) error {
	if errs.KindOf(err) != nil || errors.Is(err, itemsync.ErrCursorConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return errs.Wrap(errs.ErrStore, op, err)
}
