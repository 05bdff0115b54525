package postgres

import (
	"context"
	"strconv"
	"strings"

	"finsync/internal/domain/transaction"
	"finsync/internal/shared/errs"
)

// TransactionRepository reads stored transactions. Writes happen in
// ReconciliationStore.
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, params transaction.ListParams) ([]*transaction.Transaction, error) {
	args := []any{params.UserID}
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds := []string{"p.user_id = $1"}
	if len(params.AccountIDs) > 0 {
		in := make([]string, len(params.AccountIDs))
		for i, id := range params.AccountIDs {
			in[i] = bind(id)
		}
		conds = append(conds, "t.account_id IN ("+strings.Join(in, ", ")+")")
	}
	if params.StartDate != nil {
		conds = append(conds, "t.date_posted >= "+bind(params.StartDate.UTC()))
	}
	if params.EndDate != nil {
		conds = append(conds, "t.date_posted <= "+bind(params.EndDate.UTC()))
	}
	limit := bind(params.Limit)
	offset := bind(params.Offset)

	query := `
		SELECT t.id, t.account_id, a.account_id, t.transaction_id, t.amount, t.date_posted,
		       t.merchant_name, t.description, t.is_pending, t.category, t.iso_currency_code, t.updated_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN plaid_users p ON p.id = a.plaid_user_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY t.date_posted DESC, t.id DESC
		LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list transactions", err)
	}
	defer rows.Close()

	txns := []*transaction.Transaction{}
	for rows.Next() {
		var t transaction.Transaction
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.PlaidAccountID, &t.TransactionID, &t.Amount, &t.PostedAt,
			&t.MerchantName, &t.Description, &t.IsPending, &t.Category, &t.IsoCurrencyCode, &t.UpdatedAt,
		); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan transaction", err)
		}
		t.PostedAt = t.PostedAt.UTC()
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list transactions", err)
	}
	return txns, nil
}
