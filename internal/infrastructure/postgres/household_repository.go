package postgres

import (
	"context"
	"database/sql"
	"errors"

	"finsync/internal/domain/household"
	"finsync/internal/shared/errs"
)

type HouseholdRepository struct {
	db *DB
}

func NewHouseholdRepository(db *DB) *HouseholdRepository {
	return &HouseholdRepository{db: db}
}

func (r *HouseholdRepository) ListByUserID(ctx context.Context, userID int64) ([]*household.Household, error) {
	query := `
		SELECT h.id, h.name, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = $1
		ORDER BY h.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list households", err)
	}
	defer rows.Close()

	households := []*household.Household{}
	for rows.Next() {
		h := &household.Household{Members: []household.Member{}, Accounts: []household.SharedAccount{}}
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan household", err)
		}
		households = append(households, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list households", err)
	}
	return households, nil
}

func (r *HouseholdRepository) GetByID(ctx context.Context, id int64) (*household.Household, error) {
	h := &household.Household{Members: []household.Member{}, Accounts: []household.SharedAccount{}}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM households WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, household.ErrHouseholdNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "get household", err)
	}

	if h.Members, err = r.members(ctx, id); err != nil {
		return nil, err
	}
	if h.Accounts, err = r.accounts(ctx, id); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HouseholdRepository) members(ctx context.Context, householdID int64) ([]household.Member, error) {
	query := `
		SELECT m.user_id, m.role, u.email, u.name
		FROM household_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.household_id = $1
		ORDER BY m.created_at, m.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list household members", err)
	}
	defer rows.Close()

	members := []household.Member{}
	for rows.Next() {
		var m household.Member
		var email sql.NullString
		if err := rows.Scan(&m.UserID, &m.Role, &email, &m.Name); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan household member", err)
		}
		m.Email = email.String
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *HouseholdRepository) accounts(ctx context.Context, householdID int64) ([]household.SharedAccount, error) {
	query := `
		SELECT a.id, a.name, a.nickname, a.type, a.balance_current, a.currency
		FROM household_accounts ha
		JOIN accounts a ON a.id = ha.account_id
		WHERE ha.household_id = $1
		ORDER BY a.id
	`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "list household accounts", err)
	}
	defer rows.Close()

	accounts := []household.SharedAccount{}
	for rows.Next() {
		var a household.SharedAccount
		var nickname sql.NullString
		if err := rows.Scan(&a.AccountID, &a.Name, &nickname, &a.Type, &a.BalanceCurrent, &a.Currency); err != nil {
			return nil, errs.Wrap(errs.ErrStore, "scan household account", err)
		}
		if nickname.Valid {
			a.Nickname = &nickname.String
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Create inserts the household and makes ownerID its owner
func (r *HouseholdRepository) Create(ctx context.Context, name string, ownerID int64) (*household.Household, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO households (name) VALUES ($1) RETURNING id`, name,
		).Scan(&id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO household_members (household_id, user_id, role) VALUES ($1, $2, $3)`,
			id, ownerID, household.RoleOwner,
		)
		return err
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "create household", err)
	}
	return r.GetByID(ctx, id)
}

func (r *HouseholdRepository) IsMember(ctx context.Context, householdID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM household_members WHERE household_id = $1 AND user_id = $2`,
		householdID, userID,
	).Scan(&n)
	if err != nil {
		return false, errs.Wrap(errs.ErrStore, "check household member", err)
	}
	return n > 0, nil
}

func (r *HouseholdRepository) LinkAccount(ctx context.Context, householdID, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO household_accounts (household_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (household_id, account_id) DO NOTHING
	`, householdID, accountID)
	if err != nil {
		return errs.Wrap(errs.ErrStore, "link household account", err)
	}
	return nil
}
