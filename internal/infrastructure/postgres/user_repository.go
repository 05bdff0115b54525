package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/user"
	"finsync/internal/shared/errs"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `
		SELECT id, sub, email, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *UserRepository) GetBySub(ctx context.Context, sub string) (*user.User, error) {
	query := `
		SELECT id, sub, email, name, created_at, updated_at
		FROM users
		WHERE sub = $1
	`
	return r.get(ctx, query, sub)
}

// UpsertBySub inserts the user or refreshes the email and name it was
// created with. Blank values keep what is stored.
func (r *UserRepository) UpsertBySub(ctx context.Context, identity user.Identity) (*user.User, error) {
	query := `
		INSERT INTO users (sub, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (sub) DO UPDATE SET
			email = COALESCE(excluded.email, users.email),
			name = CASE WHEN excluded.name = '' THEN users.name ELSE excluded.name END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, sub, email, name, created_at, updated_at
	`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, identity.Sub, nullString(identity.Email), identity.Name))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Wrap(errs.ErrValidation, "upsert user", fmt.Errorf("email is registered to another account"))
		}
		return nil, errs.Wrap(errs.ErrStore, "upsert user", err)
	}
	return u, nil
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "get user", err)
	}
	return u, nil
}

func scanUser(row *tracedRow) (*user.User, error) {
	var u user.User
	var email sql.NullString
	if err := row.Scan(&u.ID, &u.Sub, &email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
