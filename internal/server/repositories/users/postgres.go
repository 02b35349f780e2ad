// Package users provides the PostgreSQL repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT email, name, last_name, password_hash, validated, created_at, updated_at
		 FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.Email, &user.Name, &user.LastName, &user.PasswordHash, &user.Validated, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// Create inserts an unvalidated user. When the email is already taken by
// an unvalidated account, that account's profile is overwritten instead; a
// validated account is left untouched and common.ErrorAlreadyRegistered is
// returned.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (email, name, last_name, password_hash, validated)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE
		 SET name = EXCLUDED.name, last_name = EXCLUDED.last_name, password_hash = EXCLUDED.password_hash, updated_at = now()
		 WHERE users.validated = FALSE
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.LastName, user.PasswordHash, user.Validated).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorAlreadyRegistered
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// UpdateProfile overwrites name, last name and password hash of an
// unvalidated account. A validated account does not match and yields
// common.ErrorNotFound.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET name = $2, last_name = $3, password_hash = $4, updated_at = now()
		 WHERE email = $1 AND validated = FALSE
		 `

	return r.exec(ctx, query, user.Email, user.Name, user.LastName, user.PasswordHash)
}

func (r *PostgresRepository) MarkValidated(ctx context.Context, email string) error {
	query :=
		`UPDATE users SET validated = TRUE, updated_at = now()
		 WHERE email = $1
		 `

	return r.exec(ctx, query, email)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE email = $1
		 `

	return r.exec(ctx, query, email, passwordHash)
}

// exec runs a single-row update and reports common.ErrorNotFound when no
// row matched.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
