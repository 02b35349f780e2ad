package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository keeps tokens in the tokens table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts token, assigning ID and CreatedAt when they are empty.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tokens (id, value, email, purpose, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.Value, token.Email, string(token.Purpose), token.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Consume deletes the matching token and returns it. The DELETE ...
// RETURNING makes lookup and removal one statement.
func (r *PostgresRepository) Consume(ctx context.Context, purpose models.TokenPurpose, value, email string) (*models.Token, error) {
	query := `
		DELETE FROM tokens
		WHERE purpose = $1 AND value = $2 AND email = $3
		RETURNING id, created_at
	`
	token := &models.Token{Value: value, Email: email, Purpose: purpose}
	if err := r.db.QueryRowContext(ctx, query, string(purpose), value, email).Scan(&token.ID, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}
