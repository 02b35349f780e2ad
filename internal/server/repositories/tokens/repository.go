// Package tokens stores single-use tokens for account validation and
// password reset. Two backends exist: PostgreSQL and Redis.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

// Repository persists tokens. Consume must be atomic: of two concurrent
// calls with the same token at most one may succeed. It returns
// common.ErrorNotFound when no token matches purpose, value and email.
type Repository interface {
	Create(ctx context.Context, token *models.Token) error
	Consume(ctx context.Context, purpose models.TokenPurpose, value, email string) (*models.Token, error)
}
