// Package games stores finished game sessions.
package games

import (
	"context"

	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.GameSession) error
	// ListRecent returns at most limit sessions for email, newest first.
	ListRecent(ctx context.Context, email string, limit int) ([]models.GameSession, error)
}
