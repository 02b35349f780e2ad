package users

import (
	"context"

	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

// Repository stores users keyed by email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	MarkValidated(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}
