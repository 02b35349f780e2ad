// Package words is the read side of the word catalog plus the upsert used
// by catalog imports.
package words

import (
	"context"

	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

type Repository interface {
	// Tiers resolves texts to tiers. Words missing from the catalog are
	// absent from the result.
	Tiers(ctx context.Context, texts []string) (map[string]models.Tier, error)
	// Sample draws up to n random words with tier <= maxTier.
	Sample(ctx context.Context, maxTier models.Tier, n int) ([]models.Word, error)
	Upsert(ctx context.Context, word models.Word) error
}
