package words

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Tiers(ctx context.Context, texts []string) (map[string]models.Tier, error) {
	result := make(map[string]models.Tier)

	unique := make([]any, 0, len(texts))
	seen := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	if len(unique) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(unique))
	for i := range unique {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := `SELECT text, tier FROM words WHERE text IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, unique...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			text string
			tier int
		)
		if err := rows.Scan(&text, &tier); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[text] = models.Tier(tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Sample(ctx context.Context, maxTier models.Tier, n int) ([]models.Word, error) {
	query := `
		SELECT text, tier, reading_time_ms
		FROM words
		WHERE tier <= $1
		ORDER BY random()
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, int(maxTier), n)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var words []models.Word
	for rows.Next() {
		var (
			w    models.Word
			tier int
			ms   int64
		)
		if err := rows.Scan(&w.Text, &tier, &ms); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		w.Tier = models.Tier(tier)
		w.ReadingTime = time.Duration(ms) * time.Millisecond
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return words, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, w models.Word) error {
	query := `
		INSERT INTO words (text, tier, reading_time_ms)
		VALUES ($1, $2, $3)
		ON CONFLICT (text) DO UPDATE SET tier = EXCLUDED.tier, reading_time_ms = EXCLUDED.reading_time_ms
	`
	if _, err := r.db.ExecContext(ctx, query, w.Text, int(w.Tier), w.ReadingTime.Milliseconds()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
