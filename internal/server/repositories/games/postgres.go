package games

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.GameSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.PlayedAt.IsZero() {
		s.PlayedAt = time.Now().UTC()
	}

	words := s.WordsRead
	if words == nil {
		words = []string{}
	}
	b, err := json.Marshal(words)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO game_sessions (id, email, words_read, difficulty, played_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Email, string(b), int(s.Difficulty), s.PlayedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, email string, limit int) ([]models.GameSession, error) {
	query := `
		SELECT id, email, words_read, difficulty, played_at
		FROM game_sessions
		WHERE email = $1
		ORDER BY played_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var sessions []models.GameSession
	for rows.Next() {
		var (
			s     models.GameSession
			words []byte
			tier  int
		)
		if err := rows.Scan(&s.ID, &s.Email, &words, &tier, &s.PlayedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(words, &s.WordsRead); err != nil {
			return nil, fmt.Errorf("session %s: corrupt words_read: %w", s.ID, err)
		}
		s.Difficulty = models.Tier(tier)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sessions, nil
}
