package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wordrush:token"

type redisRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRepository keeps each token under its own key and consumes it with
// GETDEL. A positive ttl lets Redis drop tokens nobody used.
type RedisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRepository(client redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func redisKey(purpose models.TokenPurpose, email, value string) string {
	return fmt.Sprintf("%s:%s:%s:%s", redisKeyPrefix, purpose, email, value)
}

func (r *RedisRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	b, err := json.Marshal(redisRecord{ID: token.ID, CreatedAt: token.CreatedAt})
	if err != nil {
		return err
	}

	key := redisKey(token.Purpose, token.Email, token.Value)
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Consume(ctx context.Context, purpose models.TokenPurpose, value, email string) (*models.Token, error) {
	b, err := r.client.GetDel(ctx, redisKey(purpose, email, value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}

	return &models.Token{
		ID:        rec.ID,
		Value:     value,
		Email:     email,
		Purpose:   purpose,
		CreatedAt: rec.CreatedAt,
	}, nil
}
