package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livequiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ResultStore mirrors finished-game records into Redis for cheap post-game
// reads: GET game:{sessionID}:result. Records expire after the TTL; the
// durable copy lives in Postgres.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.GameResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal game result: %w", err)
	}
	if err := s.client.Set(ctx, s.key(result.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store game result: %w", err)
	}
	return nil
}

// LoadResult fetches a stored record, or ErrSessionNotFound when it has
// expired or never existed.
func (s *ResultStore) LoadResult(ctx context.Context, sessionID string) (domain.GameResult, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.GameResult{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("load game result: %w", err)
	}
	var result domain.GameResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.GameResult{}, fmt.Errorf("unmarshal game result: %w", err)
	}
	return result, nil
}

func (s *ResultStore) key(sessionID string) string {
	return "game:" + sessionID + ":result"
}
