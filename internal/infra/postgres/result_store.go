package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"livequiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore writes finished-game records to the game_results table.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.GameResult) error {
	entries, err := json.Marshal(result.Entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard entries: %w", err)
	}
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("marshal answer log: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_results (session_id, quiz_id, title, player_count, finished_at, entries, answers)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
		ON CONFLICT (session_id) DO NOTHING`,
		result.SessionID, result.QuizID, result.Title, result.PlayerCount, result.FinishedAt, entries, answers,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}
