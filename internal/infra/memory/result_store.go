package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

// ResultStore keeps finished-game records in memory. It stands in for the
// Postgres store in tests and broker-less deployments.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.GameResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.GameResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.SessionID] = result
	return nil
}

// Result returns the stored record for a session, if any.
func (s *ResultStore) Result(sessionID string) (domain.GameResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[sessionID]
	return result, ok
}
