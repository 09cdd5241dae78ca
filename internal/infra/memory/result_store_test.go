package memory

import (
	"context"
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func TestResultStoreRoundTrip(t *testing.T) {
	store := NewResultStore()

	if _, ok := store.Result("s1"); ok {
		t.Fatalf("expected no result before save")
	}

	result := domain.GameResult{
		SessionID:   "s1",
		QuizID:      "quiz-1",
		Title:       "Sample",
		PlayerCount: 2,
		FinishedAt:  time.Now(),
		Entries: []domain.LeaderboardEntry{
			{ParticipantID: "p1", DisplayName: "Alice", Rank: 1, Score: 900},
		},
	}
	if err := store.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := store.Result("s1")
	if !ok {
		t.Fatalf("expected stored result")
	}
	if got.QuizID != "quiz-1" || len(got.Entries) != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}
