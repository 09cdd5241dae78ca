package game

import (
	"testing"
	"time"

	"livequiz-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestScoreCorrectDecaysWithTime(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 20 * time.Second

	instant := cfg.Score(domain.ClassificationCorrect, 1, 0, limit)
	require.Equal(t, cfg.MaxPoints, instant)

	atLimit := cfg.Score(domain.ClassificationCorrect, 1, limit, limit)
	require.Equal(t, int(float64(cfg.MaxPoints)*cfg.MinFraction), atLimit)

	halfway := cfg.Score(domain.ClassificationCorrect, 1, limit/2, limit)
	require.Greater(t, halfway, atLimit)
	require.Less(t, halfway, instant)
}

func TestScoreMonotoneInElapsed(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 20 * time.Second

	prev := cfg.MaxPoints + 1
	for elapsed := time.Duration(0); elapsed <= limit; elapsed += 500 * time.Millisecond {
		points := cfg.Score(domain.ClassificationCorrect, 1, elapsed, limit)
		require.LessOrEqual(t, points, prev, "points increased at elapsed=%s", elapsed)
		require.GreaterOrEqual(t, points, 0)
		prev = points
	}
}

func TestScoreLateIsZeroRegardlessOfContent(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 20 * time.Second

	require.Equal(t, 0, cfg.Score(domain.ClassificationCorrect, 1, limit+100*time.Millisecond, limit))
	require.Equal(t, 0, cfg.Score(domain.ClassificationPartial, 0.5, limit+time.Second, limit))
	require.Equal(t, 0, cfg.Score(domain.ClassificationRecorded, 0, limit+time.Second, limit))
}

func TestScorePartialScalesWithRatio(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 30 * time.Second

	full := cfg.Score(domain.ClassificationPartial, 1, 5*time.Second, limit)
	half := cfg.Score(domain.ClassificationPartial, 0.5, 5*time.Second, limit)
	require.Equal(t, cfg.PartialPoints, full)
	require.Equal(t, cfg.PartialPoints/2, half)
}

func TestScoreCorrectBeatsPartialFlatValue(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 20 * time.Second

	correctAt5s := cfg.Score(domain.ClassificationCorrect, 1, 5*time.Second, limit)
	require.Greater(t, correctAt5s, cfg.PartialPoints)
}

func TestScoreRecordedAndIncorrect(t *testing.T) {
	cfg := DefaultScoringConfig()
	limit := 15 * time.Second

	require.Equal(t, cfg.ParticipationPoints, cfg.Score(domain.ClassificationRecorded, 0, 3*time.Second, limit))
	require.Equal(t, 0, cfg.Score(domain.ClassificationIncorrect, 0, 3*time.Second, limit))

	noParticipation := cfg
	noParticipation.ParticipationPoints = 0
	require.Equal(t, 0, noParticipation.Score(domain.ClassificationRecorded, 0, 3*time.Second, limit))
}

func TestScoreSaturates(t *testing.T) {
	cfg := ScoringConfig{MaxPoints: 100, MinFraction: 0.5, PartialPoints: 500, ParticipationPoints: 500}
	limit := 10 * time.Second

	// partial and participation values above the ceiling clamp to it
	require.Equal(t, 100, cfg.Score(domain.ClassificationPartial, 1, time.Second, limit))
	require.Equal(t, 100, cfg.Score(domain.ClassificationRecorded, 0, time.Second, limit))
	// negative elapsed clamps to instant
	require.Equal(t, 100, cfg.Score(domain.ClassificationCorrect, 1, -time.Second, limit))
}
