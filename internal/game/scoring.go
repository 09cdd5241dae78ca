package game

import (
	"math"
	"time"

	"livequiz-service/internal/domain"
)

// ScoringConfig tunes per-round point awards.
type ScoringConfig struct {
	// MaxPoints is the ceiling for a correct answer given instantly.
	MaxPoints int `yaml:"maxPoints"`
	// MinFraction is the share of MaxPoints still awarded for a correct
	// answer that lands exactly at the time limit.
	MinFraction float64 `yaml:"minFraction"`
	// PartialPoints is the full-credit base for partial answers; order
	// questions earn it scaled by their position-match ratio.
	PartialPoints int `yaml:"partialPoints"`
	// ParticipationPoints is the flat award for recorded (voting) answers.
	// Zero disables participation scoring.
	ParticipationPoints int `yaml:"participationPoints"`
}

// DefaultScoringConfig mirrors the point scale of mainstream live quizzes.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MaxPoints:           1000,
		MinFraction:         0.5,
		PartialPoints:       500,
		ParticipationPoints: 100,
	}
}

// Score maps a verdict plus response timing to the points for the round.
//
// Correct answers decay linearly from MaxPoints at t=0 to
// MaxPoints*MinFraction at the limit, so the award is monotonically
// non-increasing in elapsed time and never negative. Anything past the limit
// earns nothing regardless of content.
func (c ScoringConfig) Score(class domain.Classification, ratio float64, elapsed, limit time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	if limit > 0 && elapsed > limit {
		return 0
	}

	switch class {
	case domain.ClassificationCorrect:
		max := float64(c.MaxPoints)
		min := max * c.MinFraction
		if limit <= 0 {
			return clampPoints(int(math.Round(max)), c.MaxPoints)
		}
		frac := float64(elapsed) / float64(limit)
		return clampPoints(int(math.Round(max-(max-min)*frac)), c.MaxPoints)
	case domain.ClassificationPartial:
		return clampPoints(int(math.Round(float64(c.PartialPoints)*ratio)), c.MaxPoints)
	case domain.ClassificationRecorded:
		return clampPoints(c.ParticipationPoints, c.MaxPoints)
	default:
		return 0
	}
}

func clampPoints(points, max int) int {
	if points < 0 {
		return 0
	}
	if points > max {
		return max
	}
	return points
}
