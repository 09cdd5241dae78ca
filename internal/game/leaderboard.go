package game

import (
	"fmt"
	"sort"
	"time"

	"livequiz-service/internal/domain"
)

// aggregator owns the cumulative scores of one session. It is mutated only
// from the session's event loop, so it needs no locking of its own.
type aggregator struct {
	sessionID string
	scores    map[string]int
	// merged records which (participant, ordinal) deltas were already
	// applied; replaying a round's results is a no-op instead of a
	// double-count.
	merged     map[deltaKey]struct{}
	lastRound  int
	lastDeltas map[string]int
}

type deltaKey struct {
	participantID string
	ordinal       int
}

func newAggregator(sessionID string) *aggregator {
	return &aggregator{
		sessionID:  sessionID,
		scores:     make(map[string]int),
		merged:     make(map[deltaKey]struct{}),
		lastRound:  -1,
		lastDeltas: make(map[string]int),
	}
}

// mergeRound folds one round's results into the cumulative scores. Results
// must all belong to the given ordinal; a mismatch is an ordering bug in the
// caller and panics rather than corrupting the table. Roster members without
// a result simply get a zero delta.
func (a *aggregator) mergeRound(ordinal int, results []domain.RoundResult) {
	deltas := make(map[string]int, len(results))
	for _, res := range results {
		if res.Ordinal != ordinal {
			panic(fmt.Sprintf("aggregator: result for question %d merged into round %d", res.Ordinal, ordinal))
		}
		key := deltaKey{participantID: res.ParticipantID, ordinal: res.Ordinal}
		if _, done := a.merged[key]; done {
			deltas[res.ParticipantID] = 0
			continue
		}
		a.merged[key] = struct{}{}
		a.scores[res.ParticipantID] += res.Points
		deltas[res.ParticipantID] = res.Points
	}
	if ordinal != a.lastRound {
		a.lastRound = ordinal
		a.lastDeltas = deltas
	}
}

// snapshot builds the ranked scoreboard over the given roster (in join
// order). Every roster member appears, scored or not; ranks are dense in
// descending score with join order breaking ties, so two participants never
// share a rank.
func (a *aggregator) snapshot(roster []domain.Participant, now time.Time) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(roster))
	for _, p := range roster {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Score:         a.scores[p.ID],
			Delta:         a.lastDeltas[p.ID],
		})
	}

	joinOrder := make(map[string]int, len(roster))
	for _, p := range roster {
		joinOrder[p.ID] = p.JoinOrder
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return joinOrder[entries[i].ParticipantID] < joinOrder[entries[j].ParticipantID]
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{
		SessionID: a.sessionID,
		Ordinal:   a.lastRound,
		Entries:   entries,
		UpdatedAt: now,
	}
}

// score returns one participant's cumulative total.
func (a *aggregator) score(participantID string) int {
	return a.scores[participantID]
}
