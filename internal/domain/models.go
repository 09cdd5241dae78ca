package domain

import "time"

// QuestionType tags the answer-key variant of a question. Validation always
// dispatches on this tag, never on the shape of a submitted payload.
type QuestionType string

const (
	QuestionABCD   QuestionType = "ABCD"
	QuestionText   QuestionType = "TEXT"
	QuestionRange  QuestionType = "RANGE"
	QuestionVoting QuestionType = "VOTING"
	QuestionOrder  QuestionType = "ORDER"
	QuestionSlide  QuestionType = "SLIDE"
)

// Choice is one selectable option of an ABCD, voting or order question.
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// TextAnswer is one accepted free-text answer.
type TextAnswer struct {
	Answer        string `json:"answer"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// RangeAnswer bounds a numeric question. [Min, Max] limits what may be
// submitted at all; only [MinCorrect, MaxCorrect] counts as correct.
type RangeAnswer struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	MinCorrect float64 `json:"minCorrect"`
	MaxCorrect float64 `json:"maxCorrect"`
}

// Question is one quiz question. Immutable once a session has started.
// The key fields are populated per Type: Choices for ABCD/VOTING, TextAnswers
// for TEXT, Range for RANGE, Choices+OrderKey for ORDER, none for SLIDE.
type Question struct {
	Ordinal      int          `json:"ordinal"`
	Prompt       string       `json:"prompt"`
	TimeLimitSec int          `json:"timeLimitSec"`
	Type         QuestionType `json:"type"`
	Choices      []Choice     `json:"choices,omitempty"`
	TextAnswers  []TextAnswer `json:"textAnswers,omitempty"`
	Range        *RangeAnswer `json:"range,omitempty"`
	OrderKey     []string     `json:"orderKey,omitempty"` // canonical choice-id order
}

// TimeLimit returns the answering window as a duration.
func (q Question) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSec) * time.Second
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerPayload carries a submitted answer. Exactly one member must be set,
// and which one is dictated by the target question's declared type.
type AnswerPayload struct {
	Selected []int    `json:"selected,omitempty"` // ABCD: chosen option indices
	Text     *string  `json:"text,omitempty"`     // TEXT
	Value    *float64 `json:"value,omitempty"`    // RANGE
	Vote     *int     `json:"vote,omitempty"`     // VOTING: chosen option index
	Order    []string `json:"order,omitempty"`    // ORDER: choice ids in submitted order
}

// Classification is the correctness verdict for one submission.
type Classification string

const (
	ClassificationCorrect   Classification = "correct"
	ClassificationPartial   Classification = "partial"
	ClassificationIncorrect Classification = "incorrect"
	// ClassificationRecorded is used for voting rounds, which have no right
	// answer; it scores like a flat participation award.
	ClassificationRecorded Classification = "recorded"
)

// Submission is one participant's answer to the active question.
type Submission struct {
	ParticipantID string        `json:"participantId"`
	Ordinal       int           `json:"ordinal"`
	Payload       AnswerPayload `json:"payload"`
	Elapsed       time.Duration `json:"elapsed"`
}

// RoundResult is the judged outcome of one submission, consumed by the
// leaderboard aggregator and then discarded.
type RoundResult struct {
	ParticipantID  string         `json:"participantId"`
	Ordinal        int            `json:"ordinal"`
	Classification Classification `json:"classification"`
	// PartialRatio is the fraction of full credit earned by a partial
	// answer (order questions); 0 or 1 for the other classifications.
	PartialRatio float64       `json:"partialRatio,omitempty"`
	Points       int           `json:"points"`
	Elapsed      time.Duration `json:"elapsed"`
}

// LeaderboardEntry is one ranked row of the scoreboard. Delta carries the
// points earned in the round being broadcast; Score is cumulative.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Rank          int    `json:"rank"`
	Score         int    `json:"score"`
	Delta         int    `json:"delta"`
}

// Leaderboard is the ordered scoreboard for one session, combining the
// cumulative view with the latest round's delta view.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Ordinal   int                `json:"ordinal"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Phase enumerates the session lifecycle states.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseQuestionActive Phase = "question_active"
	PhaseQuestionReveal Phase = "question_reveal"
	PhaseLeaderboard    Phase = "leaderboard"
	PhaseFinished       Phase = "finished"
)

// HostAction enumerates the phase-change commands a host may issue.
type HostAction string

const (
	ActionStart       HostAction = "start"        // lobby -> question_active
	ActionReveal      HostAction = "reveal"       // question_active -> question_reveal (early close)
	ActionShowResults HostAction = "show_results" // question_reveal -> leaderboard
	ActionNext        HostAction = "next"         // leaderboard -> question_active
	ActionEnd         HostAction = "end"          // any -> finished
)

// Participant is one connected player. Cumulative scores live in the
// aggregator, not here.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
	JoinOrder   int       `json:"joinOrder"`
}

// EventType tags an outbound broadcast.
type EventType string

const (
	EventPhaseChanged     EventType = "phase_changed"
	EventRoundResults     EventType = "round_results"
	EventFinalLeaderboard EventType = "final_leaderboard"
)

// Event is one outbound broadcast, delivered to every subscriber of a
// session. Question is present on phase_changed into question_active and has
// its answer key stripped.
type Event struct {
	Type        EventType    `json:"type"`
	SessionID   string       `json:"sessionId"`
	Phase       Phase        `json:"phase"`
	Ordinal     int          `json:"ordinal"`
	Question    *Question    `json:"question,omitempty"`
	Leaderboard *Leaderboard `json:"leaderboard,omitempty"`
}

// AnswerRecord is one judged answer kept for the post-game result log.
type AnswerRecord struct {
	ParticipantID  string         `json:"participantId"`
	DisplayName    string         `json:"displayName"`
	Ordinal        int            `json:"ordinal"`
	Classification Classification `json:"classification"`
	Points         int            `json:"points"`
	ElapsedMs      int64          `json:"elapsedMs"`
}

// GameResult is the terminal record of a finished session.
type GameResult struct {
	SessionID   string             `json:"sessionId"`
	QuizID      string             `json:"quizId"`
	Title       string             `json:"title"`
	PlayerCount int                `json:"playerCount"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Entries     []LeaderboardEntry `json:"entries"`
	Answers     []AnswerRecord     `json:"answers"`
}
