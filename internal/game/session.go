package game

import (
	"fmt"
	"log"
	"time"

	"livequiz-service/internal/domain"
	"github.com/google/uuid"
)

// Config tunes session behaviour.
type Config struct {
	Scoring ScoringConfig
	// IdleTimeout finishes a session automatically once its roster has been
	// empty with no host activity for this long. Zero disables the check.
	IdleTimeout time.Duration
	// GracePeriod keeps a finished session readable (late leaderboard
	// fetches) before it shuts down and the registry drops it.
	GracePeriod time.Duration
	// EventBuffer sizes the per-session event queue.
	EventBuffer int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Scoring:     DefaultScoringConfig(),
		IdleTimeout: 5 * time.Minute,
		GracePeriod: time.Minute,
		EventBuffer: 64,
	}
}

// Session is one live run of a quiz. All mutable state below the "loop-owned"
// marker is touched only by the run goroutine, which drains the event queue
// one event at a time; that single serialized path is what makes the roster,
// submission set and scores race-free without locks.
type Session struct {
	id   string
	pin  string
	quiz domain.Quiz
	cfg  Config
	now  func() time.Time

	events chan func()
	quit   chan struct{} // grace elapsed, loop should drain and exit
	closed chan struct{} // loop has exited

	// onFinished receives the terminal result exactly once; it runs on its
	// own goroutine so persistence can never stall the loop.
	onFinished func(domain.GameResult)

	// loop-owned state.
	phase        domain.Phase
	current      int // active question ordinal, -1 before start
	roster       map[string]*domain.Participant
	joinOrder    []string
	answered     map[string]struct{}
	pending      []domain.RoundResult
	revealedAt   time.Time
	aggr         *aggregator
	answerLog    []domain.AnswerRecord
	subscribers  map[chan domain.Event]struct{}
	lastActivity time.Time
}

// NewSession creates a session for the quiz and starts its event loop.
func NewSession(quiz domain.Quiz, pin string, cfg Config, onFinished func(domain.GameResult)) *Session {
	return newSessionWithClock(quiz, pin, cfg, onFinished, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(quiz domain.Quiz, pin string, cfg Config, onFinished func(domain.GameResult), now func() time.Time) *Session {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	s := &Session{
		id:           uuid.NewString(),
		pin:          pin,
		quiz:         quiz,
		cfg:          cfg,
		now:          now,
		events:       make(chan func(), cfg.EventBuffer),
		quit:         make(chan struct{}),
		closed:       make(chan struct{}),
		onFinished:   onFinished,
		phase:        domain.PhaseLobby,
		current:      -1,
		roster:       make(map[string]*domain.Participant),
		answered:     make(map[string]struct{}),
		aggr:         nil,
		subscribers:  make(map[chan domain.Event]struct{}),
		lastActivity: now(),
	}
	s.aggr = newAggregator(s.id)
	go s.run()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Pin returns the human-readable join code.
func (s *Session) Pin() string { return s.pin }

// QuizTitle returns the title of the quiz being played.
func (s *Session) QuizTitle() string { return s.quiz.Title }

// Done is closed once the session has fully shut down (finished plus grace
// period); the registry uses it to drop its reference.
func (s *Session) Done() <-chan struct{} { return s.closed }

func (s *Session) run() {
	var ticker *time.Ticker
	var tick <-chan time.Time
	if s.cfg.IdleTimeout > 0 {
		interval := s.cfg.IdleTimeout / 4
		if interval < 10*time.Millisecond {
			interval = 10 * time.Millisecond
		}
		ticker = time.NewTicker(interval)
		tick = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case fn := <-s.events:
			fn()
		case <-tick:
			s.checkIdle()
		case <-s.quit:
			// Anything still queued gets a definite outcome: the handlers
			// all observe PhaseFinished and answer with ErrSessionEnded.
			for {
				select {
				case fn := <-s.events:
					fn()
				default:
					close(s.closed)
					return
				}
			}
		}
	}
}

// do runs fn on the session loop and waits for it. It fails with
// ErrSessionEnded once the loop has shut down.
func (s *Session) do(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case s.events <- wrapped:
	case <-s.closed:
		return domain.ErrSessionEnded
	}
	select {
	case <-done:
		return nil
	case <-s.closed:
		return domain.ErrSessionEnded
	}
}

// post queues fn without waiting; used by timers so their goroutines never
// block on a shut-down session.
func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.closed:
	}
}

// Join adds a participant to the roster. Joining mid-game is allowed; the
// newcomer starts at zero and earns nothing for rounds already closed.
func (s *Session) Join(displayName string) (domain.Participant, error) {
	var p domain.Participant
	var err error
	if doErr := s.do(func() { p, err = s.join(displayName) }); doErr != nil {
		return domain.Participant{}, doErr
	}
	return p, err
}

func (s *Session) join(displayName string) (domain.Participant, error) {
	if s.phase == domain.PhaseFinished {
		return domain.Participant{}, domain.ErrSessionEnded
	}
	for _, existing := range s.roster {
		if existing.DisplayName == displayName {
			return domain.Participant{}, domain.ErrNameTaken
		}
	}
	p := &domain.Participant{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		JoinedAt:    s.now(),
		JoinOrder:   len(s.joinOrder),
	}
	s.roster[p.ID] = p
	s.joinOrder = append(s.joinOrder, p.ID)
	s.lastActivity = s.now()
	return *p, nil
}

// Leave removes a participant. Their accumulated score stays on the board.
func (s *Session) Leave(participantID string) {
	_ = s.do(func() {
		delete(s.roster, participantID)
		// join order is kept so past rounds still rank deterministically
	})
}

// Submit validates and judges an answer for the active question. A nil error
// means the answer was accepted; its points are folded into the leaderboard
// when the host shows the round's results.
func (s *Session) Submit(participantID string, ordinal int, payload domain.AnswerPayload, elapsed time.Duration) error {
	var err error
	if doErr := s.do(func() { err = s.submit(participantID, ordinal, payload, elapsed) }); doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) submit(participantID string, ordinal int, payload domain.AnswerPayload, elapsed time.Duration) error {
	if s.phase == domain.PhaseFinished {
		return domain.ErrSessionEnded
	}
	p, ok := s.roster[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhaseQuestionActive || ordinal != s.current {
		return domain.ErrStaleSubmission
	}
	if _, dup := s.answered[participantID]; dup {
		return domain.ErrDuplicateSubmission
	}

	question := s.quiz.Questions[s.current]
	class, ratio, err := Classify(question, payload)
	if err != nil {
		// A malformed payload affects only its sender; session state and
		// everyone else's scores are untouched.
		return err
	}

	points := s.cfg.Scoring.Score(class, ratio, elapsed, question.TimeLimit())
	if question.TimeLimit() > 0 && elapsed > question.TimeLimit() {
		class = domain.ClassificationIncorrect
	}

	s.answered[participantID] = struct{}{}
	s.pending = append(s.pending, domain.RoundResult{
		ParticipantID:  participantID,
		Ordinal:        ordinal,
		Classification: class,
		PartialRatio:   ratio,
		Points:         points,
		Elapsed:        elapsed,
	})
	s.answerLog = append(s.answerLog, domain.AnswerRecord{
		ParticipantID:  participantID,
		DisplayName:    p.DisplayName,
		Ordinal:        ordinal,
		Classification: class,
		Points:         points,
		ElapsedMs:      elapsed.Milliseconds(),
	})
	s.lastActivity = s.now()
	return nil
}

// Host applies a host phase-change action and returns the resulting phase.
func (s *Session) Host(action domain.HostAction) (domain.Phase, error) {
	var phase domain.Phase
	var err error
	if doErr := s.do(func() { phase, err = s.host(action) }); doErr != nil {
		return "", doErr
	}
	return phase, err
}

func (s *Session) host(action domain.HostAction) (domain.Phase, error) {
	if s.phase == domain.PhaseFinished {
		return s.phase, domain.ErrSessionEnded
	}
	s.lastActivity = s.now()

	switch action {
	case domain.ActionStart:
		if s.phase != domain.PhaseLobby {
			return s.phase, fmt.Errorf("%w: start from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.startQuestion()
	case domain.ActionReveal:
		if s.phase != domain.PhaseQuestionActive {
			return s.phase, fmt.Errorf("%w: reveal from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.reveal()
	case domain.ActionShowResults:
		if s.phase != domain.PhaseQuestionReveal {
			return s.phase, fmt.Errorf("%w: show results from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.showResults()
	case domain.ActionNext:
		if s.phase != domain.PhaseLeaderboard {
			return s.phase, fmt.Errorf("%w: next from %s", domain.ErrInvalidTransition, s.phase)
		}
		s.startQuestion()
	case domain.ActionEnd:
		s.finish()
	default:
		return s.phase, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidTransition, action)
	}
	return s.phase, nil
}

func (s *Session) startQuestion() {
	s.current++
	if s.current >= len(s.quiz.Questions) {
		s.finish()
		return
	}
	s.answered = make(map[string]struct{})
	s.pending = nil
	s.revealedAt = s.now()
	s.phase = domain.PhaseQuestionActive

	question := s.quiz.Questions[s.current]
	sanitized := sanitizeQuestion(question)
	s.broadcast(domain.Event{
		Type:      domain.EventPhaseChanged,
		SessionID: s.id,
		Phase:     s.phase,
		Ordinal:   s.current,
		Question:  &sanitized,
	})

	if limit := question.TimeLimit(); limit > 0 {
		ordinal := s.current
		time.AfterFunc(limit, func() {
			s.post(func() { s.timerFired(ordinal) })
		})
	}
}

// timerFired closes the question when its time limit expires. It races the
// host's early reveal; whichever runs first wins and the loser is a no-op,
// which the phase and ordinal check below decides.
func (s *Session) timerFired(ordinal int) {
	if s.phase != domain.PhaseQuestionActive || s.current != ordinal {
		return
	}
	s.reveal()
}

func (s *Session) reveal() {
	s.phase = domain.PhaseQuestionReveal
	s.broadcast(domain.Event{
		Type:      domain.EventPhaseChanged,
		SessionID: s.id,
		Phase:     s.phase,
		Ordinal:   s.current,
	})
}

func (s *Session) showResults() {
	s.aggr.mergeRound(s.current, s.pending)
	s.pending = nil
	s.phase = domain.PhaseLeaderboard

	lb := s.aggr.snapshot(s.rosterInJoinOrder(), s.now())
	s.broadcast(domain.Event{
		Type:        domain.EventRoundResults,
		SessionID:   s.id,
		Phase:       s.phase,
		Ordinal:     s.current,
		Leaderboard: &lb,
	})

	if s.current == len(s.quiz.Questions)-1 {
		// The last leaderboard has been shown; the game is over.
		s.finish()
	}
}

func (s *Session) finish() {
	if s.phase == domain.PhaseFinished {
		return
	}
	// An unmerged round (host ended mid-question) is abandoned; its answers
	// stay in the log but award nothing.
	s.phase = domain.PhaseFinished
	finishedAt := s.now()

	lb := s.aggr.snapshot(s.rosterInJoinOrder(), finishedAt)
	s.broadcast(domain.Event{
		Type:        domain.EventFinalLeaderboard,
		SessionID:   s.id,
		Phase:       s.phase,
		Ordinal:     s.current,
		Leaderboard: &lb,
	})
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan domain.Event]struct{})

	if s.onFinished != nil {
		result := domain.GameResult{
			SessionID:   s.id,
			QuizID:      s.quiz.ID,
			Title:       s.quiz.Title,
			PlayerCount: len(lb.Entries),
			FinishedAt:  finishedAt,
			Entries:     lb.Entries,
			Answers:     s.answerLog,
		}
		go s.onFinished(result)
	}

	grace := s.cfg.GracePeriod
	if grace < 0 {
		grace = 0
	}
	time.AfterFunc(grace, func() { close(s.quit) })
}

func (s *Session) checkIdle() {
	if s.phase == domain.PhaseFinished {
		return
	}
	if len(s.roster) == 0 && s.now().Sub(s.lastActivity) >= s.cfg.IdleTimeout {
		log.Printf("session %s idle for %s, finishing", s.id, s.cfg.IdleTimeout)
		s.finish()
	}
}

// Subscribe registers a listener for this session's broadcasts. The caller
// must invoke the returned cancel function to avoid leaks; the channel is
// closed when the session finishes.
func (s *Session) Subscribe() (<-chan domain.Event, func(), error) {
	var ch chan domain.Event
	var err error
	doErr := s.do(func() {
		if s.phase == domain.PhaseFinished {
			err = domain.ErrSessionEnded
			return
		}
		ch = make(chan domain.Event, 8)
		s.subscribers[ch] = struct{}{}
	})
	if doErr != nil {
		return nil, nil, doErr
	}
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = s.do(func() {
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// Leaderboard returns the current ranked scoreboard. It keeps working during
// the post-finish grace period so late readers still get the final table.
func (s *Session) Leaderboard() (domain.Leaderboard, error) {
	var lb domain.Leaderboard
	if doErr := s.do(func() { lb = s.aggr.snapshot(s.rosterInJoinOrder(), s.now()) }); doErr != nil {
		return domain.Leaderboard{}, doErr
	}
	return lb, nil
}

// Phase reports the current lifecycle phase.
func (s *Session) Phase() (domain.Phase, error) {
	var phase domain.Phase
	if doErr := s.do(func() { phase = s.phase }); doErr != nil {
		return "", doErr
	}
	return phase, nil
}

func (s *Session) rosterInJoinOrder() []domain.Participant {
	out := make([]domain.Participant, 0, len(s.roster))
	for _, id := range s.joinOrder {
		if p, ok := s.roster[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// broadcast fans an event out to all subscribers. Slow readers have their
// oldest buffered event dropped rather than blocking the loop.
func (s *Session) broadcast(ev domain.Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// sanitizeQuestion strips the answer key before a question goes on the wire.
func sanitizeQuestion(q domain.Question) domain.Question {
	out := q
	out.TextAnswers = nil
	out.OrderKey = nil
	if q.Range != nil {
		out.Range = &domain.RangeAnswer{Min: q.Range.Min, Max: q.Range.Max}
	}
	if q.Choices != nil {
		choices := make([]domain.Choice, len(q.Choices))
		for i, c := range q.Choices {
			choices[i] = domain.Choice{ID: c.ID, Text: c.Text}
		}
		out.Choices = choices
	}
	return out
}
