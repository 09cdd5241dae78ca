package app

import (
	"context"
	"log"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/game"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultStore persists the terminal record of a finished session.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.GameResult) error
}

// EventPublisher hands session lifecycle events to an external broker.
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, sessionID, quizID, pin string) error
	PublishSessionFinished(ctx context.Context, result domain.GameResult) error
}

// SessionService contains the live-game use cases: it fronts the session
// registry the way a store would and leaves all game state to the sessions.
type SessionService struct {
	registry  *game.Registry
	quizzes   QuizRepository
	results   ResultStore
	publisher EventPublisher
}

// NewSessionService wires the service. results and publisher may be nil when
// no store or broker is configured.
func NewSessionService(registry *game.Registry, quizzes QuizRepository, results ResultStore, publisher EventPublisher) *SessionService {
	return &SessionService{registry: registry, quizzes: quizzes, results: results, publisher: publisher}
}

// CreateSession starts a live run of the quiz and returns its id and join
// pin. The quiz arrives already validated; ordinals are stamped here so the
// engine can trust them.
func (s *SessionService) CreateSession(ctx context.Context, quizID string) (string, string, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", "", err
	}
	for i := range quiz.Questions {
		quiz.Questions[i].Ordinal = i
	}

	session := s.registry.Create(quiz, s.handleFinished)
	if s.publisher != nil {
		if err := s.publisher.PublishSessionStarted(ctx, session.ID(), quiz.ID, session.Pin()); err != nil {
			log.Printf("publish session started: %v", err)
		}
	}
	return session.ID(), session.Pin(), nil
}

// Join adds a participant to a session, addressed by id or join pin.
func (s *SessionService) Join(_ context.Context, sessionRef, displayName string) (string, domain.Participant, error) {
	session, ok := s.resolve(sessionRef)
	if !ok {
		return "", domain.Participant{}, domain.ErrSessionNotFound
	}
	p, err := session.Join(displayName)
	if err != nil {
		return "", domain.Participant{}, err
	}
	return session.ID(), p, nil
}

// SubmitAnswer records a participant's answer to the active question. A nil
// error means accepted; the points land on the board at show-results.
func (s *SessionService) SubmitAnswer(_ context.Context, sessionID, participantID string, ordinal int, payload domain.AnswerPayload, elapsed time.Duration) error {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Submit(participantID, ordinal, payload, elapsed)
}

// HostTransition applies a host phase-change action.
func (s *SessionService) HostTransition(_ context.Context, sessionID string, action domain.HostAction) (domain.Phase, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return session.Host(action)
}

// Subscribe returns a channel of broadcast events for a session. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	return session.Subscribe()
}

// Leaderboard returns the current (or, after finish, final) scoreboard.
func (s *SessionService) Leaderboard(_ context.Context, sessionID string) (domain.Leaderboard, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return session.Leaderboard()
}

// Leave removes a participant from a session's roster.
func (s *SessionService) Leave(_ context.Context, sessionID, participantID string) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return
	}
	session.Leave(participantID)
}

func (s *SessionService) resolve(ref string) (*game.Session, bool) {
	if session, ok := s.registry.Get(ref); ok {
		return session, true
	}
	return s.registry.GetByPin(ref)
}

// handleFinished runs off the session loop once per finished game.
func (s *SessionService) handleFinished(result domain.GameResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.results != nil {
		if err := s.results.SaveResult(ctx, result); err != nil {
			log.Printf("save game result %s: %v", result.SessionID, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSessionFinished(ctx, result); err != nil {
			log.Printf("publish session finished %s: %v", result.SessionID, err)
		}
	}
}
