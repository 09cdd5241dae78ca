package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"livequiz-service/internal/domain"
)

// Registry is the directory of live sessions. It is the only piece of state
// shared across sessions, so every operation is a single short critical
// section; all real work happens inside the sessions themselves.
type Registry struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session
	pins     map[string]string // pin -> session id
	rnd      *rand.Rand
}

// NewRegistry creates an empty session directory.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		pins:     make(map[string]string),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create starts a new session for the quiz and registers it under a fresh id
// and join pin. The session is removed from the directory once it has shut
// down (finished plus grace period).
func (r *Registry) Create(quiz domain.Quiz, onFinished func(domain.GameResult)) *Session {
	r.mu.Lock()
	pin := r.newPinLocked()
	session := NewSession(quiz, pin, r.cfg, onFinished)
	r.sessions[session.ID()] = session
	r.pins[pin] = session.ID()
	r.mu.Unlock()

	go func() {
		<-session.Done()
		r.remove(session.ID(), pin)
	}()
	return session
}

// Get looks a session up by id.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

// GetByPin looks a session up by its join pin.
func (r *Registry) GetByPin(pin string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pins[pin]
	if !ok {
		return nil, false
	}
	session, ok := r.sessions[id]
	return session, ok
}

// Len reports how many sessions are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) remove(sessionID, pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	delete(r.pins, pin)
}

// newPinLocked generates a 6-digit join code not currently in use.
func (r *Registry) newPinLocked() string {
	for {
		pin := fmt.Sprintf("%06d", r.rnd.Intn(1000000))
		if _, taken := r.pins[pin]; !taken {
			return pin
		}
	}
}
