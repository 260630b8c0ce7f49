package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// SessionFactory builds the chat session for a freshly mounted view.
type SessionFactory func(id string) *ChatSession

// SessionManager keeps one ChatSession per mounted chat view. A view mounts
// with Open and unmounts with Close; sessions nobody touched for the idle
// timeout are closed by Run.
type SessionManager struct {
	factory     SessionFactory
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*ChatSession
}

func NewSessionManager(factory SessionFactory, idleTimeout time.Duration) *SessionManager {
	return &SessionManager{
		factory:     factory,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*ChatSession),
	}
}

// Open creates a session seeded with the greeting.
func (m *SessionManager) Open() *ChatSession {
	id := uuid.NewString()
	s := m.factory(id)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	log.With(zap.String("session_id", s.ID())).Info("Chat session opened")
	return s
}

func (m *SessionManager) Get(id string) (*ChatSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.Close()
	log.With(zap.String("session_id", id)).Info("Chat session closed")
	return nil
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes every session without a pending reply that has been idle
// since before now minus the idle timeout, and returns how many it closed.
func (m *SessionManager) Reap(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleTimeout)

	var expired []*ChatSession
	m.mu.Lock()
	for id, s := range m.sessions {
		if !s.Busy() && s.IdleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		log.With(zap.Int("count", len(expired))).Info("Expired idle chat sessions")
	}
	return len(expired)
}

// Run reaps idle sessions until ctx is done, then closes whatever is left.
func (m *SessionManager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.Reap(now)
		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

func (m *SessionManager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*ChatSession)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
