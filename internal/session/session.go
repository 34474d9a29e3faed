// Package session keeps per-session conversation state: a bounded FIFO of
// prior exchanges that gives the tool-calling loop multi-turn memory.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by operations that require an existing
// session. The query path never returns it: an unknown session id there
// simply starts a new session.
var ErrSessionNotFound = errors.New("session not found")

// Exchange is one completed user/assistant turn.
type Exchange struct {
	UserText      string
	AssistantText string
}

// Session is one conversation's bounded history. History holds at most max
// exchanges; the oldest is dropped first. No relevance-based pruning.
type Session struct {
	id  uuid.UUID
	max int

	// queryMu serializes whole queries on this session, so concurrent
	// requests with the same session id cannot interleave history writes.
	// Queries on different sessions run independently.
	queryMu sync.Mutex

	mu      sync.RWMutex
	history []Exchange
}

// ID returns the session's identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Acquire blocks until this session has no query in flight. Callers must
// pair it with Release.
func (s *Session) Acquire() { s.queryMu.Lock() }

// Release ends the current query's exclusive hold on the session.
func (s *Session) Release() { s.queryMu.Unlock() }

// Append records a completed exchange, evicting the oldest once the bound
// is exceeded.
func (s *Session) Append(e Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, e)
	if len(s.history) > s.max {
		s.history = s.history[len(s.history)-s.max:]
	}
}

// History returns a copy of the recorded exchanges, oldest first.
func (s *Session) History() []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Exchange(nil), s.history...)
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Manager owns the session table. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	max      int
	logger   *slog.Logger
}

// NewManager creates a manager whose sessions keep at most maxExchanges
// exchanges each.
func NewManager(maxExchanges int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		max:      maxExchanges,
		logger:   logger,
	}
}

// Create starts a new session with a fresh id.
func (m *Manager) Create() *Session {
	s := &Session{id: uuid.New(), max: m.max}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", s.id)
	return s
}

// Get returns an existing session or ErrSessionNotFound.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session with the given id, or a new session when
// id is zero or unknown. Follow-ups with a stale id start over rather than
// failing.
func (m *Manager) GetOrCreate(id uuid.UUID) *Session {
	if id != uuid.Nil {
		if s, err := m.Get(id); err == nil {
			return s
		}
		m.logger.Debug("unknown session id, starting new session", "session_id", id)
	}
	return m.Create()
}

// Clear empties a session's history, keeping the session itself.
func (m *Manager) Clear(id uuid.UUID) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.clear()
	return nil
}

// Delete removes a session entirely. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
