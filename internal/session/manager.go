package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Aadesh-Ghodke/splitsmart/internal/llm"
)

// ErrSessionNotFound: the requested session does not exist (or was reset).
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live session registry. Sessions are fully independent
// of each other and held in memory for their lifetime only; there is no
// cross-restart persistence.
type Manager struct {
	llm llm.Client

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry whose sessions use the given
// inference client.
func NewManager(client llm.Client) *Manager {
	return &Manager{
		llm:      client,
		sessions: make(map[string]*Session),
	}
}

// Create registers and returns a new empty session.
func (m *Manager) Create() *Session {
	s := New(uuid.New().String(), m.llm)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
