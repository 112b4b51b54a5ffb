package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"fairytale-chat/internal/knowledge"
	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/logic"
	"fairytale-chat/internal/order"
	"fairytale-chat/internal/persona"
	"fairytale-chat/internal/store"
)

// DefaultSwitchDelay is the pause between announcing and applying a persona switch
const DefaultSwitchDelay = 600 * time.Millisecond

// ErrNotFound is returned for an unknown session id
var ErrNotFound = errors.New("session not found")

// Backend persists session ids and their values. *db.DB satisfies it.
type Backend interface {
	store.Backend
	CreateSession(id string) error
	SessionExists(id string) (bool, error)
	DeleteSession(id string) error
}

// Deps are the collaborators shared by every session
type Deps struct {
	Registry    *persona.Registry
	Injector    *knowledge.Injector
	Relay       Completer
	Backend     Backend
	Publisher   Publisher
	SwitchDelay time.Duration
}

// Manager creates sessions and keeps live ones in memory
type Manager struct {
	deps     Deps
	compiler *order.Compiler
	log      *log.Logger

	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	lastSeen map[string]time.Time
}

// NewManager creates a session manager
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		compiler: order.NewCompiler(deps.Relay),
		log:      logger.With("Session"),
		now:      time.Now,
		sessions: make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
	}
}

// Create starts a new session with personaID, or the default persona when empty
func (m *Manager) Create(personaID string) (*Session, error) {
	if personaID == "" {
		personaID = m.deps.Registry.DefaultID()
	}
	p, err := m.deps.Registry.Get(personaID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := m.deps.Backend.CreateSession(id); err != nil {
		m.log.Error("Create failed", "err", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s := m.newSession(id)
	s.mu.Lock()
	s.persona = p
	s.builder = order.DefaultBuilder()
	s.sentiment = logic.SentimentNeutral
	s.state = StateIdle
	s.resetLocked()
	s.persistLocked(store.KeyPersona, store.KeyCustomPrompt, store.KeyFlavors, store.KeyQty,
		store.KeyMilk, store.KeyTimeline, store.KeySentiment, store.KeyMessages)
	s.mu.Unlock()

	m.mu.Lock()
	m.sessions[id] = s
	m.lastSeen[id] = m.now()
	m.mu.Unlock()

	m.log.Info("Session created", "session_id", id, "persona", p.ID)
	return s, nil
}

// Get returns a live session, restoring it from storage when needed
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.lastSeen[id] = m.now()
		return s, nil
	}

	exists, err := m.deps.Backend.SessionExists(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	s := m.newSession(id)
	s.mu.Lock()
	s.restoreLocked()
	s.mu.Unlock()
	m.sessions[id] = s
	m.lastSeen[id] = m.now()

	m.log.Info("Session restored", "session_id", id, "persona", s.persona.ID, "message_count", len(s.messages))
	return s, nil
}

// Delete removes a session from memory and storage. A session awaiting a
// reply or a persona switch is not deleted and ErrBusy is returned.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.mu.Lock()
		if s.busyLocked() {
			s.mu.Unlock()
			return ErrBusy
		}
		s.deleted = true
		s.mu.Unlock()
	} else {
		exists, err := m.deps.Backend.SessionExists(id)
		if err != nil {
			return fmt.Errorf("failed to look up session: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}

	delete(m.sessions, id)
	delete(m.lastSeen, id)
	if err := m.deps.Backend.DeleteSession(id); err != nil {
		m.log.Error("Delete failed", "session_id", id, "err", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	m.log.Info("Session deleted", "session_id", id)
	return nil
}

// EvictIdle drops sessions not used within ttl from memory. They stay
// persisted and are restored by the next Get. Sessions awaiting a reply or a
// persona switch are kept.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	evicted := 0
	for id, s := range m.sessions {
		if m.lastSeen[id].After(cutoff) || s.busy() {
			continue
		}
		delete(m.sessions, id)
		delete(m.lastSeen, id)
		evicted++
	}
	if evicted > 0 {
		m.log.Info("Idle sessions evicted", "count", evicted, "live", len(m.sessions))
	}
	return evicted
}

// LiveCount returns the number of sessions held in memory
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) newSession(id string) *Session {
	return &Session{
		id:          id,
		registry:    m.deps.Registry,
		injector:    m.deps.Injector,
		relay:       m.deps.Relay,
		compiler:    m.compiler,
		store:       store.New(m.deps.Backend, id),
		publisher:   m.deps.Publisher,
		switchDelay: m.deps.SwitchDelay,
		now:         time.Now,
		log:         m.log,
	}
}
