package conversation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/persona"
)

// Observer receives every snapshot of every live session.
type Observer func(sessionID string, st State)

// Manager keeps the live sessions of the process. Nothing is persisted: a
// session disappears when it is ended or the process exits.
type Manager struct {
	ai       aiClient
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(ai aiClient, timeout time.Duration, logger *slog.Logger, observer Observer) *Manager {
	return &Manager{
		ai:       ai,
		timeout:  timeout,
		logger:   logger.With("module", "conversation"),
		observer: observer,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Start(image *domain.Image, p persona.Persona) *Session {
	id := uuid.NewString()

	var onChange func(State)
	if m.observer != nil {
		onChange = func(st State) { m.observer(id, st) }
	}

	s := NewSession(id, image, p, m.ai, m.timeout, m.logger, onChange)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("conversation started", "session_id", id, "persona", p.ID, "has_image", !image.Empty())
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End closes and forgets the session. It reports whether the session existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	m.logger.Info("conversation ended", "session_id", id)
	return true
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
