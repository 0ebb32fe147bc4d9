package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/engine"
)

// Config controls how a [Manager] is constructed.
type Config struct {
	// Registry resolves engine kinds to document engines. Required.
	Registry *engine.Registry

	// Logger receives session lifecycle events. Defaults to a no-op
	// logger.
	Logger *zap.Logger
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Registry == nil {
		return fmt.Errorf("session: Registry is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Manager owns the live sessions of a server process. Each session is
// created by opening a document through the engine registry and is
// addressed by its generated ID.
type Manager struct {
	mu       sync.RWMutex
	reg      *engine.Registry
	log      *zap.Logger
	sessions map[string]*Session
}

// NewManager constructs a Manager from the given configuration.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Manager{
		reg:      cfg.Registry,
		log:      cfg.Logger,
		sessions: make(map[string]*Session),
	}, nil
}

// Open creates a session over the document identified by documentRef,
// using the named engine kind.
func (m *Manager) Open(ctx context.Context, engineKind, documentRef string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eng, err := m.reg.Open(engineKind, documentRef)
	if err != nil {
		return nil, err
	}
	s, err := newSession(documentRef, eng, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info("session opened",
		zap.String("session", s.ID),
		zap.String("engine", engineKind),
		zap.String("document", documentRef))
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return s, nil
}

// Close tears down the session with the given ID. Operations on a
// retained *Session fail with a [ContextError] afterwards.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	s.close()
	delete(m.sessions, id)
	m.log.Info("session closed", zap.String("session", id))
	return nil
}

// IDs returns the IDs of all live sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
