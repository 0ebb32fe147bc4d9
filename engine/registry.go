package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors.
var (
	ErrEngineNotFound = errors.New("engine not found")
	ErrEngineExists   = errors.New("engine already registered")
)

// Factory creates an engine instance for a named document. The documentRef
// is an engine-specific reference such as a file path.
type Factory func(documentRef string) (Engine, error)

// Registry manages engine factories by kind. It lets embedders plug in
// host engines (in-memory, COM bridge, remote) without the core knowing
// concrete types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for a kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("engine kind is required")
	}
	if factory == nil {
		return fmt.Errorf("engine factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", ErrEngineExists, kind)
	}
	r.factories[kind] = factory
	return nil
}

// Open creates an engine of the given kind for documentRef.
func (r *Registry) Open(kind, documentRef string) (Engine, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotFound, kind)
	}
	return factory(documentRef)
}

// Kinds returns registered engine kinds sorted for deterministic output.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}
