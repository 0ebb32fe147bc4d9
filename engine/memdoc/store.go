package memdoc

import (
	"fmt"
	"sync"

	"github.com/jonwraymond/docselect/engine"
)

// Store holds named in-memory documents so that a session layer can open
// them by document reference.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Create adds a new empty document under name, replacing any existing one.
func (s *Store) Create(name string) *Document {
	doc := New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = doc
	return doc
}

// Put registers an already built document under name.
func (s *Store) Put(name string, doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = doc
}

// Factory implements engine.Factory: it resolves a document reference to
// the stored document.
func (s *Store) Factory(documentRef string) (engine.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[documentRef]
	if !ok {
		return nil, fmt.Errorf("%w: no document %q", engine.ErrAdapter, documentRef)
	}
	return doc, nil
}
