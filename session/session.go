package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/locator"
	"github.com/jonwraymond/docselect/selector"
)

// Session binds one open document to navigation state: a context tree
// derived from the document's headings, an active context node, and an
// optional active object.
//
// All operations are mutually atomic: resolution runs under the same lock
// that guards state changes, so a concurrent mutation cannot slip between
// resolving an element and recording it as the active object.
type Session struct {
	// ID uniquely identifies the session.
	ID string

	// DocumentRef is the reference the document was opened with.
	DocumentRef string

	mu     sync.Mutex
	closed bool
	eng    engine.Engine
	res    *selector.Resolver
	log    *zap.Logger

	root       *ContextNode
	active     *ContextNode
	activeSpec string
	treeBuilt  bool

	activeObject element.Ref
	hasObject    bool
}

func newSession(documentRef string, eng engine.Engine, log *zap.Logger) (*Session, error) {
	res, err := selector.New(selector.Config{Engine: eng, Logger: log})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          uuid.NewString(),
		DocumentRef: documentRef,
		eng:         eng,
		res:         res,
		log:         log,
	}, nil
}

// Engine returns the document engine the session is bound to.
func (s *Session) Engine() engine.Engine { return s.eng }

// close tears the session down. Subsequent operations fail with a
// [ContextError].
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.root = nil
	s.active = nil
	s.treeBuilt = false
	s.activeObject = element.Ref{}
	s.hasObject = false
}

func (s *Session) checkOpenLocked() error {
	if s.closed {
		return &ContextError{Message: "session is closed"}
	}
	return nil
}

// Select resolves a locator within the active context. An empty input
// substitutes the active object; a missing or stale active object is a
// [ContextError]. Anchored locators still resolve their anchors against
// the whole document.
func (s *Session) Select(ctx context.Context, input string, expectSingle bool) (*selector.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input) == "" {
		ref, err := s.activeObjectLocked(ctx)
		if err != nil {
			return nil, err
		}
		return selector.Single(s.eng, ref), nil
	}

	loc, err := locator.Parse(input)
	if err != nil {
		return nil, err
	}
	return s.selectLocked(ctx, loc, expectSingle)
}

// SelectLocator is Select for an already-parsed locator.
func (s *Session) SelectLocator(ctx context.Context, loc locator.Locator, expectSingle bool) (*selector.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return nil, err
	}
	return s.selectLocked(ctx, loc, expectSingle)
}

func (s *Session) selectLocked(ctx context.Context, loc locator.Locator, expectSingle bool) (*selector.Selection, error) {
	scope, err := s.scopeLocked(ctx)
	if err != nil {
		return nil, err
	}
	return s.res.SelectIn(ctx, loc, scope, expectSingle)
}

// scopeLocked returns the enumeration scope for the active context.
func (s *Session) scopeLocked(ctx context.Context) (engine.Scope, error) {
	if err := s.ensureTreeLocked(ctx); err != nil {
		return engine.Scope{}, err
	}
	if s.active == nil || s.active.Kind == NodeDocument {
		return engine.WholeDocument(), nil
	}
	return engine.Within(s.active.Span), nil
}

// SetActiveContext switches the active context node. Accepted specifiers:
//
//	"document"            the whole document (the default)
//	"selection"           the engine's current selection, when one exists
//	"table:N"             the N-th table
//	"bookmark:NAME"       the named bookmark
//	anything else         a section heading, matched case-insensitively
func (s *Session) SetActiveContext(ctx context.Context, spec string) (*ContextNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActiveContextLocked(ctx, spec)
}

func (s *Session) setActiveContextLocked(ctx context.Context, spec string) (*ContextNode, error) {
	if err := s.checkOpenLocked(); err != nil {
		return nil, err
	}
	if err := s.ensureTreeLocked(ctx); err != nil {
		return nil, err
	}
	spec = strings.TrimSpace(spec)

	var node *ContextNode
	var err error
	switch {
	case spec == "" || strings.EqualFold(spec, "document"):
		node = s.root
	case strings.EqualFold(spec, "selection"):
		node, err = s.selectionNodeLocked(ctx)
	case strings.HasPrefix(strings.ToLower(spec), "table:"):
		node, err = s.elementNodeLocked(ctx, spec, NodeTable)
	case strings.HasPrefix(strings.ToLower(spec), "bookmark:"):
		node, err = s.elementNodeLocked(ctx, spec, NodeBookmark)
	default:
		node, err = s.sectionNodeLocked(spec)
	}
	if err != nil {
		return nil, err
	}

	s.active = node
	s.activeSpec = spec
	node.UpdatedAt = time.Now()
	s.log.Debug("active context changed",
		zap.String("session", s.ID),
		zap.String("context", node.Title))
	return node, nil
}

// ActiveContext returns the current context node, defaulting to the
// document root.
func (s *Session) ActiveContext(ctx context.Context) (*ContextNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return nil, err
	}
	if err := s.ensureTreeLocked(ctx); err != nil {
		return nil, err
	}
	if s.active == nil {
		return s.root, nil
	}
	return s.active, nil
}

// Outline returns the root of the context tree.
func (s *Session) Outline(ctx context.Context) (*ContextNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return nil, err
	}
	if err := s.ensureTreeLocked(ctx); err != nil {
		return nil, err
	}
	return s.root, nil
}

// SetActiveObject resolves a locator to a single element within the active
// context and records it as the active object.
func (s *Session) SetActiveObject(ctx context.Context, input string) (element.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return element.Ref{}, err
	}

	loc, err := locator.Parse(input)
	if err != nil {
		return element.Ref{}, err
	}
	sel, err := s.selectLocked(ctx, loc, true)
	if err != nil {
		return element.Ref{}, err
	}
	s.activeObject = sel.First()
	s.hasObject = true
	return s.activeObject, nil
}

// ActiveObject returns the active object, verifying it still exists.
func (s *Session) ActiveObject(ctx context.Context) (element.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeObjectLocked(ctx)
}

// ClearActiveObject drops the active object, if any.
func (s *Session) ClearActiveObject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeObject = element.Ref{}
	s.hasObject = false
}

func (s *Session) activeObjectLocked(ctx context.Context) (element.Ref, error) {
	if err := s.checkOpenLocked(); err != nil {
		return element.Ref{}, err
	}
	if !s.hasObject {
		return element.Ref{}, &ContextError{Message: "no active object"}
	}
	if _, err := s.eng.Span(ctx, s.activeObject); err != nil {
		if errors.Is(err, engine.ErrStaleRef) {
			ref := s.activeObject
			s.activeObject = element.Ref{}
			s.hasObject = false
			return element.Ref{}, &ContextError{
				Message: fmt.Sprintf("active object %s no longer exists", ref),
			}
		}
		return element.Ref{}, err
	}
	return s.activeObject, nil
}

// Suggest builds a locator that re-resolves to ref.
func (s *Session) Suggest(ctx context.Context, ref element.Ref) (locator.Locator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return locator.Locator{}, err
	}
	return s.res.Suggest(ctx, ref)
}

// Apply runs a mutation through the engine and invalidates any context
// state the affected span touches.
func (s *Session) Apply(ctx context.Context, m engine.Mutation) (engine.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return engine.MutationResult{}, err
	}

	result, err := s.eng.Apply(ctx, m)
	if err != nil {
		return engine.MutationResult{}, err
	}
	if s.hasObject && !result.Removed.IsZero() && result.Removed == s.activeObject {
		s.activeObject = element.Ref{}
		s.hasObject = false
	}
	s.reportMutationLocked(result.AffectedSpan)
	return result, nil
}

// ReportMutation invalidates context state overlapping the given span.
// Callers that mutate the engine directly use this to keep the session
// consistent.
func (s *Session) ReportMutation(span element.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportMutationLocked(span)
}

func (s *Session) reportMutationLocked(span element.Span) {
	if !s.treeBuilt {
		return
	}
	// Deleting trailing content can collapse the affected span to a
	// zero-width point, which never overlaps anything. Widen it so the
	// nodes it sits inside still invalidate.
	if span.Len() == 0 {
		span.End = span.Start + 1
	}
	dirty := false
	s.root.Walk(func(n *ContextNode) {
		if span.Overlaps(n.Span) {
			dirty = true
		}
	})
	if s.active != nil && span.Overlaps(s.active.Span) {
		dirty = true
	}
	if dirty {
		s.treeBuilt = false
	}
}

// ensureTreeLocked builds the context tree from the document's headings,
// rebinding the active context by its specifier after a rebuild.
func (s *Session) ensureTreeLocked(ctx context.Context) error {
	if s.treeBuilt {
		return nil
	}

	docSpan, err := s.documentSpanLocked(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	root := &ContextNode{
		ID:        uuid.NewString(),
		Kind:      NodeDocument,
		Title:     s.DocumentRef,
		Span:      docSpan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	headings, err := s.eng.Enumerate(ctx, element.Heading, engine.WholeDocument())
	if err != nil {
		return err
	}
	var open []*ContextNode
	closeUntil := func(level int, start int) {
		for len(open) > 0 {
			top := open[len(open)-1]
			if top.Level < level {
				break
			}
			top.Span.End = start
			open = open[:len(open)-1]
		}
	}

	for _, h := range headings {
		span, err := s.eng.Span(ctx, h)
		if err != nil {
			return err
		}
		attrs, err := s.eng.Attributes(ctx, h)
		if err != nil {
			return err
		}
		title, err := s.eng.Text(ctx, h)
		if err != nil {
			return err
		}
		level := headingLevel(attrs.Style)

		closeUntil(level, span.Start)

		node := &ContextNode{
			ID:        uuid.NewString(),
			Kind:      NodeSection,
			Title:     strings.TrimSpace(title),
			Level:     level,
			Ref:       h,
			Span:      element.Span{Start: span.End, End: docSpan.End},
			CreatedAt: now,
			UpdatedAt: now,
		}
		parent := root
		if len(open) > 0 {
			parent = open[len(open)-1]
		}
		node.parent = parent
		parent.Children = append(parent.Children, node)
		open = append(open, node)
	}
	closeUntil(0, docSpan.End)

	s.root = root
	s.treeBuilt = true

	// Rebind the previously active context; fall back to the root when
	// its specifier no longer resolves.
	if s.activeSpec != "" && s.active != nil && s.active.Kind != NodeDocument {
		spec := s.activeSpec
		s.active = root
		if _, err := s.setActiveContextLocked(ctx, spec); err != nil {
			s.active = root
			s.activeSpec = ""
			s.log.Debug("active context lost after mutation",
				zap.String("session", s.ID),
				zap.String("spec", spec))
		}
	} else {
		s.active = root
	}
	return nil
}

func (s *Session) documentSpanLocked(ctx context.Context) (element.Span, error) {
	refs, err := s.eng.Enumerate(ctx, element.Document, engine.WholeDocument())
	if err != nil {
		return element.Span{}, err
	}
	if len(refs) == 0 {
		return element.Span{}, &ContextError{Message: "engine reports no document element"}
	}
	return s.eng.Span(ctx, refs[0])
}

// sectionNodeLocked finds the section whose title matches spec.
func (s *Session) sectionNodeLocked(spec string) (*ContextNode, error) {
	title := strings.TrimPrefix(spec, "heading:")
	title = strings.Trim(title, `"`)

	var matches []*ContextNode
	s.root.Walk(func(n *ContextNode) {
		if n.Kind == NodeSection && strings.EqualFold(n.Title, title) {
			matches = append(matches, n)
		}
	})
	switch len(matches) {
	case 0:
		return nil, &ContextError{
			Message: fmt.Sprintf("no section titled %q", title),
			Context: title,
		}
	case 1:
		return matches[0], nil
	}
	paths := make([]string, len(matches))
	for i, n := range matches {
		paths[i] = n.Path()
	}
	return nil, &ContextError{
		Message: fmt.Sprintf("%d sections titled %q: %s", len(matches), title, strings.Join(paths, "; ")),
		Context: title,
	}
}

// elementNodeLocked resolves a table:N or bookmark:NAME specifier into a
// context node spanning that element.
func (s *Session) elementNodeLocked(ctx context.Context, spec string, kind NodeKind) (*ContextNode, error) {
	loc, err := locator.Parse(spec)
	if err != nil {
		return nil, &ContextError{Message: fmt.Sprintf("bad context specifier %q: %v", spec, err)}
	}
	sel, err := s.res.Select(ctx, loc, true)
	if err != nil {
		if errors.Is(err, selector.ErrNotFound) || errors.Is(err, selector.ErrAmbiguous) {
			return nil, &ContextError{Message: fmt.Sprintf("context specifier %q: %v", spec, err)}
		}
		return nil, err
	}
	ref := sel.First()
	span, err := s.eng.Span(ctx, ref)
	if err != nil {
		return nil, err
	}
	// Bookmarks are zero-width points; scope the context to the element
	// that hosts the bookmark so the context can contain something.
	if kind == NodeBookmark && span.Len() == 0 {
		parent, ok, err := s.eng.Parent(ctx, ref)
		if err != nil {
			return nil, err
		}
		if ok {
			span, err = s.eng.Span(ctx, parent)
			if err != nil {
				return nil, err
			}
		}
	}
	now := time.Now()
	node := &ContextNode{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     spec,
		Ref:       ref,
		Span:      span,
		CreatedAt: now,
		UpdatedAt: now,
		parent:    s.root,
	}
	return node, nil
}

// selectionNodeLocked builds a context node from the engine's current
// selection pseudo-element.
func (s *Session) selectionNodeLocked(ctx context.Context) (*ContextNode, error) {
	refs, err := s.eng.Enumerate(ctx, element.Selection, engine.WholeDocument())
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, &ContextError{Message: "document has no selection"}
	}
	span, err := s.eng.Span(ctx, refs[0])
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &ContextNode{
		ID:        uuid.NewString(),
		Kind:      NodeSelection,
		Title:     "selection",
		Ref:       refs[0],
		Span:      span,
		CreatedAt: now,
		UpdatedAt: now,
		parent:    s.root,
	}, nil
}

// headingLevel extracts N from a "Heading N" style; unknown styles rank as
// level 1.
func headingLevel(style string) int {
	rest := strings.TrimPrefix(style, "Heading ")
	if rest == style {
		return 1
	}
	level, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || level < 1 {
		return 1
	}
	return level
}
