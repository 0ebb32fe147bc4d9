package selector

import (
	"context"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
)

// Selection is an ordered, non-empty set of resolved element references.
// Selections are produced only by [Resolver.Select]; a query that matches
// nothing returns a [NotFoundError] instead of an empty selection.
//
// A selection is a snapshot of identities, not positions: the references
// stay valid across mutations as long as the underlying elements survive,
// while spans and text must be re-read through the accessor methods.
type Selection struct {
	refs   []element.Ref
	eng    engine.Engine
	window *element.Span
}

// Single wraps an already-resolved reference as a one-element selection.
// Callers that track an element across calls use this to re-enter the
// selection API without re-resolving a locator.
func Single(eng engine.Engine, ref element.Ref) *Selection {
	return &Selection{refs: []element.Ref{ref}, eng: eng}
}

// Len returns the number of matched elements.
func (s *Selection) Len() int { return len(s.refs) }

// Refs returns the matched references in document order.
// The returned slice is owned by the selection and must not be modified.
func (s *Selection) Refs() []element.Ref { return s.refs }

// First returns the first matched reference.
func (s *Selection) First() element.Ref { return s.refs[0] }

// At returns the i-th matched reference.
func (s *Selection) At(i int) element.Ref { return s.refs[i] }

// Window returns the character sub-range requested via range_start and
// range_end filters, or false when the query carried none.
func (s *Selection) Window() (element.Span, bool) {
	if s.window == nil {
		return element.Span{}, false
	}
	return *s.window, true
}

// Text returns the plain-text projection of the i-th matched element.
// When the selection carries a window, the projection is sliced to it.
func (s *Selection) Text(ctx context.Context, i int) (string, error) {
	text, err := s.eng.Text(ctx, s.refs[i])
	if err != nil {
		return "", err
	}
	if s.window == nil {
		return text, nil
	}
	start, end := s.window.Start, s.window.End
	if start > len(text) {
		return "", nil
	}
	if end > len(text) {
		end = len(text)
	}
	return text[start:end], nil
}

// Span returns the current character span of the i-th matched element.
func (s *Selection) Span(ctx context.Context, i int) (element.Span, error) {
	return s.eng.Span(ctx, s.refs[i])
}
