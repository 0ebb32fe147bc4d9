package engine

import (
	"context"

	"github.com/jonwraymond/docselect/element"
)

// Scope restricts an enumeration to a region of the document. The zero
// value means the whole document.
type Scope struct {
	// Span bounds the enumeration when Bounded is true.
	Span element.Span

	// Bounded indicates whether Span is in effect.
	Bounded bool
}

// WholeDocument returns the unbounded scope.
func WholeDocument() Scope {
	return Scope{}
}

// Within returns a scope bounded by span.
func Within(span element.Span) Scope {
	return Scope{Span: span, Bounded: true}
}

// Engine is the capability interface to the host document engine. The
// resolution core depends only on this contract, never on concrete host
// types.
//
// Contract:
// - Ordering: Enumerate returns elements in document order.
// - Identity: Refs are stable across edits until the element is deleted.
// - Context: methods must honor cancellation/deadlines.
// - Errors: failures are reported as *AdapterError wrapping ErrAdapter;
//   a ref that no longer resolves reports ErrStaleRef.
type Engine interface {
	// Enumerate lists live elements of the given kind within scope,
	// in document order.
	Enumerate(ctx context.Context, kind element.Kind, scope Scope) ([]element.Ref, error)

	// Parent returns the structural parent of ref. The document root has
	// no parent; ok is false in that case.
	Parent(ctx context.Context, ref element.Ref) (element.Ref, bool, error)

	// Children returns the direct structural children of ref in document
	// order.
	Children(ctx context.Context, ref element.Ref) ([]element.Ref, error)

	// Text returns the plain-text projection of ref.
	Text(ctx context.Context, ref element.Ref) (string, error)

	// Span returns the current character span of ref. Spans are re-derived
	// on every call; callers must not cache them across mutations.
	Span(ctx context.Context, ref element.Ref) (element.Span, error)

	// Attributes returns the formatting and structural attributes of ref.
	Attributes(ctx context.Context, ref element.Ref) (element.Attributes, error)

	// Apply executes a mutation primitive against target. The result
	// carries the affected span so callers can invalidate overlapping
	// caches.
	Apply(ctx context.Context, m Mutation) (MutationResult, error)
}

// Mutation is a single atomic edit primitive.
type Mutation struct {
	// Primitive names the edit operation.
	Primitive Primitive `json:"primitive"`

	// Target is the element the edit applies to.
	Target element.Ref `json:"target"`

	// Args carries primitive-specific arguments (e.g. "text", "position").
	Args map[string]any `json:"args,omitempty"`
}

// Primitive identifies a mutation operation the host engine can execute.
type Primitive string

// Mutation primitives.
const (
	InsertTextAfter  Primitive = "insert_text_after"
	InsertTextBefore Primitive = "insert_text_before"
	ReplaceText      Primitive = "replace_text"
	DeleteElement    Primitive = "delete_element"
	SetCellText      Primitive = "set_cell_text"
)

// MutationResult reports the outcome of a mutation primitive.
type MutationResult struct {
	// AffectedSpan is the region of the document the edit touched,
	// measured after the edit. Context caches overlapping this span must
	// be invalidated.
	AffectedSpan element.Span `json:"affectedSpan"`

	// Inserted is the ref of a newly created element, if the primitive
	// created one.
	Inserted element.Ref `json:"inserted,omitempty"`

	// Removed is the ref of a deleted element, if the primitive removed
	// one.
	Removed element.Ref `json:"removed,omitempty"`
}
