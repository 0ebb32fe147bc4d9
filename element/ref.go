package element

import "fmt"

// Ref is a stable handle to a live document element. The ID survives
// document edits; positions do not and must be re-derived from the engine
// on demand.
type Ref struct {
	// ID is the engine-assigned stable identity of the element.
	ID string `json:"id"`

	// Kind is the element's kind.
	Kind Kind `json:"kind"`
}

// IsZero reports whether the ref is the zero value.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Kind == ""
}

// String returns a compact kind/id form for logs and error details.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Span is a half-open character interval [Start, End) in the document's
// plain-text projection.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether s and other share at least one position.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Len returns the span length in characters.
func (s Span) Len() int {
	return s.End - s.Start
}

// Attributes carries the formatting and structural attributes the filter
// engine reads. Structural coordinates are only meaningful for cells;
// ShapeType only for inline shapes.
type Attributes struct {
	Style       string `json:"style,omitempty"`
	IsBold      bool   `json:"isBold,omitempty"`
	IsListItem  bool   `json:"isListItem,omitempty"`
	ShapeType   string `json:"shapeType,omitempty"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	TableIndex  int    `json:"tableIndex"`
}
