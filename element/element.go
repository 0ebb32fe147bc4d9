package element

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a kind name does not match any known
// element kind.
var ErrUnknownKind = errors.New("unknown element kind")

// Kind identifies a category of document element that a locator can target.
// The set is closed: locators naming anything else are rejected at parse
// time.
type Kind string

// The element kinds understood by the resolution engine.
const (
	Paragraph     Kind = "paragraph"
	Table         Kind = "table"
	Cell          Kind = "cell"
	Heading       Kind = "heading"
	Image         Kind = "image"
	InlineShape   Kind = "inline_shape"
	Run           Kind = "run"
	Comment       Kind = "comment"
	Bookmark      Kind = "bookmark"
	Range         Kind = "range"
	Document      Kind = "document"
	DocumentStart Kind = "document_start"
	DocumentEnd   Kind = "document_end"
	Selection     Kind = "selection"
)

var allKinds = []Kind{
	Paragraph, Table, Cell, Heading, Image, InlineShape, Run,
	Comment, Bookmark, Range, Document, DocumentStart, DocumentEnd,
	Selection,
}

// ParseKind converts a kind name to a Kind. Names are matched
// case-insensitively, with hyphens treated as underscores.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, k := range allKinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Valid reports whether k is one of the known element kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Positional reports whether k names a document position rather than a
// content element. Positional kinds carry no value or filters.
func (k Kind) Positional() bool {
	return k == DocumentStart || k == DocumentEnd
}

// RequiresQualifier reports whether a bare-typed query on k is rejected.
// Paragraphs and tables are typically numerous enough that an unqualified
// locator cannot select deterministically.
func (k Kind) RequiresQualifier() bool {
	return k == Paragraph || k == Table
}

// Kinds returns the full closed set of element kinds in a fixed order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}
