package locator

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/docselect/element"
)

// Relation is a positional relationship between an anchor and the target
// candidates.
type Relation string

// The relations understood by the relation resolver.
const (
	AllOccurrencesWithin Relation = "all_occurrences_within"
	FirstOccurrenceAfter Relation = "first_occurrence_after"
	ParentOf             Relation = "parent_of"
	ImmediatelyFollowing Relation = "immediately_following"
	ImmediatelyPreceding Relation = "immediately_preceding"
)

var allRelations = []Relation{
	AllOccurrencesWithin, FirstOccurrenceAfter, ParentOf,
	ImmediatelyFollowing, ImmediatelyPreceding,
}

// ParseRelation converts a relation name to a Relation.
func ParseRelation(name string) (Relation, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, r := range allRelations {
		if string(r) == normalized {
			return r, nil
		}
	}
	return "", &SyntaxError{Message: fmt.Sprintf("invalid relation %q", name)}
}

// FilterName identifies a typed predicate.
type FilterName string

// The filter predicates understood by the filter engine.
const (
	ContainsText     FilterName = "contains_text"
	TextMatchesRegex FilterName = "text_matches_regex"
	Style            FilterName = "style"
	IsBold           FilterName = "is_bold"
	IsListItem       FilterName = "is_list_item"
	IndexInParent    FilterName = "index_in_parent"
	RowIndex         FilterName = "row_index"
	ColumnIndex      FilterName = "column_index"
	TableIndex       FilterName = "table_index"
	RangeStart       FilterName = "range_start"
	RangeEnd         FilterName = "range_end"
	ShapeType        FilterName = "shape_type"
)

// filterKinds maps each filter name to its expected value type.
var filterKinds = map[FilterName]valueKind{
	ContainsText:     stringValue,
	TextMatchesRegex: stringValue,
	Style:            stringValue,
	ShapeType:        stringValue,
	IsBold:           boolValue,
	IsListItem:       boolValue,
	IndexInParent:    intValue,
	RowIndex:         intValue,
	ColumnIndex:      intValue,
	TableIndex:       intValue,
	RangeStart:       intValue,
	RangeEnd:         intValue,
}

type valueKind int

const (
	stringValue valueKind = iota
	boolValue
	intValue
)

// Known reports whether name is a recognized filter.
func (n FilterName) Known() bool {
	_, ok := filterKinds[n]
	return ok
}

// Filter is a single-key typed predicate. Value is a string, bool, or int
// depending on the filter name; the filter engine rejects mismatches with
// ErrValidation.
type Filter struct {
	Name  FilterName
	Value any
}

// String returns the compact name=value form.
func (f Filter) String() string {
	return fmt.Sprintf("%s=%v", f.Name, f.Value)
}

// CheckType validates that the filter's value matches its declared type.
func (f Filter) CheckType() error {
	kind, ok := filterKinds[f.Name]
	if !ok {
		return &SyntaxError{Message: fmt.Sprintf("unknown filter %q", f.Name)}
	}
	switch kind {
	case stringValue:
		if _, ok := f.Value.(string); !ok {
			return &ValidationError{
				Field: string(f.Name), Value: f.Value,
				Message: fmt.Sprintf("expects a string, got %T", f.Value),
			}
		}
	case boolValue:
		if _, ok := f.Value.(bool); !ok {
			return &ValidationError{
				Field: string(f.Name), Value: f.Value,
				Message: fmt.Sprintf("expects a boolean, got %T", f.Value),
			}
		}
	case intValue:
		n, ok := f.Value.(int)
		if !ok {
			return &ValidationError{
				Field: string(f.Name), Value: f.Value,
				Message: fmt.Sprintf("expects an integer, got %T", f.Value),
			}
		}
		if n < 0 {
			return &ValidationError{
				Field: string(f.Name), Value: f.Value,
				Message: "must be >= 0",
			}
		}
	}
	return nil
}

// TargetSpec describes one side of a locator: the kind of element sought,
// an optional value (integer index or text shorthand), and an AND-chain
// of filters.
type TargetSpec struct {
	Kind    element.Kind
	Value   any // nil, int, or string
	Filters []Filter
}

// IntValue returns the value as a 0-based index, if it is an integer.
func (t TargetSpec) IntValue() (int, bool) {
	n, ok := t.Value.(int)
	return n, ok
}

// StringValue returns the value as text shorthand, if it is a non-empty
// string.
func (t TargetSpec) StringValue() (string, bool) {
	s, ok := t.Value.(string)
	return s, ok && s != ""
}

// Qualified reports whether the spec carries a value or at least one
// filter.
func (t TargetSpec) Qualified() bool {
	if _, ok := t.IntValue(); ok {
		return true
	}
	if _, ok := t.StringValue(); ok {
		return true
	}
	return len(t.Filters) > 0
}

// FindFilter returns the first filter with the given name.
func (t TargetSpec) FindFilter(name FilterName) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Locator is a declarative query selecting document element(s). A locator
// is immutable once parsed; all methods are read-only.
type Locator struct {
	Target   TargetSpec
	Anchor   *TargetSpec
	Relation Relation
}

// Deterministic reports whether the locator can match at most one element
// by construction: an integer-valued target or a positional kind. Such
// locators default to single-match expectation.
func (l Locator) Deterministic() bool {
	if l.Target.Kind.Positional() || l.Target.Kind == element.Document {
		return true
	}
	_, ok := l.Target.IntValue()
	return ok
}

// String renders the locator in the compact string grammar. Parsing the
// result yields an equal locator.
func (l Locator) String() string {
	var sb strings.Builder
	sb.WriteString(targetString(l.Target))
	if l.Anchor != nil {
		sb.WriteByte('@')
		sb.WriteString(targetString(*l.Anchor))
		fmt.Fprintf(&sb, "[relation=%s]", l.Relation)
	}
	return sb.String()
}

func targetString(t TargetSpec) string {
	var sb strings.Builder
	sb.WriteString(string(t.Kind))
	if t.Value != nil {
		fmt.Fprintf(&sb, ":%v", t.Value)
	}
	for _, f := range t.Filters {
		fmt.Fprintf(&sb, "[%s]", f)
	}
	return sb.String()
}
