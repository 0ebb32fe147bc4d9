package locator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonwraymond/docselect/element"
)

// Spec is the structured wire form of a locator:
//
//	{type, value?, filters?: [{name: val}], anchor?: {...}, relation?: {type: name}}
//
// It exists for JSON tool calls; Compile converts it into a normalized
// Locator with the same syntax checks as Parse.
type Spec struct {
	Type     string           `json:"type"`
	Value    any              `json:"value,omitempty"`
	Filters  []map[string]any `json:"filters,omitempty"`
	Anchor   *Spec            `json:"anchor,omitempty"`
	Relation *RelationSpec    `json:"relation,omitempty"`
}

// RelationSpec is the wire form of a relation.
type RelationSpec struct {
	Type string `json:"type"`
}

// Compile converts the structured form into a Locator, failing with
// ErrSyntax on structural violations (unknown kind or filter, anchor and
// relation not paired, a filter that is not a single-key mapping).
func (s *Spec) Compile() (Locator, error) {
	if s == nil {
		return Locator{}, &SyntaxError{Message: "locator cannot be empty"}
	}
	target, err := s.compileTarget()
	if err != nil {
		return Locator{}, err
	}

	loc := Locator{Target: target}
	switch {
	case s.Anchor != nil && s.Relation == nil:
		return Locator{}, &SyntaxError{Message: "anchor requires a relation"}
	case s.Anchor == nil && s.Relation != nil:
		return Locator{}, &SyntaxError{Message: "relation requires an anchor"}
	case s.Anchor != nil:
		if s.Anchor.Anchor != nil {
			return Locator{}, &SyntaxError{Message: "anchor locators cannot be nested"}
		}
		anchor, err := s.Anchor.compileTarget()
		if err != nil {
			return Locator{}, err
		}
		relation, err := ParseRelation(s.Relation.Type)
		if err != nil {
			return Locator{}, err
		}
		loc.Anchor = &anchor
		loc.Relation = relation
	}
	return loc, nil
}

func (s *Spec) compileTarget() (TargetSpec, error) {
	if strings.TrimSpace(s.Type) == "" {
		return TargetSpec{}, &SyntaxError{Message: "locator must specify an element kind"}
	}
	kind, err := element.ParseKind(s.Type)
	if err != nil {
		return TargetSpec{}, &SyntaxError{Message: err.Error()}
	}

	spec := TargetSpec{Kind: kind, Value: normalizeValue(s.Value)}
	for i, raw := range s.Filters {
		if len(raw) != 1 {
			return TargetSpec{}, &SyntaxError{
				Message: fmt.Sprintf("filter at index %d must be a single-key mapping", i),
			}
		}
		for name, value := range raw {
			fn := FilterName(name)
			if !fn.Known() {
				return TargetSpec{}, &SyntaxError{
					Message: fmt.Sprintf("unknown filter %q at index %d", name, i),
				}
			}
			spec.Filters = append(spec.Filters, Filter{Name: fn, Value: normalizeValue(value)})
		}
	}
	return spec, nil
}

// normalizeValue collapses JSON number decoding (float64, json.Number)
// into int where the value is integral.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		return n.String()
	case int64:
		return int(n)
	default:
		return v
	}
}
