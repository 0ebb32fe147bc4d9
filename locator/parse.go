package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonwraymond/docselect/element"
)

// Parse converts the compact string grammar
//
//	type[:value][name=val]...[@anchor_locator[relation=name]]
//
// into a normalized Locator. It fails with ErrSyntax on any structural
// violation: unknown kind, unknown filter name, unbalanced brackets, an
// anchor without a relation, or a relation without an anchor.
func Parse(input string) (Locator, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Locator{}, &SyntaxError{Message: "locator cannot be empty", Input: input}
	}

	targetPart, anchorPart, hasAnchor, err := splitAnchor(trimmed)
	if err != nil {
		return Locator{}, err
	}

	target, stray, err := parseTarget(targetPart)
	if err != nil {
		return Locator{}, err
	}
	if stray != "" {
		return Locator{}, &SyntaxError{
			Message: fmt.Sprintf("unexpected %q in target", stray), Input: input,
		}
	}
	if _, ok := target.FindFilter("relation"); ok {
		return Locator{}, &SyntaxError{
			Message: "relation requires an anchor", Input: input,
		}
	}

	loc := Locator{Target: target}
	if hasAnchor {
		anchor, relation, err := parseAnchor(anchorPart)
		if err != nil {
			return Locator{}, err
		}
		loc.Anchor = &anchor
		loc.Relation = relation
	}
	return loc, nil
}

// splitAnchor splits on the first '@' that sits outside brackets.
func splitAnchor(s string) (target, anchor string, found bool, err error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return "", "", false, &SyntaxError{Message: "unbalanced ']'", Input: s}
			}
		case '@':
			if depth == 0 {
				return s[:i], s[i+1:], true, nil
			}
		}
	}
	if depth != 0 {
		return "", "", false, &SyntaxError{Message: "unbalanced '['", Input: s}
	}
	return s, "", false, nil
}

// parseTarget parses `type[:value][name=val]*`. A filter named "relation"
// is allowed through here and pulled out by parseAnchor; Parse rejects it
// on the target side. stray reports text found between or after filter
// segments.
func parseTarget(s string) (TargetSpec, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TargetSpec{}, "", &SyntaxError{Message: "locator must specify an element kind"}
	}

	main := s
	var segments []string
	if i := strings.IndexByte(s, '['); i >= 0 {
		main = s[:i]
		rest := s[i:]
		for rest != "" {
			if rest[0] != '[' {
				return TargetSpec{}, rest, nil
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return TargetSpec{}, "", &SyntaxError{Message: "unbalanced '['", Input: s}
			}
			segments = append(segments, rest[1:end])
			rest = rest[end+1:]
		}
	}

	kindName, rawValue, hasValue := strings.Cut(strings.TrimSpace(main), ":")
	kind, err := element.ParseKind(kindName)
	if err != nil {
		return TargetSpec{}, "", &SyntaxError{Message: err.Error(), Input: s}
	}

	spec := TargetSpec{Kind: kind}
	if hasValue {
		value := strings.TrimSpace(rawValue)
		if value == "" {
			return TargetSpec{}, "", &SyntaxError{Message: "empty value after ':'", Input: s}
		}
		spec.Value = inferValue(value)
	}

	for _, seg := range segments {
		filter, err := parseFilterSegment(seg, s)
		if err != nil {
			return TargetSpec{}, "", err
		}
		spec.Filters = append(spec.Filters, filter)
	}
	return spec, "", nil
}

// parseAnchor parses the anchor side: an independent locator with the
// relation carried as a trailing [relation=name] segment.
func parseAnchor(s string) (TargetSpec, Relation, error) {
	anchor, stray, err := parseTarget(s)
	if err != nil {
		return TargetSpec{}, "", err
	}
	if stray != "" {
		return TargetSpec{}, "", &SyntaxError{
			Message: fmt.Sprintf("unexpected %q in anchor", stray), Input: s,
		}
	}

	var relation Relation
	kept := anchor.Filters[:0]
	for _, f := range anchor.Filters {
		if f.Name != "relation" {
			kept = append(kept, f)
			continue
		}
		name, ok := f.Value.(string)
		if !ok {
			name = fmt.Sprintf("%v", f.Value)
		}
		relation, err = ParseRelation(name)
		if err != nil {
			return TargetSpec{}, "", err
		}
	}
	anchor.Filters = kept
	if len(anchor.Filters) == 0 {
		anchor.Filters = nil
	}

	if relation == "" {
		return TargetSpec{}, "", &SyntaxError{
			Message: "anchor requires a relation", Input: s,
		}
	}
	return anchor, relation, nil
}

// parseFilterSegment parses one bracketed `name=value` (or bare keyword)
// segment. The pseudo-filter "relation" passes through for parseAnchor.
func parseFilterSegment(seg, input string) (Filter, error) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return Filter{}, &SyntaxError{Message: "empty filter", Input: input}
	}

	rawName, rawValue, hasValue := strings.Cut(seg, "=")
	name := FilterName(strings.TrimSpace(rawName))
	if name != "relation" && !name.Known() {
		return Filter{}, &SyntaxError{
			Message: fmt.Sprintf("unknown filter %q", name), Input: input,
		}
	}
	if !hasValue {
		// Bare keyword form, e.g. [is_bold].
		return Filter{Name: name, Value: true}, nil
	}
	return Filter{Name: name, Value: inferValue(strings.TrimSpace(rawValue))}, nil
}

// inferValue converts a raw token into bool, int, or unquoted string.
func inferValue(raw string) any {
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
