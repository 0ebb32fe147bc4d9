package selector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/locator"
)

var foldCaser = cases.Fold()

// candidate caches per-element state so each filter chain loads text and
// attributes at most once per element.
type candidate struct {
	ref   element.Ref
	text  *string
	attrs *element.Attributes
}

func (c *candidate) loadText(ctx context.Context, eng engine.Engine) (string, error) {
	if c.text == nil {
		text, err := eng.Text(ctx, c.ref)
		if err != nil {
			return "", err
		}
		c.text = &text
	}
	return *c.text, nil
}

func (c *candidate) loadAttrs(ctx context.Context, eng engine.Engine) (element.Attributes, error) {
	if c.attrs == nil {
		attrs, err := eng.Attributes(ctx, c.ref)
		if err != nil {
			return element.Attributes{}, err
		}
		c.attrs = &attrs
	}
	return *c.attrs, nil
}

// applyFilters narrows refs to those matching every filter, in order.
// range_start and range_end do not narrow the candidate list; they produce
// the character window attached to the resulting selection.
func (r *Resolver) applyFilters(ctx context.Context, refs []element.Ref, filters []locator.Filter) ([]element.Ref, *element.Span, error) {
	window, filters, err := extractWindow(filters)
	if err != nil {
		return nil, nil, err
	}
	if len(filters) == 0 {
		return refs, window, nil
	}

	// Compile regex filters once, up front.
	regexps := make(map[int]*regexp.Regexp)
	for i, f := range filters {
		if f.Name != locator.TextMatchesRegex {
			continue
		}
		pattern, _ := f.Value.(string)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, nil, &locator.ValidationError{
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Field:   string(locator.TextMatchesRegex),
				Value:   pattern,
			}
		}
		regexps[i] = re
	}

	out := make([]element.Ref, 0, len(refs))
	for _, ref := range refs {
		cand := candidate{ref: ref}
		keep := true
		for i, f := range filters {
			ok, err := r.matchFilter(ctx, &cand, f, regexps[i])
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, ref)
		}
	}
	return out, window, nil
}

func (r *Resolver) matchFilter(ctx context.Context, cand *candidate, f locator.Filter, re *regexp.Regexp) (bool, error) {
	switch f.Name {
	case locator.ContainsText:
		want, _ := f.Value.(string)
		text, err := cand.loadText(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return strings.Contains(foldCaser.String(text), foldCaser.String(want)), nil

	case locator.TextMatchesRegex:
		text, err := cand.loadText(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return re.MatchString(text), nil

	case locator.Style:
		want, _ := f.Value.(string)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(attrs.Style, want), nil

	case locator.IsBold:
		want, _ := f.Value.(bool)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return attrs.IsBold == want, nil

	case locator.IsListItem:
		want, _ := f.Value.(bool)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return attrs.IsListItem == want, nil

	case locator.ShapeType:
		want, _ := f.Value.(string)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(attrs.ShapeType, want), nil

	case locator.IndexInParent:
		want, _ := f.Value.(int)
		idx, ok, err := r.indexInParent(ctx, cand.ref)
		if err != nil {
			return false, err
		}
		return ok && idx == want, nil

	case locator.RowIndex:
		want, _ := f.Value.(int)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return attrs.RowIndex == want, nil

	case locator.ColumnIndex:
		want, _ := f.Value.(int)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return attrs.ColumnIndex == want, nil

	case locator.TableIndex:
		want, _ := f.Value.(int)
		attrs, err := cand.loadAttrs(ctx, r.eng)
		if err != nil {
			return false, err
		}
		return attrs.TableIndex == want, nil
	}

	return false, &locator.SyntaxError{Message: fmt.Sprintf("unknown filter %q", f.Name)}
}

// indexInParent returns the element's position among its parent's children
// of the same kind, in document order.
func (r *Resolver) indexInParent(ctx context.Context, ref element.Ref) (int, bool, error) {
	parent, ok, err := r.eng.Parent(ctx, ref)
	if err != nil || !ok {
		return 0, false, err
	}
	siblings, err := r.eng.Children(ctx, parent)
	if err != nil {
		return 0, false, err
	}
	idx := 0
	for _, sib := range siblings {
		if sib == ref {
			return idx, true, nil
		}
		if sib.Kind == ref.Kind {
			idx++
		}
	}
	return 0, false, nil
}

// extractWindow pulls range_start/range_end out of the filter list and
// turns them into a character window. An absent bound is open.
func extractWindow(filters []locator.Filter) (*element.Span, []locator.Filter, error) {
	var window *element.Span
	rest := filters
	start, end := 0, maxInt
	have := false
	for _, f := range filters {
		switch f.Name {
		case locator.RangeStart:
			start, _ = f.Value.(int)
			have = true
		case locator.RangeEnd:
			end, _ = f.Value.(int)
			have = true
		}
	}
	if !have {
		return nil, rest, nil
	}
	rest = make([]locator.Filter, 0, len(filters))
	for _, f := range filters {
		if f.Name == locator.RangeStart || f.Name == locator.RangeEnd {
			continue
		}
		rest = append(rest, f)
	}
	window = &element.Span{Start: start, End: end}
	return window, rest, nil
}

const maxInt = int(^uint(0) >> 1)
