package selector

import (
	"fmt"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/locator"
)

// validate applies the semantic rules a syntactically valid locator must
// still satisfy before resolution. Violations are locator.ValidationError.
func (r *Resolver) validate(loc locator.Locator) error {
	if err := validateSpec(loc.Target, loc.Anchor != nil); err != nil {
		return err
	}
	if loc.Anchor != nil {
		if err := validateSpec(*loc.Anchor, false); err != nil {
			return err
		}
	}
	return nil
}

func validateSpec(spec locator.TargetSpec, anchored bool) error {
	for _, f := range spec.Filters {
		if err := f.CheckType(); err != nil {
			return err
		}
	}

	if spec.Kind.Positional() || spec.Kind == element.Document {
		if spec.Value != nil {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s does not take a value", spec.Kind),
				Field:   "value",
				Value:   fmt.Sprintf("%v", spec.Value),
			}
		}
		if len(spec.Filters) > 0 {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s does not take filters", spec.Kind),
				Field:   string(spec.Filters[0].Name),
			}
		}
	}

	if idx, ok := spec.IntValue(); ok && idx < 0 {
		return &locator.ValidationError{
			Message: "index must be non-negative",
			Field:   "value",
			Value:   fmt.Sprintf("%d", idx),
		}
	}

	if spec.Kind.RequiresQualifier() && !spec.Qualified() && !anchored {
		return &locator.ValidationError{
			Message: fmt.Sprintf("bare %s matches every %s; add a value, filter, or anchor", spec.Kind, spec.Kind),
			Field:   "type",
			Value:   string(spec.Kind),
		}
	}

	for _, f := range spec.Filters {
		if err := checkFilterKind(spec.Kind, f); err != nil {
			return err
		}
	}

	return validateRange(spec)
}

// checkFilterKind rejects filters that only make sense on specific element
// kinds.
func checkFilterKind(kind element.Kind, f locator.Filter) error {
	switch f.Name {
	case locator.RowIndex, locator.ColumnIndex:
		if kind != element.Cell {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s applies only to cell, not %s", f.Name, kind),
				Field:   string(f.Name),
			}
		}
	case locator.TableIndex:
		if kind != element.Cell && kind != element.Table {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s applies only to cell or table, not %s", f.Name, kind),
				Field:   string(f.Name),
			}
		}
	case locator.RangeStart, locator.RangeEnd:
		if kind != element.Range {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s applies only to range, not %s", f.Name, kind),
				Field:   string(f.Name),
			}
		}
	case locator.ShapeType:
		if kind != element.InlineShape && kind != element.Image {
			return &locator.ValidationError{
				Message: fmt.Sprintf("%s applies only to inline_shape or image, not %s", f.Name, kind),
				Field:   string(f.Name),
			}
		}
	}
	return nil
}

// validateRange checks that a range window, when both bounds are present,
// is non-empty.
func validateRange(spec locator.TargetSpec) error {
	startF, haveStart := spec.FindFilter(locator.RangeStart)
	endF, haveEnd := spec.FindFilter(locator.RangeEnd)
	if !haveStart || !haveEnd {
		return nil
	}
	start, _ := startF.Value.(int)
	end, _ := endF.Value.(int)
	if start >= end {
		return &locator.ValidationError{
			Message: fmt.Sprintf("range_start %d must be less than range_end %d", start, end),
			Field:   string(locator.RangeStart),
			Value:   fmt.Sprintf("%d", start),
		}
	}
	return nil
}
