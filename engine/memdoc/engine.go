package memdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
)

// Enumerate lists elements of kind within scope in document order.
func (d *Document) Enumerate(ctx context.Context, kind element.Kind, scope engine.Scope) ([]element.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.computeLayout()
	refs := l.order[kind]
	if !scope.Bounded {
		return append([]element.Ref(nil), refs...), nil
	}

	out := make([]element.Ref, 0, len(refs))
	for _, ref := range refs {
		if scope.Span.Contains(l.spans[ref.ID]) {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Parent returns the structural parent of ref.
func (d *Document) Parent(ctx context.Context, ref element.Ref) (element.Ref, bool, error) {
	if err := ctx.Err(); err != nil {
		return element.Ref{}, false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.computeLayout()
	if _, ok := l.spans[ref.ID]; !ok {
		return element.Ref{}, false, staleErr("parent", ref)
	}
	parentID, ok := l.parent[ref.ID]
	if !ok || parentID == "" {
		return element.Ref{}, false, nil
	}
	kind, ok := l.kinds[parentID]
	if !ok {
		return element.Ref{}, false, nil
	}
	return element.Ref{ID: parentID, Kind: kind}, true, nil
}

// Children returns the direct structural children of ref in document order.
func (d *Document) Children(ctx context.Context, ref element.Ref) ([]element.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.computeLayout()
	if _, ok := l.spans[ref.ID]; !ok {
		return nil, staleErr("children", ref)
	}

	var out []element.Ref
	if ref.ID == docID {
		for _, b := range d.blocks {
			kind := element.Paragraph
			if b.tbl != nil {
				kind = element.Table
			}
			out = append(out, element.Ref{ID: b.id, Kind: kind})
		}
		return out, nil
	}
	for id, parentID := range l.parent {
		if parentID == ref.ID {
			out = append(out, element.Ref{ID: id, Kind: l.kinds[id]})
		}
	}
	// parent map iteration is unordered; restore document order by span
	sortBySpan(out, l)
	return out, nil
}

// Text returns the plain-text projection of ref.
func (d *Document) Text(ctx context.Context, ref element.Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if ref.ID == docID || ref.ID == "selection" {
		return d.projectionLocked(ref)
	}

	for _, b := range d.blocks {
		if b.id == ref.ID {
			if b.para != nil {
				return b.para.text(), nil
			}
			var sb strings.Builder
			for _, c := range b.tbl.cells {
				sb.WriteString(c.text)
				sb.WriteByte('\n')
			}
			return sb.String(), nil
		}
		if b.para != nil {
			for _, r := range b.para.runs {
				if r.id == ref.ID {
					return r.text, nil
				}
			}
			for _, s := range b.para.shapes {
				if s.id == ref.ID {
					return s.altText, nil
				}
			}
			for _, c := range b.para.comments {
				if c.id == ref.ID {
					return c.text, nil
				}
			}
			for _, bm := range b.para.bookmarks {
				if bm.id == ref.ID {
					return bm.name, nil
				}
			}
		}
		if b.tbl != nil {
			for _, c := range b.tbl.cells {
				if c.id == ref.ID {
					return c.text, nil
				}
			}
		}
	}
	if ref.ID == docID+"#start" || ref.ID == docID+"#end" {
		return "", nil
	}
	return "", staleErr("text", ref)
}

// projectionLocked renders the whole-document projection; for the
// selection pseudo-element it slices the projection to the selection span.
func (d *Document) projectionLocked(ref element.Ref) (string, error) {
	var sb strings.Builder
	for _, b := range d.blocks {
		if b.para != nil {
			sb.WriteString(b.para.text())
			sb.WriteByte('\n')
			continue
		}
		for _, c := range b.tbl.cells {
			sb.WriteString(c.text)
			sb.WriteByte('\n')
		}
	}
	text := sb.String()
	if ref.ID == "selection" {
		if !d.selected {
			return "", staleErr("text", ref)
		}
		start, end := d.selection.Start, d.selection.End
		if start < 0 || end > len(text) || start > end {
			return "", staleErr("text", ref)
		}
		return text[start:end], nil
	}
	return text, nil
}

// Span returns the current character span of ref.
func (d *Document) Span(ctx context.Context, ref element.Ref) (element.Span, error) {
	if err := ctx.Err(); err != nil {
		return element.Span{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.computeLayout()
	span, ok := l.spans[ref.ID]
	if !ok {
		return element.Span{}, staleErr("span", ref)
	}
	return span, nil
}

// Attributes returns the formatting and structural attributes of ref.
func (d *Document) Attributes(ctx context.Context, ref element.Ref) (element.Attributes, error) {
	if err := ctx.Err(); err != nil {
		return element.Attributes{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range d.blocks {
		if b.id == ref.ID && b.para != nil {
			return element.Attributes{
				Style:      b.para.style,
				IsBold:     b.para.allBold(),
				IsListItem: b.para.isListItem,
			}, nil
		}
		if b.id == ref.ID && b.tbl != nil {
			return element.Attributes{TableIndex: d.tableIndexOf(b.id)}, nil
		}
		if b.para != nil {
			for _, r := range b.para.runs {
				if r.id == ref.ID {
					return element.Attributes{IsBold: r.bold, Style: b.para.style}, nil
				}
			}
			for _, s := range b.para.shapes {
				if s.id == ref.ID {
					return element.Attributes{ShapeType: s.shapeType}, nil
				}
			}
			for _, c := range b.para.comments {
				if c.id == ref.ID {
					return element.Attributes{}, nil
				}
			}
			for _, bm := range b.para.bookmarks {
				if bm.id == ref.ID {
					return element.Attributes{}, nil
				}
			}
		}
		if b.tbl != nil {
			for i, c := range b.tbl.cells {
				if c.id == ref.ID {
					return element.Attributes{
						RowIndex:    i / b.tbl.cols,
						ColumnIndex: i % b.tbl.cols,
						TableIndex:  d.tableIndexOf(b.id),
					}, nil
				}
			}
		}
	}
	if ref.ID == docID || ref.ID == docID+"#start" || ref.ID == docID+"#end" || ref.ID == "selection" {
		return element.Attributes{}, nil
	}
	return element.Attributes{}, staleErr("attributes", ref)
}

func staleErr(op string, ref element.Ref) error {
	return &engine.AdapterError{
		Op:  op,
		Ref: ref.String(),
		Err: fmt.Errorf("%w: %s", engine.ErrStaleRef, ref.ID),
	}
}

func sortBySpan(refs []element.Ref, l *layout) {
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0; j-- {
			a, b := l.spans[refs[j-1].ID], l.spans[refs[j].ID]
			if a.Start > b.Start || (a.Start == b.Start && a.End > b.End) {
				refs[j-1], refs[j] = refs[j], refs[j-1]
			} else {
				break
			}
		}
	}
}
