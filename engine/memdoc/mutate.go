package memdoc

import (
	"context"
	"fmt"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
)

// Apply executes a mutation primitive. The affected span is conservative:
// it runs from the edit position to the end of the document, because any
// edit shifts every later offset.
func (d *Document) Apply(ctx context.Context, m engine.Mutation) (engine.MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.MutationResult{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch m.Primitive {
	case engine.InsertTextAfter, engine.InsertTextBefore:
		return d.insertParagraphLocked(m)
	case engine.ReplaceText:
		return d.replaceTextLocked(m)
	case engine.DeleteElement:
		return d.deleteElementLocked(m)
	case engine.SetCellText:
		return d.setCellTextLocked(m)
	default:
		return engine.MutationResult{}, &engine.AdapterError{
			Op:  fmt.Sprintf("apply %s", m.Primitive),
			Ref: m.Target.String(),
			Err: fmt.Errorf("%w: unsupported primitive", engine.ErrAdapter),
		}
	}
}

func textArg(m engine.Mutation) (string, error) {
	raw, ok := m.Args["text"]
	if !ok {
		return "", fmt.Errorf("%w: missing text argument", engine.ErrAdapter)
	}
	text, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: text argument must be a string", engine.ErrAdapter)
	}
	return text, nil
}

func (d *Document) insertParagraphLocked(m engine.Mutation) (engine.MutationResult, error) {
	op := fmt.Sprintf("apply %s", m.Primitive)
	text, err := textArg(m)
	if err != nil {
		return engine.MutationResult{}, &engine.AdapterError{Op: op, Ref: m.Target.String(), Err: err}
	}

	p := &paragraph{runs: []*run{{id: d.allocID("r"), text: text}}}
	if style, ok := m.Args["style"].(string); ok {
		p.style = style
	}
	nb := &block{id: d.allocID("p"), para: p}

	// Resolve the insertion point. Document start/end refs collapse to the
	// flow boundaries; any other target must be a live top-level block.
	pos := -1
	switch m.Target.ID {
	case docID + "#start":
		pos = 0
	case docID + "#end", docID:
		pos = len(d.blocks)
	default:
		for i, b := range d.blocks {
			if b.id == m.Target.ID {
				pos = i
				if m.Primitive == engine.InsertTextAfter {
					pos = i + 1
				}
				break
			}
		}
		if pos < 0 {
			return engine.MutationResult{}, staleErr(op, m.Target)
		}
	}

	d.blocks = append(d.blocks[:pos], append([]*block{nb}, d.blocks[pos:]...)...)

	l := d.computeLayout()
	return engine.MutationResult{
		AffectedSpan: element.Span{Start: l.spans[nb.id].Start, End: l.total},
		Inserted:     element.Ref{ID: nb.id, Kind: element.Paragraph},
	}, nil
}

func (d *Document) replaceTextLocked(m engine.Mutation) (engine.MutationResult, error) {
	op := "apply replace_text"
	text, err := textArg(m)
	if err != nil {
		return engine.MutationResult{}, &engine.AdapterError{Op: op, Ref: m.Target.String(), Err: err}
	}

	before := d.computeLayout()
	span, ok := before.spans[m.Target.ID]
	if !ok {
		return engine.MutationResult{}, staleErr(op, m.Target)
	}

	for _, b := range d.blocks {
		if b.id == m.Target.ID && b.para != nil {
			b.para.runs = []*run{{id: d.allocID("r"), text: text}}
			after := d.computeLayout()
			return engine.MutationResult{
				AffectedSpan: element.Span{Start: span.Start, End: after.total},
			}, nil
		}
		if b.tbl != nil {
			for _, c := range b.tbl.cells {
				if c.id == m.Target.ID {
					c.text = text
					after := d.computeLayout()
					return engine.MutationResult{
						AffectedSpan: element.Span{Start: span.Start, End: after.total},
					}, nil
				}
			}
		}
	}
	return engine.MutationResult{}, &engine.AdapterError{
		Op:  op,
		Ref: m.Target.String(),
		Err: fmt.Errorf("%w: target does not hold replaceable text", engine.ErrAdapter),
	}
}

func (d *Document) deleteElementLocked(m engine.Mutation) (engine.MutationResult, error) {
	op := "apply delete_element"
	before := d.computeLayout()
	span, ok := before.spans[m.Target.ID]
	if !ok {
		return engine.MutationResult{}, staleErr(op, m.Target)
	}

	removed := element.Ref{ID: m.Target.ID, Kind: before.kinds[m.Target.ID]}

	for i, b := range d.blocks {
		if b.id == m.Target.ID {
			d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
			after := d.computeLayout()
			end := after.total
			if span.Start > end {
				end = span.Start
			}
			return engine.MutationResult{
				AffectedSpan: element.Span{Start: span.Start, End: end},
				Removed:      removed,
			}, nil
		}
		if b.para == nil {
			continue
		}
		if deleteAnchored(b.para, m.Target.ID) {
			after := d.computeLayout()
			end := after.total
			if span.Start > end {
				end = span.Start
			}
			return engine.MutationResult{
				AffectedSpan: element.Span{Start: span.Start, End: end},
				Removed:      removed,
			}, nil
		}
	}
	return engine.MutationResult{}, staleErr(op, m.Target)
}

// deleteAnchored removes a run, shape, comment, or bookmark from a
// paragraph. Returns true if something was removed.
func deleteAnchored(p *paragraph, id string) bool {
	for i, r := range p.runs {
		if r.id == id {
			p.runs = append(p.runs[:i], p.runs[i+1:]...)
			return true
		}
	}
	for i, s := range p.shapes {
		if s.id == id {
			p.shapes = append(p.shapes[:i], p.shapes[i+1:]...)
			return true
		}
	}
	for i, c := range p.comments {
		if c.id == id {
			p.comments = append(p.comments[:i], p.comments[i+1:]...)
			return true
		}
	}
	for i, bm := range p.bookmarks {
		if bm.id == id {
			p.bookmarks = append(p.bookmarks[:i], p.bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Document) setCellTextLocked(m engine.Mutation) (engine.MutationResult, error) {
	op := "apply set_cell_text"
	text, err := textArg(m)
	if err != nil {
		return engine.MutationResult{}, &engine.AdapterError{Op: op, Ref: m.Target.String(), Err: err}
	}

	before := d.computeLayout()
	span, ok := before.spans[m.Target.ID]
	if !ok {
		return engine.MutationResult{}, staleErr(op, m.Target)
	}

	for _, b := range d.blocks {
		if b.tbl == nil {
			continue
		}
		for _, c := range b.tbl.cells {
			if c.id == m.Target.ID {
				c.text = text
				after := d.computeLayout()
				return engine.MutationResult{
					AffectedSpan: element.Span{Start: span.Start, End: after.total},
				}, nil
			}
		}
	}
	return engine.MutationResult{}, &engine.AdapterError{
		Op:  op,
		Ref: m.Target.String(),
		Err: fmt.Errorf("%w: target is not a table cell", engine.ErrAdapter),
	}
}
