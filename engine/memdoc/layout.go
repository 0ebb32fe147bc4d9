package memdoc

import (
	"github.com/jonwraymond/docselect/element"
)

// layout is a snapshot of the document's plain-text projection: spans and
// document-order enumeration per kind. It is recomputed on demand so
// positions are never served stale after an edit (refs stay stable,
// offsets do not).
type layout struct {
	spans  map[string]element.Span
	kinds  map[string]element.Kind
	order  map[element.Kind][]element.Ref
	parent map[string]string
	total  int
}

func (d *Document) computeLayout() *layout {
	l := &layout{
		spans:  make(map[string]element.Span),
		kinds:  make(map[string]element.Kind),
		order:  make(map[element.Kind][]element.Ref),
		parent: make(map[string]string),
	}

	add := func(id string, kind element.Kind, span element.Span, parent string) {
		l.spans[id] = span
		l.kinds[id] = kind
		l.parent[id] = parent
		l.order[kind] = append(l.order[kind], element.Ref{ID: id, Kind: kind})
	}

	offset := 0
	for _, b := range d.blocks {
		switch {
		case b.para != nil:
			start := offset
			for _, r := range b.para.runs {
				add(r.id, element.Run, element.Span{Start: offset, End: offset + len(r.text)}, b.id)
				offset += len(r.text)
			}
			offset++ // paragraph terminator
			span := element.Span{Start: start, End: offset}
			add(b.id, element.Paragraph, span, docID)
			if b.para.isHeading() {
				l.order[element.Heading] = append(l.order[element.Heading],
					element.Ref{ID: b.id, Kind: element.Heading})
			}
			for _, s := range b.para.shapes {
				add(s.id, element.InlineShape, span, b.id)
				if s.shapeType == "picture" {
					l.order[element.Image] = append(l.order[element.Image],
						element.Ref{ID: s.id, Kind: element.Image})
				}
			}
			for _, c := range b.para.comments {
				add(c.id, element.Comment, span, b.id)
			}
			for _, bm := range b.para.bookmarks {
				add(bm.id, element.Bookmark, element.Span{Start: start, End: start}, b.id)
			}
		case b.tbl != nil:
			start := offset
			for _, c := range b.tbl.cells {
				add(c.id, element.Cell, element.Span{Start: offset, End: offset + len(c.text)}, b.id)
				offset += len(c.text) + 1 // cell terminator
			}
			add(b.id, element.Table, element.Span{Start: start, End: offset}, docID)
		}
	}
	l.total = offset

	docSpan := element.Span{Start: 0, End: l.total}
	l.spans[docID] = docSpan
	l.kinds[docID] = element.Document
	l.order[element.Document] = []element.Ref{{ID: docID, Kind: element.Document}}
	l.order[element.Range] = []element.Ref{{ID: docID, Kind: element.Range}}

	l.spans[docID+"#start"] = element.Span{Start: 0, End: 0}
	l.order[element.DocumentStart] = []element.Ref{{ID: docID + "#start", Kind: element.DocumentStart}}
	l.spans[docID+"#end"] = element.Span{Start: l.total, End: l.total}
	l.order[element.DocumentEnd] = []element.Ref{{ID: docID + "#end", Kind: element.DocumentEnd}}

	if d.selected {
		l.spans["selection"] = d.selection
		l.order[element.Selection] = []element.Ref{{ID: "selection", Kind: element.Selection}}
	}

	return l
}

// tableIndexOf returns the 0-based document-order index of the table
// owning the given block id, or -1.
func (d *Document) tableIndexOf(blockID string) int {
	idx := 0
	for _, b := range d.blocks {
		if b.tbl == nil {
			continue
		}
		if b.id == blockID {
			return idx
		}
		idx++
	}
	return -1
}
