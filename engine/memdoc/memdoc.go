// Package memdoc provides an in-memory document engine implementing the
// engine.Engine contract. It backs the module's tests and examples and
// serves as the reference implementation for host engine adapters.
package memdoc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/docselect/element"
)

// docID is the stable ref ID of the document root.
const docID = "doc"

// Document is an in-memory structured document. All access goes through
// the engine.Engine methods in engine.go; the builder methods below are
// for assembling fixtures and embedding.
type Document struct {
	mu     sync.Mutex
	nextID int

	blocks    []*block
	selection element.Span
	selected  bool
}

// block is a top-level flow element: a paragraph (headings are styled
// paragraphs) or a table.
type block struct {
	id   string
	para *paragraph
	tbl  *table
}

type paragraph struct {
	runs       []*run
	style      string
	isListItem bool
	shapes     []*shape
	comments   []*comment
	bookmarks  []*bookmarkMark
}

type run struct {
	id   string
	text string
	bold bool
}

type shape struct {
	id        string
	shapeType string
	altText   string
}

type comment struct {
	id     string
	author string
	text   string
}

type bookmarkMark struct {
	id   string
	name string
}

type table struct {
	rows  int
	cols  int
	cells []*cell // row-major
}

type cell struct {
	id   string
	text string
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

func (d *Document) allocID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s%d", prefix, d.nextID)
}

// ParagraphOption configures a paragraph added via AppendParagraph.
type ParagraphOption func(*paragraph)

// WithStyle sets the paragraph style name (e.g. "Heading 1"). Styles
// beginning with "Heading" make the paragraph enumerate as a heading.
func WithStyle(style string) ParagraphOption {
	return func(p *paragraph) { p.style = style }
}

// WithBold marks every run of the paragraph bold.
func WithBold() ParagraphOption {
	return func(p *paragraph) {
		for _, r := range p.runs {
			r.bold = true
		}
	}
}

// WithListItem marks the paragraph as a list item.
func WithListItem() ParagraphOption {
	return func(p *paragraph) { p.isListItem = true }
}

// AppendParagraph adds a paragraph with a single run of text and returns
// its ref.
func (d *Document) AppendParagraph(text string, opts ...ParagraphOption) element.Ref {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &paragraph{
		runs: []*run{{id: d.allocID("r"), text: text}},
	}
	for _, opt := range opts {
		opt(p)
	}
	b := &block{id: d.allocID("p"), para: p}
	d.blocks = append(d.blocks, b)
	return element.Ref{ID: b.id, Kind: element.Paragraph}
}

// AppendHeading adds a heading paragraph at the given level (1-based
// style level, e.g. 1 for "Heading 1").
func (d *Document) AppendHeading(text string, level int) element.Ref {
	return d.AppendParagraph(text, WithStyle(fmt.Sprintf("Heading %d", level)))
}

// AppendRun appends an extra run to an existing paragraph.
func (d *Document) AppendRun(para element.Ref, text string, bold bool) (element.Ref, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.findBlock(para.ID)
	if b == nil || b.para == nil {
		return element.Ref{}, fmt.Errorf("paragraph %s not found", para.ID)
	}
	r := &run{id: d.allocID("r"), text: text, bold: bold}
	b.para.runs = append(b.para.runs, r)
	return element.Ref{ID: r.id, Kind: element.Run}, nil
}

// AppendTable adds a table of rows x cols empty cells and returns its ref.
func (d *Document) AppendTable(rows, cols int) element.Ref {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := &table{rows: rows, cols: cols}
	for i := 0; i < rows*cols; i++ {
		t.cells = append(t.cells, &cell{id: d.allocID("c")})
	}
	b := &block{id: d.allocID("t"), tbl: t}
	d.blocks = append(d.blocks, b)
	return element.Ref{ID: b.id, Kind: element.Table}
}

// SetCell sets the text of a cell by table ref and structural coordinates.
func (d *Document) SetCell(tableRef element.Ref, row, col int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.findBlock(tableRef.ID)
	if b == nil || b.tbl == nil {
		return fmt.Errorf("table %s not found", tableRef.ID)
	}
	if row < 0 || row >= b.tbl.rows || col < 0 || col >= b.tbl.cols {
		return fmt.Errorf("cell (%d,%d) out of bounds", row, col)
	}
	b.tbl.cells[row*b.tbl.cols+col].text = text
	return nil
}

// AttachShape anchors an inline shape to a paragraph.
func (d *Document) AttachShape(para element.Ref, shapeType, altText string) (element.Ref, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.findBlock(para.ID)
	if b == nil || b.para == nil {
		return element.Ref{}, fmt.Errorf("paragraph %s not found", para.ID)
	}
	s := &shape{id: d.allocID("s"), shapeType: shapeType, altText: altText}
	b.para.shapes = append(b.para.shapes, s)
	return element.Ref{ID: s.id, Kind: element.InlineShape}, nil
}

// AttachComment anchors a comment to a paragraph.
func (d *Document) AttachComment(para element.Ref, author, text string) (element.Ref, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.findBlock(para.ID)
	if b == nil || b.para == nil {
		return element.Ref{}, fmt.Errorf("paragraph %s not found", para.ID)
	}
	c := &comment{id: d.allocID("m"), author: author, text: text}
	b.para.comments = append(b.para.comments, c)
	return element.Ref{ID: c.id, Kind: element.Comment}, nil
}

// SetBookmark places a named bookmark on a paragraph.
func (d *Document) SetBookmark(para element.Ref, name string) (element.Ref, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.findBlock(para.ID)
	if b == nil || b.para == nil {
		return element.Ref{}, fmt.Errorf("paragraph %s not found", para.ID)
	}
	bm := &bookmarkMark{id: d.allocID("b"), name: name}
	b.para.bookmarks = append(b.para.bookmarks, bm)
	return element.Ref{ID: bm.id, Kind: element.Bookmark}, nil
}

// SetSelection records the current editor selection span.
func (d *Document) SetSelection(span element.Span) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = span
	d.selected = true
}

func (d *Document) findBlock(id string) *block {
	for _, b := range d.blocks {
		if b.id == id {
			return b
		}
	}
	return nil
}

func (p *paragraph) text() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

func (p *paragraph) allBold() bool {
	if len(p.runs) == 0 {
		return false
	}
	for _, r := range p.runs {
		if !r.bold {
			return false
		}
	}
	return true
}

func (p *paragraph) isHeading() bool {
	return strings.HasPrefix(p.style, "Heading")
}
