package session

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/engine/memdoc"
	"github.com/jonwraymond/docselect/selector"
)

// testSession opens a session over a small report document:
//
//	Heading 1: "Overview"
//	"This report summarizes the year."
//	Heading 2: "Highlights"
//	"Revenue grew."
//	1x2 table: q1, q2
//	Heading 1: "Appendix"
//	"Raw data."
func testSession(t *testing.T) (*Session, *memdoc.Document) {
	t.Helper()
	d := memdoc.New()
	d.AppendHeading("Overview", 1)
	d.AppendParagraph("This report summarizes the year.")
	d.AppendHeading("Highlights", 2)
	d.AppendParagraph("Revenue grew.")
	tbl := d.AppendTable(1, 2)
	if err := d.SetCell(tbl, 0, 0, "q1"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := d.SetCell(tbl, 0, 1, "q2"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	d.AppendHeading("Appendix", 1)
	d.AppendParagraph("Raw data.")

	store := memdoc.NewStore()
	store.Put("report", d)
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := NewManager(Config{Registry: reg, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s, err := mgr.Open(context.Background(), "memory", "report")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, d
}

func TestOutline(t *testing.T) {
	s, _ := testSession(t)

	root, err := s.Outline(context.Background())
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if root.Kind != NodeDocument {
		t.Fatalf("root Kind = %s, want document", root.Kind)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	overview, appendix := root.Children[0], root.Children[1]
	if overview.Title != "Overview" || appendix.Title != "Appendix" {
		t.Errorf("top sections = %q, %q", overview.Title, appendix.Title)
	}
	if len(overview.Children) != 1 || overview.Children[0].Title != "Highlights" {
		t.Fatalf("Overview children = %+v", overview.Children)
	}
	highlights := overview.Children[0]
	if highlights.Level != 2 {
		t.Errorf("Highlights Level = %d, want 2", highlights.Level)
	}
	if got := highlights.Path(); got != "report > Overview > Highlights" {
		t.Errorf("Path() = %q", got)
	}
	// A nested section's span nests inside its parent's.
	if !overview.Span.Contains(highlights.Span) {
		t.Errorf("Highlights span %+v escapes Overview span %+v", highlights.Span, overview.Span)
	}
}

func TestActiveContextScopesSelection(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	node, err := s.SetActiveContext(ctx, "Highlights")
	if err != nil {
		t.Fatalf("SetActiveContext: %v", err)
	}
	if node.Kind != NodeSection {
		t.Fatalf("Kind = %s, want section", node.Kind)
	}

	sel, err := s.Select(ctx, "paragraph[contains_text=Revenue]", true)
	if err != nil {
		t.Fatalf("Select in context: %v", err)
	}
	if sel.Len() != 1 {
		t.Errorf("Len() = %d, want 1", sel.Len())
	}

	// Content outside the section is out of scope.
	_, err = s.Select(ctx, "paragraph[contains_text=summarizes]", true)
	if !errors.Is(err, selector.ErrNotFound) {
		t.Fatalf("out-of-scope select: err = %v, want ErrNotFound", err)
	}

	// Back to the document root, everything is visible again.
	if _, err := s.SetActiveContext(ctx, "document"); err != nil {
		t.Fatalf("SetActiveContext(document): %v", err)
	}
	if _, err := s.Select(ctx, "paragraph[contains_text=summarizes]", true); err != nil {
		t.Fatalf("whole-document select: %v", err)
	}
}

func TestTableContext(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	node, err := s.SetActiveContext(ctx, "table:0")
	if err != nil {
		t.Fatalf("SetActiveContext: %v", err)
	}
	if node.Kind != NodeTable {
		t.Fatalf("Kind = %s, want table", node.Kind)
	}

	sel, err := s.Select(ctx, "cell[row_index=0][column_index=1]", true)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	text, err := sel.Text(ctx, 0)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "q2" {
		t.Errorf("Text = %q, want %q", text, "q2")
	}
}

func TestSelectionContext(t *testing.T) {
	s, d := testSession(t)
	ctx := context.Background()

	_, err := s.SetActiveContext(ctx, "selection")
	if !errors.Is(err, ErrContext) {
		t.Fatalf("no selection: err = %v, want ErrContext", err)
	}

	d.SetSelection(element.Span{Start: 0, End: 8})
	node, err := s.SetActiveContext(ctx, "selection")
	if err != nil {
		t.Fatalf("SetActiveContext(selection): %v", err)
	}
	if node.Kind != NodeSelection {
		t.Errorf("Kind = %s, want selection", node.Kind)
	}
}

func TestUnknownSection(t *testing.T) {
	s, _ := testSession(t)

	_, err := s.SetActiveContext(context.Background(), "Bibliography")
	if !errors.Is(err, ErrContext) {
		t.Fatalf("err = %v, want ErrContext", err)
	}
}

func TestActiveObjectRoundTrip(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	_, err := s.ActiveObject(ctx)
	if !errors.Is(err, ErrContext) {
		t.Fatalf("no active object: err = %v, want ErrContext", err)
	}

	ref, err := s.SetActiveObject(ctx, `paragraph:"Revenue"`)
	if err != nil {
		t.Fatalf("SetActiveObject: %v", err)
	}

	got, err := s.ActiveObject(ctx)
	if err != nil {
		t.Fatalf("ActiveObject: %v", err)
	}
	if got != ref {
		t.Errorf("ActiveObject = %s, want %s", got, ref)
	}

	// A locator-less select operates on the active object.
	sel, err := s.Select(ctx, "", true)
	if err != nil {
		t.Fatalf("Select(\"\"): %v", err)
	}
	if sel.First() != ref {
		t.Errorf("Select(\"\") = %s, want %s", sel.First(), ref)
	}
}

func TestActiveObjectClearedByDeletion(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	ref, err := s.SetActiveObject(ctx, `paragraph:"Revenue"`)
	if err != nil {
		t.Fatalf("SetActiveObject: %v", err)
	}

	if _, err := s.Apply(ctx, engine.Mutation{
		Primitive: engine.DeleteElement,
		Target:    ref,
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, err = s.ActiveObject(ctx)
	if !errors.Is(err, ErrContext) {
		t.Fatalf("err = %v, want ErrContext", err)
	}
}

func TestMutationRebindsActiveContext(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	if _, err := s.SetActiveContext(ctx, "Appendix"); err != nil {
		t.Fatalf("SetActiveContext: %v", err)
	}

	// Insert a new section before Appendix; the tree is rebuilt and the
	// active context rebinds to the same title.
	sel, err := s.Select(ctx, `heading:"Appendix"`, true)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.Apply(ctx, engine.Mutation{
		Primitive: engine.InsertTextBefore,
		Target:    sel.First(),
		Args:      map[string]any{"text": "Discussion", "style": "Heading 1"},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	node, err := s.ActiveContext(ctx)
	if err != nil {
		t.Fatalf("ActiveContext: %v", err)
	}
	if node.Title != "Appendix" {
		t.Errorf("active context = %q, want %q", node.Title, "Appendix")
	}

	root, err := s.Outline(ctx)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	titles := make([]string, len(root.Children))
	for i, c := range root.Children {
		titles[i] = c.Title
	}
	want := []string{"Overview", "Discussion", "Appendix"}
	if len(titles) != len(want) {
		t.Fatalf("sections = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("sections[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestDeletedContextFallsBackToRoot(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	if _, err := s.SetActiveContext(ctx, "Appendix"); err != nil {
		t.Fatalf("SetActiveContext: %v", err)
	}
	sel, err := s.Select(ctx, `heading:"Appendix"`, true)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := s.Apply(ctx, engine.Mutation{
		Primitive: engine.DeleteElement,
		Target:    sel.First(),
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	node, err := s.ActiveContext(ctx)
	if err != nil {
		t.Fatalf("ActiveContext: %v", err)
	}
	if node.Kind != NodeDocument {
		t.Errorf("active context Kind = %s, want document", node.Kind)
	}
}

func TestManagerLifecycle(t *testing.T) {
	store := memdoc.NewStore()
	store.Put("a", memdoc.New())
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := NewManager(Config{Registry: reg})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	s, err := mgr.Open(ctx, "memory", "a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got, err := mgr.Get(s.ID); err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if ids := mgr.IDs(); len(ids) != 1 || ids[0] != s.ID {
		t.Errorf("IDs() = %v", ids)
	}

	if _, err := mgr.Open(ctx, "nope", "a"); !errors.Is(err, engine.ErrEngineNotFound) {
		t.Errorf("unknown engine: err = %v, want ErrEngineNotFound", err)
	}

	if err := mgr.Close(s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mgr.Close(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double close: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := mgr.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after close: err = %v, want ErrSessionNotFound", err)
	}
}

func TestOutlineAfterDeletingOnlyBlock(t *testing.T) {
	d := memdoc.New()
	heading := d.AppendHeading("Only Section", 1)

	store := memdoc.NewStore()
	store.Put("single", d)
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := NewManager(Config{Registry: reg})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	s, err := mgr.Open(ctx, "memory", "single")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	root, err := s.Outline(ctx)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(root.Children) != 1 || root.Children[0].Title != "Only Section" {
		t.Fatalf("sections before delete = %+v", root.Children)
	}

	// Deleting the only block collapses the affected span to a point; the
	// tree must still invalidate rather than keep serving the section.
	if _, err := s.Apply(ctx, engine.Mutation{
		Primitive: engine.DeleteElement,
		Target:    heading,
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	root, err = s.Outline(ctx)
	if err != nil {
		t.Fatalf("Outline after delete: %v", err)
	}
	if len(root.Children) != 0 {
		t.Fatalf("sections after delete = %+v, want none", root.Children)
	}
}

func TestBookmarkContext(t *testing.T) {
	d := memdoc.New()
	d.AppendParagraph("Before the mark.")
	host := d.AppendParagraph("The marked milestone paragraph.")
	d.AppendParagraph("After the mark.")
	if _, err := d.SetBookmark(host, "milestone"); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}

	store := memdoc.NewStore()
	store.Put("marked", d)
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := NewManager(Config{Registry: reg})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	s, err := mgr.Open(ctx, "memory", "marked")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	node, err := s.SetActiveContext(ctx, "bookmark:milestone")
	if err != nil {
		t.Fatalf("SetActiveContext: %v", err)
	}
	if node.Kind != NodeBookmark {
		t.Fatalf("Kind = %s, want bookmark", node.Kind)
	}
	// The bookmark itself is a point; the context covers its host
	// paragraph so scoped selection can find something.
	hostSpan, err := s.Engine().Span(ctx, host)
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if node.Span != hostSpan {
		t.Errorf("context span = %+v, want host paragraph span %+v", node.Span, hostSpan)
	}

	sel, err := s.Select(ctx, "paragraph[contains_text=milestone]", true)
	if err != nil {
		t.Fatalf("Select in bookmark context: %v", err)
	}
	if sel.Len() != 1 {
		t.Errorf("Len() = %d, want 1", sel.Len())
	}
	if _, err := s.Select(ctx, "paragraph[contains_text=Before]", true); !errors.Is(err, selector.ErrNotFound) {
		t.Errorf("out-of-context select: err = %v, want ErrNotFound", err)
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	store := memdoc.NewStore()
	d := memdoc.New()
	d.AppendParagraph("Short lived.")
	store.Put("b", d)
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := NewManager(Config{Registry: reg})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	s, err := mgr.Open(ctx, "memory", "b")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := mgr.Close(s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A retained handle must not keep working after close.
	if _, err := s.Select(ctx, "paragraph:0", true); !errors.Is(err, ErrContext) {
		t.Errorf("Select: err = %v, want ErrContext", err)
	}
	if _, err := s.Outline(ctx); !errors.Is(err, ErrContext) {
		t.Errorf("Outline: err = %v, want ErrContext", err)
	}
	if _, err := s.SetActiveContext(ctx, "document"); !errors.Is(err, ErrContext) {
		t.Errorf("SetActiveContext: err = %v, want ErrContext", err)
	}
	if _, err := s.SetActiveObject(ctx, "paragraph:0"); !errors.Is(err, ErrContext) {
		t.Errorf("SetActiveObject: err = %v, want ErrContext", err)
	}
	if _, err := s.Apply(ctx, engine.Mutation{
		Primitive: engine.DeleteElement,
		Target:    element.Ref{ID: "p1", Kind: element.Paragraph},
	}); !errors.Is(err, ErrContext) {
		t.Errorf("Apply: err = %v, want ErrContext", err)
	}
}
