package doctool

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/engine/memdoc"
	"github.com/jonwraymond/docselect/session"
)

// testServer builds a server over a memdoc store holding one document:
//
//	Heading 1: "Summary"
//	"The project is on track."
//	Heading 1: "Risks"
//	"Budget overrun is possible."
//	1x2 table: owner, date
func testServer(t *testing.T) *Server {
	t.Helper()
	d := memdoc.New()
	d.AppendHeading("Summary", 1)
	d.AppendParagraph("The project is on track.")
	d.AppendHeading("Risks", 1)
	d.AppendParagraph("Budget overrun is possible.")
	tbl := d.AppendTable(1, 2)
	if err := d.SetCell(tbl, 0, 0, "owner"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := d.SetCell(tbl, 0, 1, "date"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	store := memdoc.NewStore()
	store.Put("status.docx", d)
	reg := engine.NewRegistry()
	if err := reg.Register("memory", store.Factory); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mgr, err := session.NewManager(session.Config{Registry: reg})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	var cfg Config
	cfg.Limits.MaxReadChars = 20
	srv, err := NewServer(cfg, mgr, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func openSession(t *testing.T, srv *Server) string {
	t.Helper()
	_, raw, err := srv.handleDocumentOpen(context.Background(), nil, DocumentOpenArgs{Document: "status.docx"})
	if err != nil {
		t.Fatalf("document_open: %v", err)
	}
	out := raw.(DocumentOpenResult)
	if out.Sections != 2 {
		t.Fatalf("Sections = %d, want 2", out.Sections)
	}
	return out.SessionID
}

func TestOpenSelectClose(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, raw, err := srv.handleSelectElements(ctx, nil, SelectElementsArgs{
		SessionID: id,
		Locator:   "paragraph[contains_text=budget]",
	})
	if err != nil {
		t.Fatalf("select_elements: %v", err)
	}
	out := raw.(SelectElementsResult)
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	if out.Matches[0].Preview != "Budget overrun is possible." {
		t.Errorf("Preview = %q", out.Matches[0].Preview)
	}

	if _, _, err := srv.handleDocumentClose(ctx, nil, DocumentCloseArgs{SessionID: id}); err != nil {
		t.Fatalf("document_close: %v", err)
	}
	_, _, err = srv.handleSelectElements(ctx, nil, SelectElementsArgs{SessionID: id, Locator: "paragraph:0"})
	if err == nil || !strings.Contains(err.Error(), "session_not_found") {
		t.Fatalf("select after close: err = %v", err)
	}
}

func TestErrorPrefixes(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	tests := []struct {
		name    string
		locator string
		prefix  string
	}{
		{"syntax", "paragraph[unclosed", "locator_syntax"},
		{"validation", "paragraph", "locator_validation"},
		{"not found", "table:7", "object_not_found"},
		{"ambiguous", "heading[style=\"Heading 1\"]", "ambiguous_locator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := srv.handleSelectElements(ctx, nil, SelectElementsArgs{
				SessionID:    id,
				Locator:      tt.locator,
				ExpectSingle: true,
			})
			if err == nil || !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Fatalf("err = %v, want prefix %q", err, tt.prefix)
			}
		})
	}
}

func TestReadTextTruncation(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, raw, err := srv.handleReadText(ctx, nil, ReadTextArgs{SessionID: id})
	if err != nil {
		t.Fatalf("read_text: %v", err)
	}
	out := raw.(ReadTextResult)
	if !out.Truncated {
		t.Fatal("expected truncation")
	}
	if out.Text != "" {
		t.Errorf("Text = %q, want no partial text", out.Text)
	}
	if !strings.Contains(out.Message, "range_start") {
		t.Errorf("Message = %q, want paging hint", out.Message)
	}

	// Page past the truncation point with a range locator.
	_, raw, err = srv.handleReadText(ctx, nil, ReadTextArgs{
		SessionID: id,
		Locator:   "range[range_start=20][range_end=40]",
	})
	if err != nil {
		t.Fatalf("read_text range: %v", err)
	}
	page := raw.(ReadTextResult)
	if page.Truncated {
		t.Error("range page should not be truncated")
	}
	if len(page.Text) != 20 {
		t.Errorf("len(Text) = %d, want 20", len(page.Text))
	}
}

func TestActiveObjectFlow(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, _, err := srv.handleGetActiveObject(ctx, nil, GetActiveObjectArgs{SessionID: id})
	if err == nil || !strings.HasPrefix(err.Error(), "context_error") {
		t.Fatalf("get before set: err = %v", err)
	}

	_, raw, err := srv.handleSetActiveObject(ctx, nil, SetActiveObjectArgs{
		SessionID: id,
		Locator:   `paragraph:"on track"`,
	})
	if err != nil {
		t.Fatalf("set_active_object: %v", err)
	}
	ref := raw.(ElementInfo)

	// A locator-less replace rewrites the active object.
	if _, _, err := srv.handleReplaceText(ctx, nil, ReplaceTextArgs{
		SessionID: id,
		Text:      "The project is delayed.",
	}); err != nil {
		t.Fatalf("replace_text: %v", err)
	}

	_, raw, err = srv.handleReadText(ctx, nil, ReadTextArgs{SessionID: id})
	if err != nil {
		t.Fatalf("read_text: %v", err)
	}
	if got := raw.(ReadTextResult).Text; got != "The project is delayed." {
		t.Errorf("Text = %q", got)
	}

	_, raw, err = srv.handleGetActiveObject(ctx, nil, GetActiveObjectArgs{SessionID: id})
	if err != nil {
		t.Fatalf("get_active_object: %v", err)
	}
	if raw.(ElementInfo).Ref != ref.Ref {
		t.Errorf("active object changed: %q vs %q", raw.(ElementInfo).Ref, ref.Ref)
	}
}

func TestEditingTools(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, raw, err := srv.handleInsertText(ctx, nil, InsertTextArgs{
		SessionID: id,
		Locator:   `heading:"Risks"`,
		Text:      "Mitigations",
		Position:  "after",
		Style:     "Heading 2",
	})
	if err != nil {
		t.Fatalf("insert_text: %v", err)
	}
	if raw.(MutationInfo).Inserted == "" {
		t.Error("insert_text reported no inserted element")
	}

	_, raw, err = srv.handleDocumentOutline(ctx, nil, DocumentOutlineArgs{SessionID: id})
	if err != nil {
		t.Fatalf("document_outline: %v", err)
	}
	outline := raw.(OutlineNode)
	if len(outline.Children) != 2 {
		t.Fatalf("outline has %d top sections, want 2", len(outline.Children))
	}
	risks := outline.Children[1]
	if len(risks.Children) != 1 || risks.Children[0].Title != "Mitigations" {
		t.Fatalf("Risks children = %+v", risks.Children)
	}

	_, _, err = srv.handleSetCellText(ctx, nil, SetCellTextArgs{
		SessionID: id,
		Locator:   "cell[table_index=0][row_index=0][column_index=1]",
		Text:      "2026-09-01",
	})
	if err != nil {
		t.Fatalf("set_cell_text: %v", err)
	}
	_, raw, err = srv.handleReadText(ctx, nil, ReadTextArgs{
		SessionID: id,
		Locator:   "cell[table_index=0][row_index=0][column_index=1]",
	})
	if err != nil {
		t.Fatalf("read_text cell: %v", err)
	}
	if got := raw.(ReadTextResult).Text; got != "2026-09-01" {
		t.Errorf("cell text = %q", got)
	}

	// set_cell_text refuses non-cell targets.
	_, _, err = srv.handleSetCellText(ctx, nil, SetCellTextArgs{
		SessionID: id,
		Locator:   "paragraph:0",
		Text:      "x",
	})
	if err == nil || !strings.Contains(err.Error(), "requires a cell") {
		t.Fatalf("set_cell_text on paragraph: err = %v", err)
	}

	_, raw, err = srv.handleDeleteElement(ctx, nil, DeleteElementArgs{
		SessionID: id,
		Locator:   `paragraph:"Budget overrun"`,
	})
	if err != nil {
		t.Fatalf("delete_element: %v", err)
	}
	if raw.(MutationInfo).Removed == "" {
		t.Error("delete_element reported no removed element")
	}
}

func TestDescribeSelection(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, raw, err := srv.handleDescribeSelection(ctx, nil, DescribeSelectionArgs{
		SessionID: id,
		Locator:   "heading[contains_text=Risks]",
	})
	if err != nil {
		t.Fatalf("describe_selection: %v", err)
	}
	out := raw.(DescribeSelectionResult)
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	desc := out.Elements[0]
	if desc.Style != "Heading 1" {
		t.Errorf("Style = %q", desc.Style)
	}
	if desc.SuggestedLocator == "" {
		t.Error("no suggested locator")
	}
}

func TestContextScoping(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	id := openSession(t, srv)

	_, raw, err := srv.handleSetActiveContext(ctx, nil, SetActiveContextArgs{
		SessionID: id,
		Context:   "Risks",
	})
	if err != nil {
		t.Fatalf("set_active_context: %v", err)
	}
	if got := raw.(ContextInfo).Path; got != "status.docx > Risks" {
		t.Errorf("Path = %q", got)
	}

	_, _, err = srv.handleSelectElements(ctx, nil, SelectElementsArgs{
		SessionID: id,
		Locator:   "paragraph[contains_text=on track]",
	})
	if err == nil || !strings.HasPrefix(err.Error(), "object_not_found") {
		t.Fatalf("out-of-context select: err = %v", err)
	}

	_, raw, err = srv.handleGetActiveContext(ctx, nil, GetActiveContextArgs{SessionID: id})
	if err != nil {
		t.Fatalf("get_active_context: %v", err)
	}
	if got := raw.(ContextInfo).Title; got != "Risks" {
		t.Errorf("Title = %q", got)
	}
}
