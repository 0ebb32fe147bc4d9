package doctool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/session"
)

const previewLen = 80

// ElementInfo describes one resolved element in tool output.
type ElementInfo struct {
	Ref       string `json:"ref"`
	Kind      string `json:"kind"`
	SpanStart int    `json:"span_start"`
	SpanEnd   int    `json:"span_end"`
	Preview   string `json:"preview,omitempty"`
}

func (s *Server) sessionFor(id string) (*session.Session, error) {
	sess, err := s.mgr.Get(id)
	if err != nil {
		return nil, classify(err)
	}
	return sess, nil
}

func (s *Server) elementInfo(ctx context.Context, sess *session.Session, ref element.Ref) ElementInfo {
	info := ElementInfo{Ref: ref.ID, Kind: string(ref.Kind)}
	if span, err := sess.Engine().Span(ctx, ref); err == nil {
		info.SpanStart, info.SpanEnd = span.Start, span.End
	}
	if text, err := sess.Engine().Text(ctx, ref); err == nil {
		text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
		if len(text) > previewLen {
			text = clip(text, previewLen) + "..."
		}
		info.Preview = text
	}
	return info
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// resolveOne resolves a locator to a single element, substituting the
// active object when the locator is empty.
func (s *Server) resolveOne(ctx context.Context, sess *session.Session, loc string) (element.Ref, error) {
	sel, err := sess.Select(ctx, loc, true)
	if err != nil {
		return element.Ref{}, classify(err)
	}
	return sel.First(), nil
}

// DocumentOpenArgs defines the input for document_open.
type DocumentOpenArgs struct {
	Document string `json:"document" jsonschema:"Engine-specific document reference, such as a file path or a named in-memory document"`
	Engine   string `json:"engine,omitempty" jsonschema:"Engine kind to open the document with (defaults to the server's configured engine)"`
}

// DocumentOpenResult is the output of document_open.
type DocumentOpenResult struct {
	SessionID string `json:"session_id"`
	Document  string `json:"document"`
	Sections  int    `json:"sections"`
}

func (s *Server) handleDocumentOpen(ctx context.Context, req *mcp.CallToolRequest, args DocumentOpenArgs) (*mcp.CallToolResult, any, error) {
	if args.Document == "" {
		return nil, nil, fmt.Errorf("document is required")
	}
	kind := args.Engine
	if kind == "" {
		kind = s.cfg.Engine.Kind
	}

	sess, err := s.mgr.Open(ctx, kind, args.Document)
	if err != nil {
		return nil, nil, classify(err)
	}

	root, err := sess.Outline(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	sections := 0
	root.Walk(func(n *session.ContextNode) {
		if n.Kind == session.NodeSection {
			sections++
		}
	})

	return nil, DocumentOpenResult{
		SessionID: sess.ID,
		Document:  args.Document,
		Sections:  sections,
	}, nil
}

// DocumentCloseArgs defines the input for document_close.
type DocumentCloseArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to close"`
}

// DocumentCloseResult is the output of document_close.
type DocumentCloseResult struct {
	Closed string `json:"closed"`
}

func (s *Server) handleDocumentClose(ctx context.Context, req *mcp.CallToolRequest, args DocumentCloseArgs) (*mcp.CallToolResult, any, error) {
	if err := s.mgr.Close(args.SessionID); err != nil {
		return nil, nil, classify(err)
	}
	return nil, DocumentCloseResult{Closed: args.SessionID}, nil
}

// SelectElementsArgs defines the input for select_elements.
type SelectElementsArgs struct {
	SessionID    string `json:"session_id" jsonschema:"The session to query"`
	Locator      string `json:"locator" jsonschema:"Locator expression, e.g. paragraph[contains_text=budget]"`
	ExpectSingle bool   `json:"expect_single,omitempty" jsonschema:"Require exactly one match; multiple matches become an error listing previews"`
}

// SelectElementsResult is the output of select_elements.
type SelectElementsResult struct {
	Matches []ElementInfo `json:"matches"`
	Count   int           `json:"count"`
}

func (s *Server) handleSelectElements(ctx context.Context, req *mcp.CallToolRequest, args SelectElementsArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(args.Locator) == "" {
		return nil, nil, fmt.Errorf("locator is required")
	}

	sel, err := sess.Select(ctx, args.Locator, args.ExpectSingle)
	if err != nil {
		return nil, nil, classify(err)
	}

	out := SelectElementsResult{Count: sel.Len()}
	for _, ref := range sel.Refs() {
		out.Matches = append(out.Matches, s.elementInfo(ctx, sess, ref))
	}
	return nil, out, nil
}

// SetActiveContextArgs defines the input for set_active_context.
type SetActiveContextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to modify"`
	Context   string `json:"context" jsonschema:"Context specifier: 'document', 'selection', 'table:N', 'bookmark:NAME', or a section heading title"`
}

// ContextInfo describes a context node in tool output.
type ContextInfo struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	Level     int    `json:"level,omitempty"`
	SpanStart int    `json:"span_start"`
	SpanEnd   int    `json:"span_end"`
}

func contextInfo(n *session.ContextNode) ContextInfo {
	return ContextInfo{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Path:      n.Path(),
		Level:     n.Level,
		SpanStart: n.Span.Start,
		SpanEnd:   n.Span.End,
	}
}

func (s *Server) handleSetActiveContext(ctx context.Context, req *mcp.CallToolRequest, args SetActiveContextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	node, err := sess.SetActiveContext(ctx, args.Context)
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, contextInfo(node), nil
}

// GetActiveContextArgs defines the input for get_active_context.
type GetActiveContextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to inspect"`
}

func (s *Server) handleGetActiveContext(ctx context.Context, req *mcp.CallToolRequest, args GetActiveContextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	node, err := sess.ActiveContext(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, contextInfo(node), nil
}

// SetActiveObjectArgs defines the input for set_active_object.
type SetActiveObjectArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to modify"`
	Locator   string `json:"locator" jsonschema:"Locator that must resolve to exactly one element within the active context"`
}

func (s *Server) handleSetActiveObject(ctx context.Context, req *mcp.CallToolRequest, args SetActiveObjectArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(args.Locator) == "" {
		return nil, nil, fmt.Errorf("locator is required")
	}
	ref, err := sess.SetActiveObject(ctx, args.Locator)
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, s.elementInfo(ctx, sess, ref), nil
}

// GetActiveObjectArgs defines the input for get_active_object.
type GetActiveObjectArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to inspect"`
}

func (s *Server) handleGetActiveObject(ctx context.Context, req *mcp.CallToolRequest, args GetActiveObjectArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	ref, err := sess.ActiveObject(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, s.elementInfo(ctx, sess, ref), nil
}

// ReadTextArgs defines the input for read_text.
type ReadTextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to read from"`
	Locator   string `json:"locator,omitempty" jsonschema:"Locator to read; omit to read the active object, or the whole document if none is set"`
}

// ReadTextResult is the output of read_text.
type ReadTextResult struct {
	Text      string `json:"text"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) handleReadText(ctx context.Context, req *mcp.CallToolRequest, args ReadTextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}

	loc := args.Locator
	if strings.TrimSpace(loc) == "" {
		// Prefer the active object; fall back to the whole document.
		if _, aoErr := sess.ActiveObject(ctx); aoErr != nil {
			if !errors.Is(aoErr, session.ErrContext) {
				return nil, nil, classify(aoErr)
			}
			loc = "document"
		}
	}

	sel, err := sess.Select(ctx, loc, true)
	if err != nil {
		return nil, nil, classify(err)
	}
	text, err := sel.Text(ctx, 0)
	if err != nil {
		return nil, nil, classify(err)
	}

	out := ReadTextResult{Text: text, Length: len(text)}
	if max := s.cfg.Limits.MaxReadChars; len(text) > max {
		// A too-large read returns guidance, not partial text: the caller
		// pages through range locators instead.
		out.Text = ""
		out.Truncated = true
		out.Message = fmt.Sprintf(
			"Text is %d characters, over the %d-character read limit. Page through it with range locators, e.g. 'range[range_start=0][range_end=%d]'.",
			len(text), max, max)
	}
	return nil, out, nil
}

// InsertTextArgs defines the input for insert_text.
type InsertTextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to edit"`
	Locator   string `json:"locator" jsonschema:"Locator for the insertion point; 'document_start' and 'document_end' target the flow boundaries"`
	Text      string `json:"text" jsonschema:"Paragraph text to insert"`
	Position  string `json:"position,omitempty" jsonschema:"'before' or 'after' the target (default 'after')"`
	Style     string `json:"style,omitempty" jsonschema:"Optional paragraph style, e.g. 'Heading 1'"`
}

// MutationInfo is the output of the editing tools.
type MutationInfo struct {
	AffectedStart int    `json:"affected_start"`
	AffectedEnd   int    `json:"affected_end"`
	Inserted      string `json:"inserted,omitempty"`
	Removed       string `json:"removed,omitempty"`
}

func mutationInfo(res engine.MutationResult) MutationInfo {
	out := MutationInfo{
		AffectedStart: res.AffectedSpan.Start,
		AffectedEnd:   res.AffectedSpan.End,
	}
	if !res.Inserted.IsZero() {
		out.Inserted = res.Inserted.ID
	}
	if !res.Removed.IsZero() {
		out.Removed = res.Removed.ID
	}
	return out
}

func (s *Server) handleInsertText(ctx context.Context, req *mcp.CallToolRequest, args InsertTextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if args.Text == "" {
		return nil, nil, fmt.Errorf("text is required")
	}
	primitive := engine.InsertTextAfter
	switch args.Position {
	case "", "after":
	case "before":
		primitive = engine.InsertTextBefore
	default:
		return nil, nil, fmt.Errorf("position must be 'before' or 'after', got %q", args.Position)
	}

	target, err := s.resolveOne(ctx, sess, args.Locator)
	if err != nil {
		return nil, nil, err
	}

	margs := map[string]any{"text": args.Text}
	if args.Style != "" {
		margs["style"] = args.Style
	}
	res, err := sess.Apply(ctx, engine.Mutation{
		Primitive: primitive,
		Target:    target,
		Args:      margs,
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	s.log.Info("insert_text",
		zap.String("session", sess.ID),
		zap.String("target", target.String()))
	return nil, mutationInfo(res), nil
}

// ReplaceTextArgs defines the input for replace_text.
type ReplaceTextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to edit"`
	Locator   string `json:"locator,omitempty" jsonschema:"Locator for the element to rewrite; omit to use the active object"`
	Text      string `json:"text" jsonschema:"Replacement text"`
}

func (s *Server) handleReplaceText(ctx context.Context, req *mcp.CallToolRequest, args ReplaceTextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.resolveOne(ctx, sess, args.Locator)
	if err != nil {
		return nil, nil, err
	}
	res, err := sess.Apply(ctx, engine.Mutation{
		Primitive: engine.ReplaceText,
		Target:    target,
		Args:      map[string]any{"text": args.Text},
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, mutationInfo(res), nil
}

// DeleteElementArgs defines the input for delete_element.
type DeleteElementArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to edit"`
	Locator   string `json:"locator,omitempty" jsonschema:"Locator for the element to delete; omit to delete the active object"`
}

func (s *Server) handleDeleteElement(ctx context.Context, req *mcp.CallToolRequest, args DeleteElementArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.resolveOne(ctx, sess, args.Locator)
	if err != nil {
		return nil, nil, err
	}
	res, err := sess.Apply(ctx, engine.Mutation{
		Primitive: engine.DeleteElement,
		Target:    target,
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	s.log.Info("delete_element",
		zap.String("session", sess.ID),
		zap.String("target", target.String()))
	return nil, mutationInfo(res), nil
}

// SetCellTextArgs defines the input for set_cell_text.
type SetCellTextArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to edit"`
	Locator   string `json:"locator" jsonschema:"Locator resolving to a single cell, e.g. cell[table_index=0][row_index=1][column_index=2]"`
	Text      string `json:"text" jsonschema:"The cell's new text"`
}

func (s *Server) handleSetCellText(ctx context.Context, req *mcp.CallToolRequest, args SetCellTextArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.resolveOne(ctx, sess, args.Locator)
	if err != nil {
		return nil, nil, err
	}
	if target.Kind != element.Cell {
		return nil, nil, fmt.Errorf("locator resolved to %s, set_cell_text requires a cell", target.Kind)
	}
	res, err := sess.Apply(ctx, engine.Mutation{
		Primitive: engine.SetCellText,
		Target:    target,
		Args:      map[string]any{"text": args.Text},
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, mutationInfo(res), nil
}

// DocumentOutlineArgs defines the input for document_outline.
type DocumentOutlineArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to inspect"`
}

// OutlineNode is one node of the outline tree.
type OutlineNode struct {
	Title     string        `json:"title"`
	Level     int           `json:"level,omitempty"`
	SpanStart int           `json:"span_start"`
	SpanEnd   int           `json:"span_end"`
	Children  []OutlineNode `json:"children,omitempty"`
}

func outlineNode(n *session.ContextNode) OutlineNode {
	out := OutlineNode{
		Title:     n.Title,
		Level:     n.Level,
		SpanStart: n.Span.Start,
		SpanEnd:   n.Span.End,
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, outlineNode(child))
	}
	return out
}

func (s *Server) handleDocumentOutline(ctx context.Context, req *mcp.CallToolRequest, args DocumentOutlineArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	root, err := sess.Outline(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	return nil, outlineNode(root), nil
}

// DescribeSelectionArgs defines the input for describe_selection.
type DescribeSelectionArgs struct {
	SessionID string `json:"session_id" jsonschema:"The session to query"`
	Locator   string `json:"locator" jsonschema:"Locator to describe the matches of"`
}

// ElementDescription extends ElementInfo with attributes and a suggested
// locator.
type ElementDescription struct {
	ElementInfo
	Style            string `json:"style,omitempty"`
	IsBold           bool   `json:"is_bold,omitempty"`
	IsListItem       bool   `json:"is_list_item,omitempty"`
	ShapeType        string `json:"shape_type,omitempty"`
	SuggestedLocator string `json:"suggested_locator,omitempty"`
}

// DescribeSelectionResult is the output of describe_selection.
type DescribeSelectionResult struct {
	Elements []ElementDescription `json:"elements"`
	Count    int                  `json:"count"`
}

func (s *Server) handleDescribeSelection(ctx context.Context, req *mcp.CallToolRequest, args DescribeSelectionArgs) (*mcp.CallToolResult, any, error) {
	sess, err := s.sessionFor(args.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(args.Locator) == "" {
		return nil, nil, fmt.Errorf("locator is required")
	}

	sel, err := sess.Select(ctx, args.Locator, false)
	if err != nil {
		return nil, nil, classify(err)
	}

	out := DescribeSelectionResult{Count: sel.Len()}
	for _, ref := range sel.Refs() {
		desc := ElementDescription{ElementInfo: s.elementInfo(ctx, sess, ref)}
		if attrs, err := sess.Engine().Attributes(ctx, ref); err == nil {
			desc.Style = attrs.Style
			desc.IsBold = attrs.IsBold
			desc.IsListItem = attrs.IsListItem
			desc.ShapeType = attrs.ShapeType
		}
		if loc, err := sess.Suggest(ctx, ref); err == nil {
			desc.SuggestedLocator = loc.String()
		}
		out.Elements = append(out.Elements, desc)
	}
	return nil, out, nil
}
