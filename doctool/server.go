package doctool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/locator"
	"github.com/jonwraymond/docselect/selector"
	"github.com/jonwraymond/docselect/session"
)

// Server exposes document selection and editing as MCP tools over stdio.
type Server struct {
	cfg    Config
	mgr    *session.Manager
	log    *zap.Logger
	server *mcp.Server
}

// NewServer builds an MCP server around a session manager.
func NewServer(cfg Config, mgr *session.Manager, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if mgr == nil {
		return nil, fmt.Errorf("doctool: session manager is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{cfg: cfg, mgr: mgr, log: log}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	s.registerTools()
	return s, nil
}

// Run serves MCP requests on stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving",
		zap.String("name", s.cfg.Server.Name),
		zap.String("version", s.cfg.Server.Version))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "document_open",
		Description: "Open a document and start a session over it. Returns the session ID " +
			"that every other tool requires. The session tracks an active context " +
			"(a document section that scopes later queries) and an active object " +
			"(a remembered element that locator-less calls operate on).",
	}, s.handleDocumentOpen)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_close",
		Description: "Close a session. The document itself is left as-is; only the navigation state is discarded.",
	}, s.handleDocumentClose)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "select_elements",
		Description: "Resolve a locator to document elements. Locators take the form " +
			"'type[:value][filter=value]...' with an optional anchor after '@', e.g. " +
			"'paragraph[contains_text=budget]' or 'table@heading:\"Methods\"[relation=first_occurrence_after]'. " +
			"Returns matched elements with previews. Set expect_single to require exactly one match; " +
			"an ambiguous result lists previews of the competing matches so you can refine the query.",
	}, s.handleSelectElements)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "set_active_context",
		Description: "Switch the active context that scopes later queries. Accepts 'document', " +
			"'selection', 'table:N', 'bookmark:NAME', or a section heading title. " +
			"While a section is active, unanchored locators only see that section's content.",
	}, s.handleSetActiveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_active_context",
		Description: "Report the active context: its kind, title, path from the document root, and character span.",
	}, s.handleGetActiveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "set_active_object",
		Description: "Resolve a locator to exactly one element and remember it as the active object. " +
			"Later calls may omit their locator to operate on it. Resolution happens within the active context.",
	}, s.handleSetActiveObject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_active_object",
		Description: "Report the active object, verifying it still exists in the document.",
	}, s.handleGetActiveObject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "read_text",
		Description: "Read the plain text of the element a locator resolves to. With no locator, reads " +
			"the active object if one is set, otherwise the whole document. Text over the read limit " +
			"is withheld with a warning; page through it with 'range[range_start=N][range_end=M]' locators.",
	}, s.handleReadText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "insert_text",
		Description: "Insert a new paragraph before or after the element a locator resolves to. " +
			"Use position 'before' or 'after' (default 'after'), and an optional paragraph style " +
			"such as 'Heading 1'. Target 'document_start' or 'document_end' to insert at the flow boundaries.",
	}, s.handleInsertText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "replace_text",
		Description: "Replace the text of the element a locator resolves to. With no locator, " +
			"operates on the active object.",
	}, s.handleReplaceText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "delete_element",
		Description: "Delete the element a locator resolves to. With no locator, deletes the " +
			"active object and clears it.",
	}, s.handleDeleteElement)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_cell_text",
		Description: "Set the text of a table cell, e.g. locator 'cell[table_index=0][row_index=1][column_index=2]'.",
	}, s.handleSetCellText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "document_outline",
		Description: "Return the document's section outline as a tree built from its headings, " +
			"with each section's character span. Useful for picking a context to activate.",
	}, s.handleDocumentOutline)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "describe_selection",
		Description: "Describe the elements a locator resolves to: kind, span, styling attributes, " +
			"and a suggested locator that re-finds each element precisely. Use the suggestions " +
			"to target elements unambiguously in later calls.",
	}, s.handleDescribeSelection)
}

// classify maps resolution errors onto the stable prefixes clients key on.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, locator.ErrSyntax):
		return fmt.Errorf("locator_syntax: %w", err)
	case errors.Is(err, locator.ErrValidation):
		return fmt.Errorf("locator_validation: %w", err)
	case errors.Is(err, selector.ErrNotFound):
		return fmt.Errorf("object_not_found: %w", err)
	case errors.Is(err, selector.ErrAmbiguous):
		return fmt.Errorf("ambiguous_locator: %w", err)
	case errors.Is(err, session.ErrContext):
		return fmt.Errorf("context_error: %w", err)
	case errors.Is(err, session.ErrSessionNotFound):
		return fmt.Errorf("session_not_found: %w", err)
	case errors.Is(err, engine.ErrAdapter):
		return fmt.Errorf("adapter_error: %w", err)
	default:
		return err
	}
}
