package session

import (
	"strings"
	"time"

	"github.com/jonwraymond/docselect/element"
)

// NodeKind classifies a context node.
type NodeKind string

// Context node kinds.
const (
	NodeDocument  NodeKind = "document"
	NodeSection   NodeKind = "section"
	NodeTable     NodeKind = "table"
	NodeBookmark  NodeKind = "bookmark"
	NodeSelection NodeKind = "selection"
)

// ContextNode is a node in a session's context tree. Sections come from
// the document's heading structure; table, bookmark, and selection nodes
// are created on demand when activated.
//
// A node's span bounds what unanchored locators can see while the node is
// active. Section spans run from the end of the heading paragraph to the
// start of the next heading of the same or a higher level.
type ContextNode struct {
	// ID uniquely identifies the node within its session.
	ID string

	// Kind classifies the node.
	Kind NodeKind

	// Title is the heading text, table label, or bookmark name.
	Title string

	// Level is the heading level for section nodes, zero otherwise.
	Level int

	// Ref is the element the node is derived from: the heading
	// paragraph, the table, or the bookmark. Zero for the document root
	// and the selection node.
	Ref element.Ref

	// Span is the content span the node scopes resolution to.
	Span element.Span

	// Children holds nested sections in document order.
	Children []*ContextNode

	// Metadata carries caller-defined annotations.
	Metadata map[string]string

	// CreatedAt and UpdatedAt track node lifecycle.
	CreatedAt time.Time
	UpdatedAt time.Time

	parent *ContextNode
}

// Parent returns the enclosing node, or nil for the document root.
func (n *ContextNode) Parent() *ContextNode { return n.parent }

// Path returns the titles from the root to this node, joined by " > ".
func (n *ContextNode) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.Title)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// Walk visits the node and all descendants in document order.
func (n *ContextNode) Walk(visit func(*ContextNode)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}
