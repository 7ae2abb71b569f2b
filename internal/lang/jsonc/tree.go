package jsonc

import (
	"loom/internal/comments"
	"loom/internal/source"
)

type NodeKind uint8

const (
	NodeDocument NodeKind = iota
	NodeObject
	NodeArray
	NodeMember
	NodeString
	NodeNumber
	NodeLiteral
	// NodeBogus covers source the parser could not make sense of.
	NodeBogus
)

func (k NodeKind) String() string {
	switch k {
	case NodeDocument:
		return "document"
	case NodeObject:
		return "object"
	case NodeArray:
		return "array"
	case NodeMember:
		return "member"
	case NodeString:
		return "string"
	case NodeNumber:
		return "number"
	case NodeLiteral:
		return "literal"
	}
	return "bogus"
}

type Node struct {
	Kind     NodeKind
	Span     source.Span
	Parent   comments.NodeID
	Children []comments.NodeID // member: key, value
	Text     string            // leaf token text

	TrailingComma source.Span
	HasTrailing   bool
	// Multiline is set for objects whose first member started on a new line.
	Multiline bool
}

func (n *Node) IsContainer() bool {
	return n.Kind == NodeObject || n.Kind == NodeArray
}

// Tree is an arena of nodes in pre-order; parents precede their children.
type Tree struct {
	File    *source.File
	Dialect Dialect

	nodes []Node
	raws  []comments.Raw
	view  []comments.Node
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Node(id comments.NodeID) *Node { return &t.nodes[id] }

// Root returns the document value, or NoNode for an empty document.
func (t *Tree) Root() comments.NodeID {
	if len(t.nodes) == 0 || len(t.nodes[0].Children) == 0 {
		return comments.NoNode
	}
	return t.nodes[0].Children[0]
}

func (t *Tree) Nodes() []comments.Node {
	if t.view == nil {
		t.view = make([]comments.Node, len(t.nodes))
		for i := range t.nodes {
			t.view[i] = comments.Node{ID: comments.NodeID(i), Parent: t.nodes[i].Parent, Span: t.nodes[i].Span}
		}
	}
	return t.view
}

func (t *Tree) Comments() []comments.Raw { return t.raws }
