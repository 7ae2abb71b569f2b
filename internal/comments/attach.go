package comments

import (
	"sort"

	"loom/internal/source"
)

// NodeID indexes the node list handed to Attach.
type NodeID int32

const NoNode NodeID = -1

// Node is the view of a syntax node the attacher needs. Nodes are given in
// pre-order; node 0 is the root and should cover the whole file.
type Node struct {
	ID     NodeID
	Parent NodeID
	Span   source.Span
}

// Position is how a comment relates to its anchor node.
type Position uint8

const (
	Leading Position = iota
	Trailing
	Dangling
)

func (p Position) String() string {
	switch p {
	case Leading:
		return "leading"
	case Trailing:
		return "trailing"
	}
	return "dangling"
}

// Map records the anchor of every comment and which comments were printed.
// It belongs to one formatting pass.
type Map struct {
	comments  []Comment
	anchor    []NodeID
	position  []Position
	formatted []bool

	leading  [][]int32
	trailing [][]int32
	dangling [][]int32
}

// Attach assigns every comment to a node: leading (before the following
// node), trailing (after the preceding node) or dangling (inside a node with
// no children around it). Own-line comments prefer the following node,
// end-of-line comments the preceding one. An end-of-line comment before the
// first child dangles on the enclosing node; see FormatOpening.
func Attach(nodes []Node, comments []Comment) *Map {
	m := &Map{
		comments:  comments,
		anchor:    make([]NodeID, len(comments)),
		position:  make([]Position, len(comments)),
		formatted: make([]bool, len(comments)),
		leading:   make([][]int32, len(nodes)),
		trailing:  make([][]int32, len(nodes)),
		dangling:  make([][]int32, len(nodes)),
	}
	if len(nodes) == 0 {
		for i := range m.anchor {
			m.anchor[i] = NoNode
		}
		return m
	}

	children := make([][]NodeID, len(nodes))
	for _, n := range nodes {
		if n.Parent != NoNode {
			children[n.Parent] = append(children[n.Parent], n.ID)
		}
	}
	for i := range children {
		kids := children[i]
		sort.SliceStable(kids, func(a, b int) bool { return nodes[kids[a]].Span.Start < nodes[kids[b]].Span.Start })
	}

	for i := range comments {
		c := &comments[i]
		enclosing, preceding, following := locate(nodes, children, c.Span)

		var (
			anchor NodeID
			pos    Position
		)
		switch c.Placement {
		case OwnLine:
			anchor, pos = pick(following, Leading, preceding, Trailing, enclosing)
		case EndOfLine:
			if preceding == NoNode && following != NoNode && enclosing > 0 {
				// right after the opening token: it keeps its line
				anchor, pos = enclosing, Dangling
				break
			}
			anchor, pos = pick(preceding, Trailing, following, Leading, enclosing)
		default:
			anchor, pos = pick(following, Leading, preceding, Trailing, enclosing)
		}
		m.anchor[i] = anchor
		m.position[i] = pos
		idx := int32(i)
		switch pos {
		case Leading:
			m.leading[anchor] = append(m.leading[anchor], idx)
		case Trailing:
			m.trailing[anchor] = append(m.trailing[anchor], idx)
		default:
			m.dangling[anchor] = append(m.dangling[anchor], idx)
		}
	}
	return m
}

func pick(first NodeID, firstPos Position, second NodeID, secondPos Position, enclosing NodeID) (NodeID, Position) {
	switch {
	case first != NoNode:
		return first, firstPos
	case second != NoNode:
		return second, secondPos
	}
	return enclosing, Dangling
}

// locate descends from the root to the deepest node enclosing span and
// returns it with the children immediately before and after span.
func locate(nodes []Node, children [][]NodeID, span source.Span) (enclosing, preceding, following NodeID) {
	enclosing = 0
	for {
		kids := children[enclosing]
		preceding, following = NoNode, NoNode
		// первый ребёнок, начинающийся не раньше конца комментария
		j := sort.Search(len(kids), func(k int) bool { return nodes[kids[k]].Span.Start >= span.End })
		if j < len(kids) {
			following = kids[j]
		}
		descended := false
		for k := j - 1; k >= 0; k-- {
			child := nodes[kids[k]]
			if child.Span.End <= span.Start {
				preceding = kids[k]
				break
			}
			if child.Span.Start <= span.Start && span.End <= child.Span.End {
				enclosing = kids[k]
				descended = true
				break
			}
		}
		if !descended {
			return enclosing, preceding, following
		}
	}
}

// All returns every comment in source order.
func (m *Map) All() []Comment { return m.comments }

// Anchor returns the node and position comment i was attached to.
func (m *Map) Anchor(i int) (NodeID, Position) {
	return m.anchor[i], m.position[i]
}

func (m *Map) collect(lists [][]int32, id NodeID, onlyPending bool) []int {
	if id < 0 || int(id) >= len(lists) {
		return nil
	}
	var out []int
	for _, i := range lists[id] {
		if onlyPending && m.formatted[i] {
			continue
		}
		out = append(out, int(i))
	}
	return out
}

// Leading returns indices of not yet formatted leading comments of id.
func (m *Map) Leading(id NodeID) []int { return m.collect(m.leading, id, true) }

// Trailing returns indices of not yet formatted trailing comments of id.
func (m *Map) Trailing(id NodeID) []int { return m.collect(m.trailing, id, true) }

// Dangling returns indices of not yet formatted dangling comments of id.
func (m *Map) Dangling(id NodeID) []int { return m.collect(m.dangling, id, true) }

// Comment returns comment i.
func (m *Map) Comment(i int) *Comment { return &m.comments[i] }

// HasLeading reports whether id has any leading comment, printed or not.
func (m *Map) HasLeading(id NodeID) bool { return len(m.collect(m.leading, id, false)) > 0 }

// HasDangling reports whether id has any dangling comment, printed or not.
func (m *Map) HasDangling(id NodeID) bool { return len(m.collect(m.dangling, id, false)) > 0 }

// HasTrailingLineComment reports whether id ends with a line comment, which
// forces a break after it.
func (m *Map) HasTrailingLineComment(id NodeID) bool {
	for _, i := range m.collect(m.trailing, id, false) {
		if m.comments[i].Kind == Line {
			return true
		}
	}
	return false
}

// HasComments reports whether any comment is anchored at id.
func (m *Map) HasComments(id NodeID) bool {
	return len(m.collect(m.leading, id, false))+len(m.collect(m.trailing, id, false))+len(m.collect(m.dangling, id, false)) > 0
}

// BreaksLine reports whether printing the comments of id puts a line break
// into the surrounding layout.
func (m *Map) BreaksLine(id NodeID) bool {
	for _, i := range m.collect(m.leading, id, false) {
		c := &m.comments[i]
		if c.Kind == Line || c.LinesAfter > 0 || c.Multiline() {
			return true
		}
	}
	for _, i := range m.collect(m.trailing, id, false) {
		c := &m.comments[i]
		if c.Kind == Line || c.Placement == OwnLine || c.Multiline() {
			return true
		}
	}
	for _, i := range m.collect(m.dangling, id, false) {
		c := &m.comments[i]
		if c.Kind == Line || c.Placement == OwnLine || c.Multiline() {
			return true
		}
	}
	return false
}

// IsIgnored reports whether a leading comment of id carries the ignore directive.
func (m *Map) IsIgnored(id NodeID) bool {
	for _, i := range m.collect(m.leading, id, false) {
		if m.comments[i].IsIgnore() {
			return true
		}
	}
	return false
}

// MarkFormatted records that comment i was emitted.
func (m *Map) MarkFormatted(i int) { m.formatted[i] = true }

// MarkInside marks every comment within span as emitted, used when the span
// is copied verbatim.
func (m *Map) MarkInside(span source.Span) {
	for i := range m.comments {
		if span.Encloses(m.comments[i].Span) {
			m.formatted[i] = true
		}
	}
}

// Unformatted lists comments never emitted; a complete pass leaves it empty.
func (m *Map) Unformatted() []int {
	var out []int
	for i, done := range m.formatted {
		if !done {
			out = append(out, i)
		}
	}
	return out
}
