package jsonc

import (
	"errors"
	"strings"

	"loom/internal/comments"
	"loom/internal/format"
	"loom/internal/ir"
)

var errBogus = errors.New("malformed source")

// builder lays out the tree bottom-up: nodes are visited in reverse arena
// order, so every child is built before its parent without recursion.
type builder struct {
	ctx  *format.Context
	tree *Tree
	cm   *comments.Map

	built  []ir.Element
	forced []bool // layout contains a line break that must propagate
	skip   []bool // inside a verbatim ancestor
}

func newBuilder(ctx *format.Context, tree *Tree) *builder {
	n := tree.Len()
	return &builder{
		ctx:    ctx,
		tree:   tree,
		cm:     ctx.Comments,
		built:  make([]ir.Element, n),
		forced: make([]bool, n),
		skip:   make([]bool, n),
	}
}

func (b *builder) verbatimNode(id comments.NodeID) bool {
	n := b.tree.Node(id)
	return n.Kind == NodeBogus || (b.cm != nil && b.cm.IsIgnored(id))
}

func (b *builder) build() (ir.Element, error) {
	n := b.tree.Len()
	if n == 0 {
		return ir.Empty(), nil
	}
	for id := 1; id < n; id++ {
		parent := b.tree.Node(comments.NodeID(id)).Parent
		b.skip[id] = b.skip[parent] || (parent != 0 && b.verbatimNode(parent))
	}

	view := b.tree.Nodes()
	for id := n - 1; id >= 1; id-- {
		if b.skip[id] {
			continue
		}
		nid := comments.NodeID(id)
		el, err := format.FormatNode(b.ctx, view[id], func() (ir.Element, error) {
			return b.rule(nid)
		})
		if err != nil {
			return ir.Element{}, err
		}
		b.built[id] = el
		if b.verbatimNode(nid) && strings.IndexByte(string(b.ctx.File.Slice(view[id].Span)), '\n') >= 0 {
			b.forced[id] = true
		}
	}
	return b.document(), nil
}

func (b *builder) document() ir.Element {
	doc := b.tree.Node(0)
	if len(doc.Children) == 0 {
		dangling := b.cm.FormatDangling(0)
		if dangling.IsEmpty() {
			return ir.Empty()
		}
		return ir.Concat(dangling, ir.HardLine())
	}
	parts := make([]ir.Element, 0, len(doc.Children))
	for _, c := range doc.Children {
		parts = append(parts, b.built[c])
	}
	return ir.Concat(ir.JoinLines(parts...), ir.HardLine())
}

func (b *builder) rule(id comments.NodeID) (ir.Element, error) {
	n := b.tree.Node(id)
	switch n.Kind {
	case NodeString:
		text := b.quote(n.Text)
		if strings.IndexByte(text, '\n') >= 0 {
			return ir.Verbatim(text, n.Span), nil
		}
		return ir.TextAt(text, n.Span), nil
	case NodeNumber, NodeLiteral:
		return ir.TextAt(n.Text, n.Span), nil
	case NodeMember:
		if len(n.Children) < 2 {
			return ir.Element{}, ir.Missing("member", "value", n.Span)
		}
		key, value := n.Children[0], n.Children[1]
		b.forced[id] = b.childBreaks(key) || b.childBreaks(value)
		return ir.Concat(b.built[key], ir.Text(":"), ir.Space(), b.built[value]), nil
	case NodeObject, NodeArray:
		return b.container(id, n), nil
	}
	return ir.Element{}, &ir.ConstructionError{Node: n.Kind.String(), Span: n.Span, Err: errBogus}
}

func (b *builder) childBreaks(id comments.NodeID) bool {
	return b.forced[id] || b.cm.BreaksLine(id)
}

func (b *builder) container(id comments.NodeID, n *Node) ir.Element {
	openText, closeText, inner := "[", "]", ir.SoftLine()
	if n.Kind == NodeObject {
		openText, closeText, inner = "{", "}", ir.SoftLineOrSpace()
	}
	open := ir.TextAt(openText, n.Span.Clamp(n.Span.Start+1))
	closeSpan := n.Span
	closeSpan.Start = n.Span.End - 1
	closing := ir.TextAt(closeText, closeSpan)

	if len(n.Children) == 0 {
		dangling := b.cm.FormatDangling(id)
		if dangling.IsEmpty() {
			return ir.Concat(open, closing)
		}
		b.forced[id] = b.cm.BreaksLine(id)
		return ir.Group(open, ir.Indent(inner, dangling), inner, closing)
	}

	open = ir.Concat(open, b.cm.FormatOpening(id))
	forced := n.Kind == NodeObject && n.Multiline
	numeric := n.Kind == NodeArray
	items := make([]ir.Element, len(n.Children))
	for i, c := range n.Children {
		items[i] = b.built[c]
		if b.childBreaks(c) {
			forced = true
		}
		if b.tree.Node(c).Kind != NodeNumber || b.cm.HasComments(c) {
			numeric = false
		}
	}
	b.forced[id] = forced

	gid := b.ctx.IDs.New(n.Kind.String())
	sep := ir.Concat(ir.Text(","), ir.SoftLineOrSpace())
	var body ir.Element
	if numeric && len(items) > 1 {
		body = ir.Fill(sep, items...)
	} else {
		body = ir.Join(sep, items...)
	}
	trailing := ir.Empty()
	if b.trailingComma() {
		trailing = ir.IfBreak(gid, ir.Text(","))
	} else if n.HasTrailing {
		trailing = ir.Removed(n.TrailingComma)
	}

	content := []ir.Element{open, ir.Indent(inner, body, trailing), inner, closing}
	if forced {
		return ir.GroupExpanded(gid, content...)
	}
	return ir.GroupWith(gid, content...)
}

func (b *builder) trailingComma() bool {
	// JSON has only arrays and objects, so es5 and all agree
	return b.tree.Dialect != JSON && b.ctx.Options.TrailingComma != format.TrailingCommaNone
}

func (b *builder) quote(raw string) string {
	if b.tree.Dialect != JSON5 {
		return requote(raw, '"', true)
	}
	switch b.ctx.Options.QuoteStyle {
	case format.QuoteSingle:
		return requote(raw, '\'', false)
	case format.QuotePreserve:
		return raw
	}
	return requote(raw, '"', false)
}

// requote changes the delimiters of a string literal to want, escaping and
// unescaping quotes as needed. Unless force is set, a literal that would
// need more escapes than it has keeps its quotes.
func requote(raw string, want byte, force bool) string {
	if len(raw) < 2 || raw[0] == want {
		return raw
	}
	old := raw[0]
	body := raw[1 : len(raw)-1]
	if !force && strings.Count(body, string(want)) > strings.Count(body, string(old)) {
		return raw
	}
	var sb strings.Builder
	sb.Grow(len(raw) + 2)
	sb.WriteByte(want)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			if body[i+1] != old {
				sb.WriteByte(c)
			}
			sb.WriteByte(body[i+1])
			i++
			continue
		}
		if c == want {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(want)
	return sb.String()
}
