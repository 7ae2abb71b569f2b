package comments

import (
	"loom/internal/ir"
	"loom/internal/source"
)

func (m *Map) text(i int) ir.Element {
	c := &m.comments[i]
	m.formatted[i] = true
	if c.Multiline() {
		return ir.Verbatim(c.Text, c.Span)
	}
	return ir.TextAt(c.Text, c.Span)
}

// FormatLeading emits the leading comments of id. Comments followed by a
// line break in the source keep it; one blank line is preserved.
func (m *Map) FormatLeading(id NodeID) ir.Element {
	idx := m.Leading(id)
	if len(idx) == 0 {
		return ir.Empty()
	}
	parts := make([]ir.Element, 0, 3*len(idx))
	for _, i := range idx {
		c := &m.comments[i]
		parts = append(parts, m.text(i))
		switch {
		case c.LinesAfter > 1:
			parts = append(parts, ir.EmptyLine())
		case c.LinesAfter > 0 || c.Kind == Line:
			parts = append(parts, ir.HardLine())
		default:
			parts = append(parts, ir.Space())
		}
	}
	return ir.Concat(parts...)
}

// FormatTrailing emits the trailing comments of id. Own-line comments move
// to the following line through a line suffix; line comments stay on the
// node's line and force the enclosing group to break.
func (m *Map) FormatTrailing(id NodeID) ir.Element {
	idx := m.Trailing(id)
	if len(idx) == 0 {
		return ir.Empty()
	}
	parts := make([]ir.Element, 0, 2*len(idx))
	for _, i := range idx {
		c := &m.comments[i]
		switch {
		case c.Placement == OwnLine:
			brk := ir.HardLine()
			if c.LinesBefore > 1 {
				brk = ir.EmptyLine()
			}
			parts = append(parts, ir.LineSuffix(brk, m.text(i)), ir.ExpandParent())
		case c.Kind == Line:
			parts = append(parts, ir.LineSuffix(ir.Space(), m.text(i)), ir.ExpandParent())
		default:
			parts = append(parts, ir.Space(), m.text(i))
		}
	}
	return ir.Concat(parts...)
}

// FormatDangling emits comments of id that have no sibling to hang on, one
// per line when any of them is a line comment or sat on its own line.
func (m *Map) FormatDangling(id NodeID) ir.Element {
	idx := m.Dangling(id)
	if len(idx) == 0 {
		return ir.Empty()
	}
	multiline := false
	for _, i := range idx {
		c := &m.comments[i]
		if c.Kind == Line || c.Placement == OwnLine || c.Multiline() {
			multiline = true
		}
	}
	parts := make([]ir.Element, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, m.text(i))
	}
	if !multiline {
		return ir.Join(ir.Space(), parts...)
	}
	last := &m.comments[idx[len(idx)-1]]
	body := ir.JoinLines(parts...)
	if last.Kind == Line {
		return ir.Concat(body, ir.ExpandParent())
	}
	return body
}

// FormatOpening emits the dangling comments of a node that has children.
// They followed its opening token on the same line and stay there.
func (m *Map) FormatOpening(id NodeID) ir.Element {
	idx := m.Dangling(id)
	if len(idx) == 0 {
		return ir.Empty()
	}
	parts := make([]ir.Element, 0, 3*len(idx))
	for _, i := range idx {
		if m.comments[i].Kind == Line {
			parts = append(parts, ir.LineSuffix(ir.Space(), m.text(i)), ir.ExpandParent())
			continue
		}
		parts = append(parts, ir.Space(), m.text(i), ir.Space())
	}
	return ir.Concat(parts...)
}

// Verbatim copies node's source unchanged and marks the comments inside it
// as emitted.
func (m *Map) Verbatim(file *source.File, span source.Span) ir.Element {
	m.MarkInside(span)
	return ir.VerbatimFile(file, span)
}
