package prose

import (
	"bytes"
	"slices"
	"strings"

	"loom/internal/comments"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/source"
)

type layout struct {
	ctx *format.Context
	doc *Document
	src []byte
}

func (l *layout) build() (ir.Element, error) {
	cm := l.ctx.Comments
	blocks := l.doc.Blocks
	if len(blocks) == 1 {
		dangling := cm.FormatDangling(0)
		if dangling.IsEmpty() {
			return ir.Empty(), nil
		}
		return ir.Concat(dangling, ir.HardLine()), nil
	}

	view := l.doc.Nodes()
	parts := make([]ir.Element, 0, 2*len(blocks))
	for i := 1; i < len(blocks); i++ {
		if i > 1 {
			parts = append(parts, l.separator(i))
		}
		id := comments.NodeID(i)
		el, err := format.FormatNode(l.ctx, view[i], func() (ir.Element, error) {
			return l.block(id), nil
		})
		if err != nil {
			return ir.Element{}, err
		}
		parts = append(parts, el)
	}
	parts = append(parts, ir.HardLine())
	return ir.Concat(parts...), nil
}

// separator chooses the break before block i: list items stay tight unless
// the source had a blank line, everything else gets one blank line.
func (l *layout) separator(i int) ir.Element {
	prev, cur := &l.doc.Blocks[i-1], &l.doc.Blocks[i]
	end := cur.Span.Start
	if lead := l.ctx.Comments.Leading(comments.NodeID(i)); len(lead) > 0 {
		end = l.ctx.Comments.Comment(lead[0]).Span.Start
	}
	blank := bytes.Count(l.src[prev.Span.End:end], []byte("\n")) > 1
	if (prev.Kind == BlockItem || cur.Kind == BlockItem) && !blank {
		return ir.HardLine()
	}
	return ir.EmptyLine()
}

func (l *layout) block(id comments.NodeID) ir.Element {
	b := &l.doc.Blocks[id]
	switch b.Kind {
	case BlockHeading:
		hashes := b.Span
		hashes.Start = hashes.End - uint32(len(l.lineText(b)))
		hashes.End = hashes.Start + uint32(b.Level)
		head := ir.TextAt(strings.Repeat("#", b.Level), hashes)
		if len(b.Words) == 0 {
			return head
		}
		return ir.Concat(head, ir.Space(), ir.Join(ir.Space(), l.words(b.Words)...))
	case BlockParagraph:
		return l.inline(b)
	case BlockItem:
		marker := ir.Text(b.Marker)
		if len(b.Words) == 0 {
			return ir.Concat(l.indent(b), marker)
		}
		return ir.Concat(l.indent(b), marker, ir.Space(), ir.Align(b.Indent+len(b.Marker)+1, l.inline(b)))
	}
	return ir.VerbatimFile(l.doc.File, b.Span)
}

func (l *layout) lineText(b *Block) string {
	return strings.TrimLeft(string(l.src[b.Span.Start:b.Span.End]), " \t")
}

func (l *layout) indent(b *Block) ir.Element {
	if b.Indent == 0 {
		return ir.Empty()
	}
	return ir.Text(strings.Repeat(" ", b.Indent))
}

func (l *layout) words(ws []Word) []ir.Element {
	out := make([]ir.Element, len(ws))
	for i, w := range ws {
		out[i] = ir.TextAt(string(l.src[w.Span.Start:w.Span.End]), w.Span)
	}
	return out
}

// inline lays out the words of a paragraph or list item. Hard breaks split
// the text into segments; each segment is refilled or keeps its lines
// depending on the prose wrap option.
func (l *layout) inline(b *Block) ir.Element {
	var (
		parts []ir.Element
		start int
	)
	for i := 1; i <= len(b.Words); i++ {
		prev := b.Words[i-1]
		if i < len(b.Words) && (b.Words[i].Line == prev.Line || !slices.Contains(b.Breaks, prev.Line)) {
			continue
		}
		parts = append(parts, l.segment(b.Words[start:i]))
		if i < len(b.Words) {
			at := source.Span{File: prev.Span.File, Start: prev.Span.End, End: prev.Span.End}
			parts = append(parts, ir.Verbatim("  ", at), ir.HardLine())
		}
		start = i
	}
	return ir.Concat(parts...)
}

func (l *layout) segment(ws []Word) ir.Element {
	if l.ctx.Options.ProseWrap == format.ProseWrapPreserve {
		var lines []ir.Element
		from := 0
		for i := 1; i <= len(ws); i++ {
			if i == len(ws) || ws[i].Line != ws[i-1].Line {
				lines = append(lines, ir.Join(ir.Space(), l.words(ws[from:i])...))
				from = i
			}
		}
		return ir.JoinLines(lines...)
	}

	items := make([]ir.Element, 0, len(ws))
	for i, w := range l.words(ws) {
		if i > 0 && startsBlock(string(l.src[ws[i].Span.Start:ws[i].Span.End])) {
			items[len(items)-1] = ir.Concat(items[len(items)-1], ir.Space(), w)
			continue
		}
		items = append(items, w)
	}
	return ir.Fill(ir.SoftLineOrSpace(), items...)
}

// startsBlock reports whether word would change meaning at a line start.
func startsBlock(word string) bool {
	switch {
	case strings.HasPrefix(word, "#"), strings.HasPrefix(word, ">"), strings.HasPrefix(word, "|"),
		strings.HasPrefix(word, "```"), strings.HasPrefix(word, "~~~"), strings.HasPrefix(word, "<!--"):
		return true
	case thematic(word) || setext(word):
		return true
	}
	_, ok := listMarker(word + " ")
	return ok
}
