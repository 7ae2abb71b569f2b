package prose

import (
	"bytes"
	"strings"

	"loom/internal/comments"
	"loom/internal/source"
)

type BlockKind uint8

const (
	BlockDocument BlockKind = iota
	BlockHeading
	BlockParagraph
	BlockItem
	BlockFence
	// BlockRaw is markup whose line structure matters: quotes, tables,
	// indented code, thematic breaks.
	BlockRaw
)

func (k BlockKind) String() string {
	switch k {
	case BlockDocument:
		return "document"
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockItem:
		return "list item"
	case BlockFence:
		return "fenced code"
	}
	return "raw block"
}

// Word is one whitespace-free run of text.
type Word struct {
	Span source.Span
	Line int // source line number within the block, from 0
}

type Block struct {
	Kind   BlockKind
	Span   source.Span // from the start of the first line
	Words  []Word
	Level  int    // heading
	Marker string // list item
	Indent int    // list item: columns before the marker
	Lines  int    // source lines covered by Words
	Breaks []int  // lines ending in a hard break (two trailing spaces)
	// BlankBefore is set when a blank line separated the block from the
	// previous one.
	BlankBefore bool
}

type Document struct {
	File   *source.File
	Blocks []Block // Blocks[0] is the document itself
	raws   []comments.Raw
	view   []comments.Node
}

func (d *Document) Nodes() []comments.Node {
	if d.view == nil {
		d.view = make([]comments.Node, len(d.Blocks))
		for i := range d.Blocks {
			parent := comments.NodeID(0)
			if i == 0 {
				parent = comments.NoNode
			}
			d.view[i] = comments.Node{ID: comments.NodeID(i), Parent: parent, Span: d.Blocks[i].Span}
		}
	}
	return d.view
}

func (d *Document) Comments() []comments.Raw { return d.raws }

type line struct {
	start, end int // end excludes '\n'
	off        int // start of text
	indent     int
	text       string // without indentation and trailing blanks
}

func splitLines(src []byte) []line {
	var out []line
	for start := 0; start <= len(src); {
		end := bytes.IndexByte(src[start:], '\n')
		if end < 0 {
			end = len(src)
		} else {
			end += start
		}
		raw := string(src[start:end])
		trimmed := strings.TrimLeft(raw, " \t")
		lead := len(raw) - len(trimmed)
		out = append(out, line{
			start:  start,
			end:    end,
			off:    start + lead,
			indent: columns(raw[:lead]),
			text:   strings.TrimRight(trimmed, " \t"),
		})
		if end == len(src) {
			break
		}
		start = end + 1
	}
	return out
}

func columns(ws string) int {
	n := 0
	for _, c := range ws {
		if c == '\t' {
			n += 4 - n%4
			continue
		}
		n++
	}
	return n
}

type parser struct {
	file  *source.File
	src   []byte
	lines []line
	doc   *Document
	cur   int // index of the open paragraph or item, -1 if none
	blank bool
}

// Parse splits a document into blocks line by line.
func Parse(file *source.File) *Document {
	p := &parser{
		file:  file,
		src:   file.Content,
		lines: splitLines(file.Content),
		doc:   &Document{File: file},
		cur:   -1,
	}
	p.doc.Blocks = append(p.doc.Blocks, Block{Kind: BlockDocument, Span: file.Span()})
	for i := 0; i < len(p.lines); i++ {
		i = p.line(i)
	}
	return p.doc
}

func (p *parser) span(start, end int) source.Span {
	return source.Span{File: p.file.ID, Start: uint32(start), End: uint32(end)}
}

func (p *parser) open(b Block) {
	b.BlankBefore = p.blank && len(p.doc.Blocks) > 1
	p.blank = false
	p.doc.Blocks = append(p.doc.Blocks, b)
}

// line handles lines[i] and returns the index of the last line it consumed.
func (p *parser) line(i int) int {
	ln := p.lines[i]
	if ln.text == "" {
		p.cur = -1
		if i < len(p.lines)-1 || ln.start < ln.end {
			p.blank = true
		}
		return i
	}

	if ln.indent < 4 || p.cur >= 0 {
		switch {
		case strings.HasPrefix(ln.text, "<!--") && ln.indent < 4:
			return p.comment(i)
		case strings.HasPrefix(ln.text, "```") || strings.HasPrefix(ln.text, "~~~"):
			return p.fence(i)
		}
	}
	if ln.indent < 4 {
		if level := headingLevel(ln.text); level > 0 {
			p.cur = -1
			p.open(Block{Kind: BlockHeading, Span: p.span(ln.start, ln.end), Level: level})
			p.words(len(p.doc.Blocks)-1, ln, level, 0)
			return i
		}
		if setext(ln.text) && p.cur >= 0 && p.doc.Blocks[p.cur].Kind == BlockParagraph {
			b := &p.doc.Blocks[p.cur]
			b.Kind = BlockRaw
			b.Span.End = uint32(ln.end)
			p.cur = -1
			return i
		}
		if thematic(ln.text) || strings.HasPrefix(ln.text, ">") || strings.HasPrefix(ln.text, "|") {
			return p.raw(i)
		}
	}
	if marker, ok := listMarker(ln.text); ok && ln.indent < 4+p.itemIndent() {
		p.open(Block{Kind: BlockItem, Span: p.span(ln.start, ln.end), Marker: marker, Indent: ln.indent})
		p.cur = len(p.doc.Blocks) - 1
		p.words(p.cur, ln, len(marker), 0)
		return i
	}
	if p.cur >= 0 {
		b := &p.doc.Blocks[p.cur]
		b.Span.End = uint32(ln.end)
		p.words(p.cur, ln, 0, b.Lines)
		return i
	}
	if ln.indent >= 4 {
		return p.raw(i)
	}
	p.open(Block{Kind: BlockParagraph, Span: p.span(ln.start, ln.end)})
	p.cur = len(p.doc.Blocks) - 1
	p.words(p.cur, ln, 0, 0)
	return i
}

func (p *parser) itemIndent() int {
	if p.cur < 0 || p.doc.Blocks[p.cur].Kind != BlockItem {
		return 0
	}
	return p.doc.Blocks[p.cur].Indent
}

// words appends the words of ln after skip bytes of its text.
func (p *parser) words(block int, ln line, skip, lineNo int) {
	base := ln.off
	text := ln.text
	for i := skip; i < len(text); {
		if text[i] == ' ' || text[i] == '\t' {
			i++
			continue
		}
		start := i
		for i < len(text) && text[i] != ' ' && text[i] != '\t' {
			i++
		}
		b := &p.doc.Blocks[block]
		b.Words = append(b.Words, Word{Span: p.span(base+start, base+i), Line: lineNo})
	}
	b := &p.doc.Blocks[block]
	b.Lines = lineNo + 1
	if strings.HasSuffix(string(p.src[ln.start:ln.end]), "  ") {
		b.Breaks = append(b.Breaks, lineNo)
	}
}

func (p *parser) comment(i int) int {
	p.cur = -1
	start := p.lines[i].off
	for j := i; j < len(p.lines); j++ {
		ln := p.lines[j]
		if !strings.Contains(string(p.src[ln.start:ln.end]), "-->") {
			continue
		}
		if !strings.HasSuffix(ln.text, "-->") {
			break
		}
		end := ln.start + strings.LastIndex(string(p.src[ln.start:ln.end]), "-->") + 3
		p.doc.raws = append(p.doc.raws, comments.Raw{Span: p.span(start, end), Kind: comments.Block})
		p.blank = false
		return j
	}
	return p.raw(i)
}

func (p *parser) fence(i int) int {
	p.cur = -1
	first := p.lines[i]
	delim := first.text[:3]
	for j := i + 1; j < len(p.lines); j++ {
		if strings.HasPrefix(p.lines[j].text, delim) && strings.Trim(p.lines[j].text, delim[:1]) == "" {
			p.open(Block{Kind: BlockFence, Span: p.span(first.start, p.lines[j].end)})
			return j
		}
	}
	last := p.lines[len(p.lines)-1]
	p.open(Block{Kind: BlockFence, Span: p.span(first.start, last.end)})
	return len(p.lines) - 1
}

// raw consumes lines up to the next blank line.
func (p *parser) raw(i int) int {
	p.cur = -1
	j := i
	for j+1 < len(p.lines) && p.lines[j+1].text != "" {
		j++
	}
	if thematic(p.lines[i].text) {
		j = i
	}
	p.open(Block{Kind: BlockRaw, Span: p.span(p.lines[i].start, p.lines[j].end)})
	return j
}

func headingLevel(s string) int {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || (n < len(s) && s[n] != ' ' && s[n] != '\t') {
		return 0
	}
	return n
}

func thematic(s string) bool {
	if len(s) < 3 {
		return false
	}
	c := s[0]
	if c != '-' && c != '*' && c != '_' && c != '=' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != c && s[i] != ' ' {
			return false
		}
	}
	return true
}

// setext reports an underline turning the paragraph above into a heading.
func setext(s string) bool {
	return strings.Trim(s, "=") == "" || strings.Trim(s, "-") == ""
}

func listMarker(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '-' || s[0] == '*' || s[0] == '+') && (s[1] == ' ' || s[1] == '\t') {
		return s[:1], true
	}
	if len(s) == 1 && (s[0] == '-' || s[0] == '*' || s[0] == '+') {
		return s, true
	}
	n := 0
	for n < len(s) && n < 9 && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 || n >= len(s) || (s[n] != '.' && s[n] != ')') {
		return "", false
	}
	if n+1 < len(s) && s[n+1] != ' ' && s[n+1] != '\t' {
		return "", false
	}
	return s[:n+1], true
}
