package comments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"loom/internal/ir"
	"loom/internal/printer"
	"loom/internal/source"
)

type fixture struct {
	file  *source.File
	nodes []Node
	raws  []Raw
}

func span(start, end uint32) source.Span { return source.Span{Start: start, End: end} }

func newFixture(t *testing.T, text string, nodes []Node) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.jsonc", []byte(text))
	f := &fixture{file: fs.Get(id), nodes: nodes}
	for i := range f.nodes {
		f.nodes[i].Span.File = id
	}
	content := f.file.Content
	for i := 0; i < len(content); i++ {
		switch {
		case strings.HasPrefix(string(content[i:]), "//"):
			end := i
			for end < len(content) && content[end] != '\n' {
				end++
			}
			f.raws = append(f.raws, Raw{Span: source.Span{File: id, Start: uint32(i), End: uint32(end)}, Kind: Line})
			i = end
		case strings.HasPrefix(string(content[i:]), "/*"):
			end := strings.Index(string(content[i:]), "*/") + i + 2
			f.raws = append(f.raws, Raw{Span: source.Span{File: id, Start: uint32(i), End: uint32(end)}, Kind: Block})
			i = end - 1
		}
	}
	return f
}

func TestClassifyPlacement(t *testing.T) {
	text := "// head\n[1, /* mid */ 2] // tail  \n\n\n/* own */\n"
	f := newFixture(t, text, nil)
	got := Classify(f.file, f.raws)
	require.Len(t, got, 4)

	require.Equal(t, OwnLine, got[0].Placement)
	require.Equal(t, 1, got[0].LinesAfter)

	require.Equal(t, Remaining, got[1].Placement)
	require.Equal(t, "/* mid */", got[1].Text)

	require.Equal(t, EndOfLine, got[2].Placement)
	require.Equal(t, "// tail", got[2].Text, "trailing blanks trimmed")

	require.Equal(t, OwnLine, got[3].Placement)
	require.Equal(t, 3, got[3].LinesBefore)
}

func arrayNodes() []Node {
	// "[1, 2] // b\n"
	return []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 12)},
		{ID: 1, Parent: 0, Span: span(0, 6)},
		{ID: 2, Parent: 1, Span: span(1, 2)},
		{ID: 3, Parent: 1, Span: span(4, 5)},
	}
}

func TestAttachEndOfLineToPreceding(t *testing.T) {
	f := newFixture(t, "[1, 2] // b\n", arrayNodes())
	m := Attach(f.nodes, Classify(f.file, f.raws))

	id, pos := m.Anchor(0)
	require.Equal(t, NodeID(1), id)
	require.Equal(t, Trailing, pos)
	require.True(t, m.HasTrailingLineComment(1))
}

func TestAttachOwnLineToFollowing(t *testing.T) {
	text := "[1,\n// c\n2]\n"
	nodes := []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 12)},
		{ID: 1, Parent: 0, Span: span(0, 11)},
		{ID: 2, Parent: 1, Span: span(1, 2)},
		{ID: 3, Parent: 1, Span: span(9, 10)},
	}
	f := newFixture(t, text, nodes)
	m := Attach(f.nodes, Classify(f.file, f.raws))

	id, pos := m.Anchor(0)
	require.Equal(t, NodeID(3), id)
	require.Equal(t, Leading, pos)
	require.Equal(t, []int{0}, m.Leading(3))
}

func TestAttachDanglingInEmptyContainer(t *testing.T) {
	text := "[ /* empty */ ]\n"
	nodes := []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 16)},
		{ID: 1, Parent: 0, Span: span(0, 15)},
	}
	f := newFixture(t, text, nodes)
	m := Attach(f.nodes, Classify(f.file, f.raws))

	id, pos := m.Anchor(0)
	require.Equal(t, NodeID(1), id)
	require.Equal(t, Dangling, pos)
	require.True(t, m.HasDangling(1))

	out := render(t, ir.Concat(ir.Text("["), m.FormatDangling(1), ir.Text("]")))
	require.Equal(t, "[/* empty */]", out)
	require.Empty(t, m.Unformatted())
}

func TestAttachEndOfLineAfterOpeningToken(t *testing.T) {
	text := "[ // open\n  1]\n"
	nodes := []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 15)},
		{ID: 1, Parent: 0, Span: span(0, 14)},
		{ID: 2, Parent: 1, Span: span(12, 13)},
	}
	f := newFixture(t, text, nodes)
	m := Attach(f.nodes, Classify(f.file, f.raws))

	id, pos := m.Anchor(0)
	require.Equal(t, NodeID(1), id)
	require.Equal(t, Dangling, pos)
	require.Empty(t, m.Leading(2))
	require.True(t, m.BreaksLine(1))

	doc := ir.Group(ir.Text("["), m.FormatOpening(1), ir.Indent(ir.SoftLine(), ir.Text("1")), ir.SoftLine(), ir.Text("]"))
	require.Equal(t, "[ // open\n  1\n]", render(t, doc))
	require.Empty(t, m.Unformatted())
}

func TestIgnoreDirective(t *testing.T) {
	text := "// loom-ignore\n[1,2]\n"
	nodes := []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 21)},
		{ID: 1, Parent: 0, Span: span(15, 20)},
	}
	f := newFixture(t, text, nodes)
	m := Attach(f.nodes, Classify(f.file, f.raws))
	require.True(t, m.IsIgnored(1))
	require.False(t, m.IsIgnored(0))
}

func TestFormatLeadingAndTrailing(t *testing.T) {
	f := newFixture(t, "[1, 2] // b\n", arrayNodes())
	m := Attach(f.nodes, Classify(f.file, f.raws))

	doc := ir.Concat(
		ir.Group(ir.Text("["), ir.Text("1, 2"), ir.Text("]"), m.FormatTrailing(1)),
		ir.HardLine(),
	)
	require.Equal(t, "[1, 2] // b\n", render(t, doc))
	require.Empty(t, m.Unformatted())
}

func TestFormatLeadingKeepsBlankLine(t *testing.T) {
	text := "// one\n\n// two\n[]\n"
	nodes := []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 19)},
		{ID: 1, Parent: 0, Span: span(16, 18)},
	}
	f := newFixture(t, text, nodes)
	m := Attach(f.nodes, Classify(f.file, f.raws))
	require.Equal(t, []int{0, 1}, m.Leading(1))

	doc := ir.Concat(m.FormatLeading(1), ir.Text("[]"), ir.HardLine())
	require.Equal(t, "// one\n\n// two\n[]\n", render(t, doc))
	require.Empty(t, m.Leading(1), "formatted comments are not returned again")
}

func TestVerbatimMarksInnerComments(t *testing.T) {
	f := newFixture(t, "[1, /* a */ 2] // b\n", []Node{
		{ID: 0, Parent: NoNode, Span: span(0, 20)},
		{ID: 1, Parent: 0, Span: span(0, 14)},
		{ID: 2, Parent: 1, Span: span(1, 2)},
		{ID: 3, Parent: 1, Span: span(12, 13)},
	})
	m := Attach(f.nodes, Classify(f.file, f.raws))
	require.Len(t, m.Unformatted(), 2)

	el := m.Verbatim(f.file, f.nodes[1].Span)
	require.Equal(t, "[1, /* a */ 2]", el.Text)
	require.Equal(t, []int{1}, m.Unformatted())
}

func render(t *testing.T, root ir.Element) string {
	t.Helper()
	doc := ir.NewDocument(root, ir.NewGroupIDs())
	out, err := printer.Print(&doc, printer.DefaultOptions())
	require.NoError(t, err)
	return string(out.Code)
}
