package prose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"loom/internal/format"
	"loom/internal/source"
)

func fileOf(text string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("in.md", []byte(text)))
}

func options(width int, wrap format.ProseWrap) format.Options {
	opts := format.DefaultOptions()
	if width > 0 {
		opts.Printer.PrintWidth = width
	}
	opts.ProseWrap = wrap
	return opts
}

func formatText(t *testing.T, text string, opts format.Options) string {
	t.Helper()
	res, err := format.FormatFile(context.Background(), New(), fileOf(text), opts)
	require.NoError(t, err)
	return string(res.Code)
}

func TestParseBlocks(t *testing.T) {
	doc := Parse(fileOf("# Title\n\npara one\ntwo\n\n- a\n- b\n\n```\ncode\n```\n\n> quote\n> more\n\n<!-- note -->\n"))
	var kinds []BlockKind
	for _, b := range doc.Blocks[1:] {
		kinds = append(kinds, b.Kind)
	}
	require.Equal(t, []BlockKind{BlockHeading, BlockParagraph, BlockItem, BlockItem, BlockFence, BlockRaw}, kinds)
	require.Equal(t, 1, doc.Blocks[1].Level)
	require.Len(t, doc.Blocks[2].Words, 3)
	require.Equal(t, 2, doc.Blocks[2].Lines)
	require.Len(t, doc.Comments(), 1)
}

func TestSetextParagraphKeptRaw(t *testing.T) {
	doc := Parse(fileOf("Title\n=====\n"))
	require.Len(t, doc.Blocks, 2)
	require.Equal(t, BlockRaw, doc.Blocks[1].Kind)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		width int
		wrap  format.ProseWrap
	}{
		{
			name:  "fill to width",
			in:    "The quick brown fox jumps over the lazy dog.\n",
			want:  "The quick brown fox\njumps over the lazy\ndog.\n",
			width: 20,
			wrap:  format.ProseWrapAlways,
		},
		{name: "preserve line breaks", in: "one  two\nthree\n", want: "one two\nthree\n"},
		{name: "heading", in: "#   Title   here  \ntext", want: "# Title here\n\ntext\n"},
		{
			name:  "list item aligned",
			in:    "- alpha beta gamma delta\n- two\n",
			want:  "- alpha beta\n  gamma\n  delta\n- two\n",
			width: 12,
			wrap:  format.ProseWrapAlways,
		},
		{name: "fence verbatim", in: "```go\nfunc  x() {}\n```\n\npara   text\n", want: "```go\nfunc  x() {}\n```\n\npara text\n"},
		{name: "blank lines collapse", in: "a\n\n\n\nb\n", want: "a\n\nb\n"},
		{name: "hard break kept", in: "one  \ntwo\n", want: "one  \ntwo\n"},
		{
			name:  "marker glued to previous word",
			in:    "aaaa - bbbb\n",
			want:  "aaaa -\nbbbb\n",
			width: 6,
			wrap:  format.ProseWrapAlways,
		},
		{name: "empty", in: "", want: ""},
		{name: "only comment", in: "<!-- c -->\n", want: "<!-- c -->\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, formatText(t, tc.in, options(tc.width, tc.wrap)))
		})
	}
}

func TestIgnoreComment(t *testing.T) {
	in := "<!-- loom-ignore -->\nkeep    this\n\nfix    this\n"
	require.Equal(t, "<!-- loom-ignore -->\nkeep    this\n\nfix this\n", formatText(t, in, options(0, format.ProseWrapPreserve)))
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"# Head\nsome words that go on and on and on - and a list marker.\n\n1. first item has words\n2. second\n",
		"para with a # hash and > quote and 3. number in the middle of the line\n",
		"<!-- lead -->\ntext  \nafter break\n\n    indented code\n",
	}
	for _, in := range inputs {
		for _, wrap := range []format.ProseWrap{format.ProseWrapPreserve, format.ProseWrapAlways} {
			opts := options(16, wrap)
			ok, msg, err := format.CheckIdempotent(context.Background(), New(), fileOf(in), opts)
			require.NoError(t, err)
			require.True(t, ok, "%q (%s): %s", in, wrap, msg)
		}
	}
}

func TestWidthRespectedWhenRefilling(t *testing.T) {
	in := strings.Repeat("lorem ipsum dolor sit amet ", 20) + "\n"
	out := formatText(t, in, options(30, format.ProseWrapAlways))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		require.LessOrEqual(t, len(line), 30, line)
	}
}
