package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"loom/internal/source"
)

func TestTextMeasuresWidth(t *testing.T) {
	tests := []struct {
		text  string
		width int
		tabs  bool
	}{
		{"abc", 3, false},
		{"", 0, false},
		{"日本", 4, false},
		{"e\u0301", 1, false}, // NFC folds the combining acute
		{"a\tb", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := Text(tt.text)
			require.Equal(t, KindText, e.Kind)
			require.Equal(t, tt.width, e.Width)
			require.Equal(t, tt.tabs, e.Tabs)
		})
	}
}

func TestTextWithNewlinePanicsUnderTest(t *testing.T) {
	require.Panics(t, func() { Text("a\nb") })
}

func TestExpandTabs(t *testing.T) {
	require.Equal(t, 4, ExpandTabs(0, "\t", 4))
	require.Equal(t, 4, ExpandTabs(1, "\t", 4))
	require.Equal(t, 9, ExpandTabs(0, "ab\tcd\te", 4))
}

func TestVerbatimMeasuresFirstLine(t *testing.T) {
	e := Verbatim("ab\ncdefg", source.Span{Start: 1, End: 9})
	require.Equal(t, 2, e.Width)
	require.True(t, e.HasSpan)
}

func TestConcatDropsEmpty(t *testing.T) {
	require.Equal(t, KindText, Concat(Empty(), Text("x"), Empty()).Kind)
	c := Concat(Text("a"), Empty(), Text("b"))
	require.Equal(t, KindList, c.Kind)
	require.Len(t, c.Content, 2)
	empty := Concat()
	require.True(t, empty.IsEmpty())
}

func TestFillAlternatesItemsAndSeparators(t *testing.T) {
	f := Fill(SoftLineOrSpace(), Text("a"), Text("b"), Text("c"))
	require.Equal(t, KindFill, f.Kind)
	require.Len(t, f.Content, 5)
	for i, e := range f.Content {
		if i%2 == 1 {
			require.Equal(t, KindLine, e.Kind)
		} else {
			require.Equal(t, KindText, e.Kind)
		}
	}
}

func TestBestFittingNeedsTwoVariants(t *testing.T) {
	require.Panics(t, func() { BestFitting(Text("only")) })
	b := BestFitting(Text("a"), Text("b"), Text("c"))
	require.Len(t, b.Variants, 3)
}

func TestJoin(t *testing.T) {
	j := Join(Text(","), Text("a"), Text("b"), Text("c"))
	require.Len(t, j.Content, 5)
	require.Equal(t, ",", j.Content[1].Text)
	require.Empty(t, Join(Text(",")).Content)
}

func TestGroupIDsArePerPass(t *testing.T) {
	a, b := NewGroupIDs(), NewGroupIDs()
	require.Equal(t, GroupID(1), a.New("x"))
	require.Equal(t, GroupID(2), a.New("y"))
	require.Equal(t, GroupID(1), b.New("z"))
	require.Equal(t, "y", a.Name(2))
	require.Equal(t, 2, a.Count())

	doc := NewDocument(Empty(), a)
	require.Equal(t, uint32(2), doc.Groups)
}

func TestMissingChild(t *testing.T) {
	err := Missing("member", "value", source.Span{Start: 3, End: 4})
	require.True(t, errors.Is(err, ErrMissingChild))
	var ce *ConstructionError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "member", ce.Node)
}

func TestWalkVisitsVariants(t *testing.T) {
	doc := NewDocument(Group(Text("a"), BestFitting(Text("b"), Indent(Text("c")))), nil)
	var texts []string
	Walk(&doc.Root, func(e *Element) bool {
		if e.Kind == KindText {
			texts = append(texts, e.Text)
		}
		return true
	})
	require.Equal(t, []string{"a", "b", "c"}, texts)

	stats := Stats(&doc)
	require.Equal(t, 3, stats[KindText])
	require.Equal(t, 1, stats[KindBestFitting])
}
