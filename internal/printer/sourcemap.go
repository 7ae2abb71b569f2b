package printer

import (
	"sort"

	"loom/internal/source"
)

// Range is a half-open byte range in the printed output.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Marker ties a source span to the output bytes printed for it.
// Removed tokens and position marks have an empty Dest.
type Marker struct {
	Source source.Span
	Dest   Range
}

// SourceMap translates source positions into output positions.
// Markers are in output order.
type SourceMap struct {
	Markers []Marker
	Size    int // output length

	bySource []int // marker indices sorted by source start, built lazily
}

func (m *SourceMap) add(src source.Span, dst Range) {
	m.Markers = append(m.Markers, Marker{Source: src, Dest: dst})
}

// MapRange narrows src to the tokens it fully contains and returns the
// covering source span together with the output range printed for those
// tokens. Replacing the returned source span by the returned output range
// turns the original text into the formatted text for that region.
// ok is false when src contains no mapped token.
func (m *SourceMap) MapRange(src source.Span) (source.Span, Range, bool) {
	var (
		outSrc source.Span
		outDst Range
		found  bool
	)
	for _, mk := range m.Markers {
		if mk.Source.File != src.File || mk.Source.Start < src.Start || mk.Source.End > src.End {
			continue
		}
		if !found {
			outSrc, outDst, found = mk.Source, mk.Dest, true
			continue
		}
		outSrc = outSrc.Cover(mk.Source)
		outDst.Start = min(outDst.Start, mk.Dest.Start)
		outDst.End = max(outDst.End, mk.Dest.End)
	}
	return outSrc, outDst, found
}

// MapOffset translates a caret offset in the source into the output.
// A caret inside a token keeps its distance from the token start (clamped to
// the printed token); a caret in whitespace moves to the start of the next
// token, or to the end of the preceding token when it touches it.
func (m *SourceMap) MapOffset(off uint32) int {
	idx := m.sourceOrder()
	if len(idx) == 0 {
		return min(int(off), m.Size)
	}
	// первый маркер, начинающийся после off
	i := sort.Search(len(idx), func(i int) bool {
		return m.Markers[idx[i]].Source.Start > off
	})
	if i > 0 {
		prev := m.Markers[idx[i-1]]
		if off < prev.Source.End || (off == prev.Source.End && prev.Source.Start < off) {
			delta := min(int(off-prev.Source.Start), prev.Dest.Len())
			return prev.Dest.Start + delta
		}
		if off == prev.Source.Start {
			return prev.Dest.Start
		}
	}
	if i < len(idx) {
		return m.Markers[idx[i]].Dest.Start
	}
	return m.Size
}

func (m *SourceMap) sourceOrder() []int {
	if m.bySource != nil || len(m.Markers) == 0 {
		return m.bySource
	}
	idx := make([]int, len(m.Markers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return m.Markers[idx[a]].Source.Start < m.Markers[idx[b]].Source.Start
	})
	m.bySource = idx
	return idx
}
