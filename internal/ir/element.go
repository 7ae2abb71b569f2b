package ir

import (
	"fmt"

	"fortio.org/safecast"

	"loom/internal/source"
)

// Kind discriminates Element variants.
type Kind uint8

const (
	KindList Kind = iota
	KindText
	KindSpace
	KindLine
	KindExpandParent
	KindIndent
	KindDedent
	KindAlign
	KindGroup
	KindConditional
	KindIndentIfBreak
	KindFill
	KindBestFitting
	KindLineSuffix
	KindLineSuffixBoundary
	KindVerbatim
	KindRemoved
	KindInterned
	KindSourcePos
)

var kindNames = [...]string{
	KindList:               "list",
	KindText:               "text",
	KindSpace:              "space",
	KindLine:               "line",
	KindExpandParent:       "expand_parent",
	KindIndent:             "indent",
	KindDedent:             "dedent",
	KindAlign:              "align",
	KindGroup:              "group",
	KindConditional:        "if",
	KindIndentIfBreak:      "indent_if_break",
	KindFill:               "fill",
	KindBestFitting:        "best_fitting",
	KindLineSuffix:         "line_suffix",
	KindLineSuffixBoundary: "line_suffix_boundary",
	KindVerbatim:           "verbatim",
	KindRemoved:            "removed",
	KindInterned:           "interned",
	KindSourcePos:          "source_pos",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// LineMode selects the behaviour of a Line element.
type LineMode uint8

const (
	// LineSoft prints nothing when flat and a newline when expanded.
	LineSoft LineMode = iota
	// LineSoftOrSpace prints a space when flat and a newline when expanded.
	LineSoftOrSpace
	// LineHard always breaks and forces the enclosing group expanded.
	LineHard
	// LineEmpty prints a blank line and forces the enclosing group expanded.
	LineEmpty
)

func (m LineMode) String() string {
	switch m {
	case LineSoft:
		return "soft"
	case LineSoftOrSpace:
		return "soft_or_space"
	case LineHard:
		return "hard"
	case LineEmpty:
		return "empty"
	}
	return "unknown"
}

// Forces reports whether the line breaks regardless of the group mode.
func (m LineMode) Forces() bool {
	return m == LineHard || m == LineEmpty
}

// Mode is the resolved rendering of a group.
type Mode uint8

const (
	ModeFlat Mode = iota
	ModeExpanded
)

func (m Mode) String() string {
	if m == ModeExpanded {
		return "expanded"
	}
	return "flat"
}

// Expand controls whether a group is width-checked.
type Expand uint8

const (
	ExpandAuto Expand = iota
	ExpandAlways
)

// GroupID is an opaque handle naming a group inside one formatting pass.
// The zero value refers to "the enclosing group".
type GroupID uint32

const NoGroup GroupID = 0

// Element is one node of the formatting IR. Which fields are meaningful
// depends on Kind:
//
//	Text, Verbatim          Text, Width, Tabs, Span
//	Line                    Line
//	Align                   Align
//	Dedent                  Root
//	Group                   ID, Expand, Content
//	Conditional             ID, Mode, Content
//	IndentIfBreak           ID, Content
//	Fill                    Content (item, separator, item, ...)
//	BestFitting             Variants
//	Removed, SourcePos      Span
//	everything else         Content
type Element struct {
	Kind     Kind        `msgpack:"k"`
	Text     string      `msgpack:"t,omitempty"`
	Width    int         `msgpack:"w,omitempty"`
	Tabs     bool        `msgpack:"tb,omitempty"`
	Span     source.Span `msgpack:"s,omitempty"`
	HasSpan  bool        `msgpack:"hs,omitempty"`
	Line     LineMode    `msgpack:"l,omitempty"`
	Align    int         `msgpack:"a,omitempty"`
	Root     bool        `msgpack:"r,omitempty"`
	ID       GroupID     `msgpack:"id,omitempty"`
	Expand   Expand      `msgpack:"x,omitempty"`
	Mode     Mode        `msgpack:"m,omitempty"`
	Content  []Element   `msgpack:"c,omitempty"`
	Variants [][]Element `msgpack:"v,omitempty"`
}

// IsEmpty reports whether the element produces no output and no layout effect.
func (e *Element) IsEmpty() bool {
	switch e.Kind {
	case KindList, KindInterned:
		for i := range e.Content {
			if !e.Content[i].IsEmpty() {
				return false
			}
		}
		return true
	case KindText:
		return e.Text == "" && !e.HasSpan
	}
	return false
}

// Document is the root of one formatting pass.
type Document struct {
	Root   Element `msgpack:"root"`
	Groups uint32  `msgpack:"groups"`
}

// NewDocument wraps root; ids is the allocator used while building it (may be nil).
func NewDocument(root Element, ids *GroupIDs) Document {
	doc := Document{Root: root}
	if ids != nil {
		n, err := safecast.Conv[uint32](ids.Count())
		if err != nil {
			panic(fmt.Errorf("group id overflow: %w", err))
		}
		doc.Groups = n
	}
	return doc
}

// GroupIDs hands out group ids for one pass. It is not safe for concurrent use;
// each formatting call owns its allocator.
type GroupIDs struct {
	next  GroupID
	names []string
}

// NewGroupIDs returns an allocator whose first id is 1.
func NewGroupIDs() *GroupIDs {
	return &GroupIDs{names: []string{""}}
}

// New allocates a fresh id. The debug name shows up in IR dumps.
func (g *GroupIDs) New(name string) GroupID {
	if g.next == 0 {
		g.next = 1
		if len(g.names) == 0 {
			g.names = []string{""}
		}
	}
	id := g.next
	g.next++
	g.names = append(g.names, name)
	return id
}

// Name returns the debug name given to id.
func (g *GroupIDs) Name(id GroupID) string {
	if g == nil || int(id) >= len(g.names) {
		return ""
	}
	return g.names[id]
}

// Count returns the number of allocated ids.
func (g *GroupIDs) Count() int {
	if g.next == 0 {
		return 0
	}
	return int(g.next) - 1
}
