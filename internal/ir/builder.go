package ir

import (
	"strings"

	"loom/internal/invariant"
	"loom/internal/source"
)

// Text creates a literal. s must not contain a newline.
func Text(s string) Element {
	invariant.Assert(!strings.ContainsAny(s, "\n\r"), "text %q contains a line break", s)
	return Element{
		Kind:  KindText,
		Text:  s,
		Width: FirstLineWidth(s),
		Tabs:  strings.IndexByte(s, '\t') >= 0,
	}
}

// TextAt creates a literal that maps back to span in the source map.
func TextAt(s string, span source.Span) Element {
	e := Text(s)
	e.Span = span
	e.HasSpan = true
	return e
}

// Space emits one space; adjacent spaces collapse.
func Space() Element { return Element{Kind: KindSpace} }

func SoftLine() Element        { return Element{Kind: KindLine, Line: LineSoft} }
func SoftLineOrSpace() Element { return Element{Kind: KindLine, Line: LineSoftOrSpace} }
func HardLine() Element        { return Element{Kind: KindLine, Line: LineHard} }
func EmptyLine() Element       { return Element{Kind: KindLine, Line: LineEmpty} }

// ExpandParent forces the directly enclosing group expanded without output.
func ExpandParent() Element { return Element{Kind: KindExpandParent} }

// LineSuffixBoundary flushes pending line suffixes, breaking the line if any are queued.
func LineSuffixBoundary() Element { return Element{Kind: KindLineSuffixBoundary} }

// Concat joins parts without separators. Empty parts are dropped and a
// single remaining part is returned as is.
func Concat(parts ...Element) Element {
	out := make([]Element, 0, len(parts))
	for _, p := range parts {
		if p.Kind == KindList && len(p.Content) == 0 {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 1 {
		return out[0]
	}
	return Element{Kind: KindList, Content: out}
}

// Empty returns the no-op element, used for absent optional children.
func Empty() Element { return Element{Kind: KindList} }

func Indent(content ...Element) Element {
	return Element{Kind: KindIndent, Content: content}
}

// Dedent removes one indentation level from content.
func Dedent(content ...Element) Element {
	return Element{Kind: KindDedent, Content: content}
}

// DedentToRoot prints content at column zero indentation.
func DedentToRoot(content ...Element) Element {
	return Element{Kind: KindDedent, Root: true, Content: content}
}

// Align adds width spaces of alignment on top of the current indentation.
func Align(width int, content ...Element) Element {
	if width <= 0 {
		return Concat(content...)
	}
	return Element{Kind: KindAlign, Align: width, Content: content}
}

func Group(content ...Element) Element {
	return Element{Kind: KindGroup, Content: content}
}

// GroupWith creates a group other elements can refer to by id.
func GroupWith(id GroupID, content ...Element) Element {
	return Element{Kind: KindGroup, ID: id, Content: content}
}

// GroupExpanded creates a group that skips the fits check.
func GroupExpanded(id GroupID, content ...Element) Element {
	return Element{Kind: KindGroup, ID: id, Expand: ExpandAlways, Content: content}
}

// IfBreak renders content only when group id (NoGroup = enclosing) is expanded.
func IfBreak(id GroupID, content ...Element) Element {
	return Element{Kind: KindConditional, ID: id, Mode: ModeExpanded, Content: content}
}

// IfFlat renders content only when group id (NoGroup = enclosing) is flat.
func IfFlat(id GroupID, content ...Element) Element {
	return Element{Kind: KindConditional, ID: id, Mode: ModeFlat, Content: content}
}

// IndentIfBreak indents content only when group id is expanded.
func IndentIfBreak(id GroupID, content ...Element) Element {
	invariant.Assert(id != NoGroup, "indent_if_break needs a group id")
	return Element{Kind: KindIndentIfBreak, ID: id, Content: content}
}

// Fill lays out items separated by sep, breaking each separator independently.
func Fill(sep Element, items ...Element) Element {
	content := make([]Element, 0, 2*len(items))
	for i, it := range items {
		if i > 0 {
			content = append(content, sep)
		}
		content = append(content, it)
	}
	return Element{Kind: KindFill, Content: content}
}

// BestFitting picks the first variant that fits, most condensed first.
// The last variant is used unconditionally.
func BestFitting(variants ...Element) Element {
	invariant.Assert(len(variants) >= 2, "best fitting needs at least two variants, got %d", len(variants))
	switch len(variants) {
	case 0:
		return Empty()
	case 1:
		return variants[0]
	}
	vs := make([][]Element, len(variants))
	for i := range variants {
		vs[i] = []Element{variants[i]}
	}
	return Element{Kind: KindBestFitting, Variants: vs}
}

// LineSuffix defers content to the end of the current line.
func LineSuffix(content ...Element) Element {
	return Element{Kind: KindLineSuffix, Content: content}
}

// Verbatim copies raw unchanged. Only lone "\n" line breaks are expected.
func Verbatim(raw string, span source.Span) Element {
	return Element{
		Kind:    KindVerbatim,
		Text:    raw,
		Width:   FirstLineWidth(raw),
		Tabs:    strings.IndexByte(raw, '\t') >= 0,
		Span:    span,
		HasSpan: true,
	}
}

// VerbatimFile copies the bytes of span out of file.
func VerbatimFile(file *source.File, span source.Span) Element {
	return Verbatim(string(file.Slice(span)), span)
}

// Removed records that span was deleted; it prints nothing.
func Removed(span source.Span) Element {
	return Element{Kind: KindRemoved, Span: span, HasSpan: true}
}

// SourcePos marks the current output position as source offset off.
func SourcePos(file source.FileID, off uint32) Element {
	return Element{Kind: KindSourcePos, Span: source.Span{File: file, Start: off, End: off}, HasSpan: true}
}

// Intern wraps content so that copies of the returned element share it.
// The printer measures shared content once per starting column.
func Intern(content ...Element) Element {
	return Element{Kind: KindInterned, Content: content}
}

// Join puts sep between parts.
func Join(sep Element, parts ...Element) Element {
	out := make([]Element, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return Element{Kind: KindList, Content: out}
}

// JoinLines puts a hard line between parts.
func JoinLines(parts ...Element) Element {
	return Join(HardLine(), parts...)
}

// CommaList joins parts with "," and a soft line or space, the usual
// layout of a delimited list body.
func CommaList(parts ...Element) Element {
	return Join(Concat(Text(","), SoftLineOrSpace()), parts...)
}
