package comments

import (
	"strings"

	"loom/internal/source"
)

type Kind uint8

const (
	// Line comments run to the end of the line.
	Line Kind = iota
	// Block comments are delimited and may span lines.
	Block
)

// Placement is where a comment sits relative to the surrounding tokens.
type Placement uint8

const (
	// OwnLine: only whitespace precedes the comment on its line.
	OwnLine Placement = iota
	// EndOfLine: only whitespace follows the comment on its line.
	EndOfLine
	// Remaining: tokens on both sides on the same line.
	Remaining
)

func (p Placement) String() string {
	switch p {
	case OwnLine:
		return "own-line"
	case EndOfLine:
		return "end-of-line"
	}
	return "remaining"
}

// IgnoreDirective in a leading comment keeps the following node verbatim.
const IgnoreDirective = "loom-ignore"

// Raw is what a lexer reports for a comment.
type Raw struct {
	Span source.Span
	Kind Kind
}

type Comment struct {
	Span        source.Span
	Text        string // exact source text; trailing blanks trimmed for line comments
	Kind        Kind
	Placement   Placement
	LinesBefore int // line breaks between the previous token and the comment
	LinesAfter  int // line breaks between the comment and the next token
}

// Multiline reports whether the comment text spans several lines.
func (c *Comment) Multiline() bool {
	return strings.IndexByte(c.Text, '\n') >= 0
}

// IsIgnore reports whether the comment carries the ignore directive.
func (c *Comment) IsIgnore() bool {
	return strings.Contains(c.Text, IgnoreDirective)
}

// Classify turns raw lexer comments into comments with placement and
// surrounding line counts, computed from the file text.
func Classify(file *source.File, raws []Raw) []Comment {
	out := make([]Comment, 0, len(raws))
	content := file.Content
	for _, r := range raws {
		span := r.Span.Clamp(file.Len())
		text := string(content[span.Start:span.End])
		if r.Kind == Line {
			trimmed := strings.TrimRight(text, " \t")
			span.End -= uint32(len(text) - len(trimmed))
			text = trimmed
		}

		before, ownLine := scanBack(content, int(span.Start))
		after, endOfLine := scanForward(content, int(span.End))
		placement := Remaining
		switch {
		case ownLine:
			placement = OwnLine
		case endOfLine:
			placement = EndOfLine
		}
		out = append(out, Comment{
			Span:        span,
			Text:        text,
			Kind:        r.Kind,
			Placement:   placement,
			LinesBefore: before,
			LinesAfter:  after,
		})
	}
	return out
}

// scanBack counts line breaks in the whitespace before off and reports
// whether the comment starts its line.
func scanBack(content []byte, off int) (lines int, ownLine bool) {
	ownLine = true
	sawBreak := false
	for i := off - 1; i >= 0; i-- {
		switch content[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			lines++
			sawBreak = true
			continue
		}
		if !sawBreak {
			ownLine = false
		}
		return lines, ownLine
	}
	return lines, ownLine
}

func scanForward(content []byte, off int) (lines int, endOfLine bool) {
	endOfLine = true
	sawBreak := false
	for i := off; i < len(content); i++ {
		switch content[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			lines++
			sawBreak = true
			continue
		}
		if !sawBreak {
			endOfLine = false
		}
		return lines, endOfLine
	}
	return lines, endOfLine
}
