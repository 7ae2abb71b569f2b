package printer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions is returned for out-of-range print options.
var ErrInvalidOptions = errors.New("invalid print options")

const (
	DefaultPrintWidth  = 80
	DefaultIndentWidth = 2
	MaxPrintWidth      = 1000
	MaxIndentWidth     = 16
)

type IndentStyle uint8

const (
	IndentSpaces IndentStyle = iota
	IndentTabs
)

func (s IndentStyle) String() string {
	if s == IndentTabs {
		return "tab"
	}
	return "space"
}

// ParseIndentStyle accepts "tab"/"tabs" and "space"/"spaces".
func ParseIndentStyle(s string) (IndentStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tab", "tabs":
		return IndentTabs, nil
	case "space", "spaces", "":
		return IndentSpaces, nil
	}
	return IndentSpaces, fmt.Errorf("%w: indent style %q", ErrInvalidOptions, s)
}

type LineEnding uint8

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
	LineEndingCR
)

func (l LineEnding) String() string {
	switch l {
	case LineEndingCRLF:
		return "crlf"
	case LineEndingCR:
		return "cr"
	}
	return "lf"
}

// Sequence returns the bytes written for a line break.
func (l LineEnding) Sequence() string {
	switch l {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	}
	return "\n"
}

func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lf", "":
		return LineEndingLF, nil
	case "crlf":
		return LineEndingCRLF, nil
	case "cr":
		return LineEndingCR, nil
	}
	return LineEndingLF, fmt.Errorf("%w: line ending %q", ErrInvalidOptions, s)
}

// Options configure one print pass. The value is never mutated by the printer.
type Options struct {
	PrintWidth  int
	IndentStyle IndentStyle
	IndentWidth int
	TabWidth    int // width of a tab column; 0 means IndentWidth
	LineEnding  LineEnding
}

// DefaultOptions returns 80 columns, two-space indentation, LF.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.PrintWidth == 0 {
		o.PrintWidth = DefaultPrintWidth
	}
	if o.IndentWidth == 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	if o.TabWidth == 0 {
		o.TabWidth = o.IndentWidth
	}
	return o
}

// Validate checks ranges after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch {
	case o.PrintWidth < 1 || o.PrintWidth > MaxPrintWidth:
		return fmt.Errorf("%w: print width %d out of [1, %d]", ErrInvalidOptions, o.PrintWidth, MaxPrintWidth)
	case o.IndentWidth < 1 || o.IndentWidth > MaxIndentWidth:
		return fmt.Errorf("%w: indent width %d out of [1, %d]", ErrInvalidOptions, o.IndentWidth, MaxIndentWidth)
	case o.TabWidth < 1 || o.TabWidth > MaxIndentWidth:
		return fmt.Errorf("%w: tab width %d out of [1, %d]", ErrInvalidOptions, o.TabWidth, MaxIndentWidth)
	case o.IndentStyle > IndentTabs:
		return fmt.Errorf("%w: indent style %d", ErrInvalidOptions, o.IndentStyle)
	case o.LineEnding > LineEndingCR:
		return fmt.Errorf("%w: line ending %d", ErrInvalidOptions, o.LineEnding)
	}
	return nil
}
