package format

import (
	"fmt"
	"strings"

	"loom/internal/printer"
)

type QuoteStyle uint8

const (
	QuoteDouble QuoteStyle = iota
	QuoteSingle
	QuotePreserve
)

func (q QuoteStyle) String() string {
	switch q {
	case QuoteSingle:
		return "single"
	case QuotePreserve:
		return "preserve"
	}
	return "double"
}

func ParseQuoteStyle(s string) (QuoteStyle, error) {
	switch strings.ToLower(s) {
	case "double", "":
		return QuoteDouble, nil
	case "single":
		return QuoteSingle, nil
	case "preserve":
		return QuotePreserve, nil
	}
	return QuoteDouble, fmt.Errorf("%w: quote style %q", printer.ErrInvalidOptions, s)
}

type TrailingComma uint8

const (
	TrailingCommaNone TrailingComma = iota
	TrailingCommaAll
	// TrailingCommaES5 adds commas where ES5 allows them: arrays and objects.
	TrailingCommaES5
)

func (t TrailingComma) String() string {
	switch t {
	case TrailingCommaAll:
		return "all"
	case TrailingCommaES5:
		return "es5"
	}
	return "none"
}

func ParseTrailingComma(s string) (TrailingComma, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return TrailingCommaNone, nil
	case "all":
		return TrailingCommaAll, nil
	case "es5", "es5-like":
		return TrailingCommaES5, nil
	}
	return TrailingCommaNone, fmt.Errorf("%w: trailing comma %q", printer.ErrInvalidOptions, s)
}

type ProseWrap uint8

const (
	// ProseWrapPreserve keeps the source line breaks of paragraphs.
	ProseWrapPreserve ProseWrap = iota
	// ProseWrapAlways refills paragraphs to the print width.
	ProseWrapAlways
)

func (p ProseWrap) String() string {
	if p == ProseWrapAlways {
		return "always"
	}
	return "preserve"
}

func ParseProseWrap(s string) (ProseWrap, error) {
	switch strings.ToLower(s) {
	case "preserve", "":
		return ProseWrapPreserve, nil
	case "always":
		return ProseWrapAlways, nil
	}
	return ProseWrapPreserve, fmt.Errorf("%w: prose wrap %q", printer.ErrInvalidOptions, s)
}

// Options is everything a formatting pass reads. It is resolved once per
// file and never modified during the pass.
type Options struct {
	Printer printer.Options
	// KeepLineEnding prints CRLF for files that used CRLF and ignores
	// Printer.LineEnding otherwise.
	KeepLineEnding bool
	QuoteStyle     QuoteStyle
	TrailingComma  TrailingComma
	ProseWrap      ProseWrap
}

func DefaultOptions() Options {
	return Options{Printer: printer.DefaultOptions()}
}
