package prose

import (
	"fmt"

	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/source"
)

// Language formats Markdown-like prose: headings, paragraphs, list items,
// fenced code and HTML comments. Markup it does not model is kept verbatim.
type Language struct{}

func New() *Language { return &Language{} }

func (*Language) Name() string { return "prose" }

func (*Language) Extensions() []string { return []string{".md", ".markdown"} }

func (*Language) Parse(file *source.File, _ diag.Reporter) (format.Syntax, error) {
	return Parse(file), nil
}

func (*Language) Format(ctx *format.Context, syntax format.Syntax) (ir.Element, error) {
	doc, ok := syntax.(*Document)
	if !ok {
		return ir.Element{}, fmt.Errorf("prose: unexpected syntax %T", syntax)
	}
	l := &layout{ctx: ctx, doc: doc, src: ctx.File.Content}
	return l.build()
}
