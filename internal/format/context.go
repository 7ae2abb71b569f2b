package format

import (
	"errors"

	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/ir"
	"loom/internal/source"
)

// Context is handed to every layout rule of one pass.
type Context struct {
	Options  Options
	File     *source.File
	Comments *comments.Map
	IDs      *ir.GroupIDs
	Reporter diag.Reporter

	fallbacks int
}

// NewContext prepares a pass over file with the given comment map.
func NewContext(opts Options, file *source.File, cm *comments.Map, rep diag.Reporter) *Context {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Context{
		Options:  opts,
		File:     file,
		Comments: cm,
		IDs:      ir.NewGroupIDs(),
		Reporter: rep,
	}
}

// Fallbacks counts nodes that were emitted verbatim.
func (c *Context) Fallbacks() int { return c.fallbacks }

// Verbatim copies span from the source and consumes its comments.
func (c *Context) Verbatim(span source.Span) ir.Element {
	if c.Comments == nil {
		return ir.VerbatimFile(c.File, span)
	}
	return c.Comments.Verbatim(c.File, span)
}

// Rule builds the layout of one node.
type Rule func() (ir.Element, error)

// FormatNode emits node with its leading and trailing comments. A node
// preceded by an ignore comment is copied verbatim, and so is a node whose
// rule fails with a recoverable construction error.
func FormatNode(ctx *Context, node comments.Node, rule Rule) (ir.Element, error) {
	cm := ctx.Comments
	if cm == nil {
		return ctx.body(node, rule)
	}
	leading := cm.FormatLeading(node.ID)
	var body ir.Element
	if cm.IsIgnored(node.ID) {
		diag.ReportInfo(ctx.Reporter, diag.FmtIgnored, node.Span, "kept as written").Emit()
		body = ctx.Verbatim(node.Span)
	} else {
		var err error
		if body, err = ctx.body(node, rule); err != nil {
			return ir.Element{}, err
		}
	}
	return ir.Concat(leading, body, cm.FormatTrailing(node.ID)), nil
}

func (c *Context) body(node comments.Node, rule Rule) (ir.Element, error) {
	el, err := rule()
	if err == nil {
		return el, nil
	}
	var ce *ir.ConstructionError
	if !errors.As(err, &ce) {
		return ir.Element{}, err
	}
	c.fallbacks++
	diag.ReportInfo(c.Reporter, diag.FmtVerbatimFallback, node.Span, ce.Error()).Emit()
	return c.Verbatim(node.Span), nil
}
