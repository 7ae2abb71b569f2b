package format

import (
	"errors"

	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/ir"
	"loom/internal/source"
)

var (
	// ErrParse means the file could not be parsed at all. Recoverable
	// syntax errors are reported as diagnostics instead.
	ErrParse = errors.New("parse failed")
	// ErrUnknownLanguage means no language is registered for a file.
	ErrUnknownLanguage = errors.New("unknown language")
)

// ParseError is returned when a file cannot be parsed. It matches ErrParse
// and keeps the diagnostics reported before the parser gave up.
type ParseError struct {
	Path        string
	Diagnostics []diag.Diagnostic
	Err         error
}

func (e *ParseError) Error() string { return ErrParse.Error() + ": " + e.Path + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Syntax is a parsed file as the formatting core sees it.
type Syntax interface {
	// Nodes lists the syntax nodes in pre-order, node 0 being the root.
	Nodes() []comments.Node
	// Comments lists the comments the lexer skipped, in source order.
	Comments() []comments.Raw
}

// Language parses one file type and lays it out.
type Language interface {
	Name() string
	Extensions() []string
	Parse(file *source.File, rep diag.Reporter) (Syntax, error)
	Format(ctx *Context, syntax Syntax) (ir.Element, error)
}
