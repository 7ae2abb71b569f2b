package jsonc

import (
	"fmt"

	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/source"
)

type Dialect uint8

const (
	// JSON accepts comments and trailing commas with a warning and never
	// prints trailing commas.
	JSON Dialect = iota
	JSONC
	JSON5
)

func (d Dialect) String() string {
	switch d {
	case JSONC:
		return "jsonc"
	case JSON5:
		return "json5"
	}
	return "json"
}

// Language formats one JSON dialect.
type Language struct {
	Dialect Dialect
}

func New(d Dialect) *Language { return &Language{Dialect: d} }

func (l *Language) Name() string { return l.Dialect.String() }

func (l *Language) Extensions() []string {
	switch l.Dialect {
	case JSONC:
		return []string{".jsonc"}
	case JSON5:
		return []string{".json5"}
	}
	return []string{".json"}
}

func (l *Language) Parse(file *source.File, rep diag.Reporter) (format.Syntax, error) {
	tree, err := Parse(file, l.Dialect, rep)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (l *Language) Format(ctx *format.Context, syntax format.Syntax) (ir.Element, error) {
	tree, ok := syntax.(*Tree)
	if !ok {
		return ir.Element{}, fmt.Errorf("jsonc: unexpected syntax %T", syntax)
	}
	return newBuilder(ctx, tree).build()
}
