package ir

import (
	"errors"
	"fmt"

	"loom/internal/source"
)

// ErrMissingChild is returned when a node lacks a child its layout requires.
var ErrMissingChild = errors.New("missing required child")

// ConstructionError is a recoverable failure while building a node's IR.
// The caller substitutes a verbatim copy of Span.
type ConstructionError struct {
	Node string
	Span source.Span
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("build %s at %s: %v", e.Node, e.Span, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Missing reports an absent required child of node.
func Missing(node, child string, span source.Span) error {
	return &ConstructionError{
		Node: node,
		Span: span,
		Err:  fmt.Errorf("%w: %s", ErrMissingChild, child),
	}
}
