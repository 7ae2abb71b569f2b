package testkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/source"
)

// NewFile adds text to a fresh file set.
func NewFile(path, text string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual(path, []byte(text)))
}

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) node 0 is the root and lies within file content bounds
// 2) every node span points at the file and sits inside its parent
// 3) parents come before their children
func CheckSpanInvariants(syn format.Syntax, sf *source.File) error {
	if syn == nil || sf == nil {
		return errors.New("nil syntax or file")
	}
	nodes := syn.Nodes()
	if len(nodes) == 0 {
		return errors.New("no root node")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	root := nodes[0]
	if root.Parent != comments.NoNode {
		return fmt.Errorf("root has parent %d", root.Parent)
	}
	if root.Span.End > lenContent {
		return fmt.Errorf("root span end beyond content: %d > %d", root.Span.End, lenContent)
	}
	for i, n := range nodes[1:] {
		id := i + 1
		if int(n.ID) != id {
			return fmt.Errorf("node %d has id %d", id, n.ID)
		}
		if n.Span.File != sf.ID {
			return fmt.Errorf("node %d span file mismatch: got=%d want=%d", id, n.Span.File, sf.ID)
		}
		if n.Span.End < n.Span.Start {
			return fmt.Errorf("node %d has inverted span %v", id, n.Span)
		}
		if n.Parent < 0 || int(n.Parent) >= id {
			return fmt.Errorf("node %d has parent %d out of order", id, n.Parent)
		}
		parent := nodes[n.Parent].Span
		if !parent.Encloses(n.Span) {
			return fmt.Errorf("node %d span %v is outside parent span %v", id, n.Span, parent)
		}
	}
	return nil
}

// CheckIdempotent formats out once more and fails when anything changes.
func CheckIdempotent(lang format.Language, path string, out []byte, opts format.Options) error {
	res, err := format.FormatFile(context.Background(), lang, NewFile(path, string(out)), opts)
	if err != nil {
		return fmt.Errorf("second pass: %w", err)
	}
	if !bytes.Equal(res.Code, out) {
		return fmt.Errorf("second pass changed the output:\n--- first\n%s\n--- second\n%s", out, res.Code)
	}
	return nil
}

// CheckWidth fails on a line wider than width unless unbreakable reports
// that the line cannot be shortened.
func CheckWidth(out []byte, width int, unbreakable func(line string) bool) error {
	for i, line := range strings.Split(string(out), "\n") {
		if w := ir.Width(line); w > width && (unbreakable == nil || !unbreakable(line)) {
			return fmt.Errorf("line %d is %d columns wide (limit %d): %q", i+1, w, width, line)
		}
	}
	return nil
}

// CheckCommentsKept verifies every comment of the input appears in the
// output in source order.
func CheckCommentsKept(syn format.Syntax, sf *source.File, out []byte) error {
	rest := out
	for _, c := range comments.Classify(sf, syn.Comments()) {
		idx := bytes.Index(rest, []byte(c.Text))
		if idx < 0 {
			return fmt.Errorf("comment %q at %v missing or out of order", c.Text, c.Span)
		}
		rest = rest[idx+len(c.Text):]
	}
	return nil
}

// CheckVerbatim verifies that every Verbatim element that is always printed
// shows up unchanged in the output. Conditional content and best-fitting
// variants are skipped.
func CheckVerbatim(doc *ir.Document, out []byte) error {
	var err error
	ir.Walk(&doc.Root, func(e *ir.Element) bool {
		switch e.Kind {
		case ir.KindConditional, ir.KindBestFitting:
			return false
		case ir.KindVerbatim:
			if err == nil && !bytes.Contains(out, []byte(e.Text)) {
				err = fmt.Errorf("verbatim %q at %v not found in output", e.Text, e.Span)
			}
		}
		return true
	})
	return err
}

// CheckAll formats text and runs every invariant on the result.
func CheckAll(lang format.Language, path, text string, opts format.Options, unbreakable func(string) bool) error {
	sf := NewFile(path, text)
	syn, err := lang.Parse(sf, diag.NopReporter{})
	if err != nil {
		if errors.Is(err, format.ErrParse) {
			return nil
		}
		return err
	}
	if err := CheckSpanInvariants(syn, sf); err != nil {
		return err
	}
	res, err := format.FormatFile(context.Background(), lang, sf, opts)
	if err != nil {
		if errors.Is(err, format.ErrParse) {
			return nil
		}
		return err
	}
	if res.Unchanged {
		return nil
	}
	if err := CheckCommentsKept(syn, sf, res.Code); err != nil {
		return err
	}
	if err := CheckVerbatim(&res.Document, res.Code); err != nil {
		return err
	}
	if err := CheckWidth(res.Code, opts.Printer.PrintWidth, unbreakable); err != nil {
		return err
	}
	return CheckIdempotent(lang, path, res.Code, opts)
}
