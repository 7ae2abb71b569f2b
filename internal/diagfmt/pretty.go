package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"loom/internal/diag"
	"loom/internal/source"
)

type palette struct {
	err, warn, info, note, caret, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan),
		note:  color.New(color.FgBlue),
		caret: color.New(color.FgGreen, color.Bold),
		path:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.caret, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждой диагностики печатает
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, file *source.File, diags []diag.Diagnostic, opts PrettyOpts) {
	p := newPalette(opts.Color)
	path := formatPath(file, opts.PathMode, opts.BaseDir)
	for i := range diags {
		d := &diags[i]
		writeHeader(w, p, path, file, d.Primary, p.severity(d.Severity).Sprint(d.Severity.String())+" "+d.Code.ID(), d.Message)
		writeSnippet(w, p, file, d.Primary, opts.Context)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			writeHeader(w, p, path, file, n.Span, p.note.Sprint("note"), n.Msg)
			writeSnippet(w, p, file, n.Span, 0)
		}
	}
}

func writeHeader(w io.Writer, p palette, path string, file *source.File, span source.Span, label, msg string) {
	if file == nil || span.File != file.ID {
		fmt.Fprintf(w, "%s: %s: %s\n", p.path.Sprint(path), label, msg)
		return
	}
	pos := file.Position(span.Start)
	fmt.Fprintf(w, "%s: %s: %s\n", p.path.Sprintf("%s:%d:%d", path, pos.Line, pos.Col), label, msg)
}

func writeSnippet(w io.Writer, p palette, file *source.File, span source.Span, context int) {
	if file == nil || span.File != file.ID || span.Start > file.Len() {
		return
	}
	start := file.Position(span.Start)
	end := file.Position(span.End)
	first := start.Line
	if context > 0 && uint32(context) < first {
		first -= uint32(context)
	} else if context > 0 {
		first = 1
	}
	gutter := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		text := strings.ReplaceAll(file.GetLine(ln), "\t", "    ")
		fmt.Fprintf(w, " %*d | %s\n", gutter, ln, text)
	}

	line := file.GetLine(start.Line)
	col := int(start.Col) - 1
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	} else if end.Line != start.Line {
		width = max(1, len(line)-col)
	}
	pad := columnsBefore(line, col)
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, " %*s | %s%s\n", gutter, "", strings.Repeat(" ", pad), p.caret.Sprint(marker))
}

// columnsBefore returns the display column of byte offset col in line,
// with tabs shown as four spaces.
func columnsBefore(line string, col int) int {
	n := 0
	for i := 0; i < col && i < len(line); i++ {
		if line[i] == '\t' {
			n += 4
			continue
		}
		n++
	}
	return n
}
