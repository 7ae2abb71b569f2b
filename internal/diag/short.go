package diag

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"loom/internal/source"
)

type shortLine struct {
	pos   source.LineCol
	label string
	code  string
	msg   string
}

// Short writes one "path:line:col: severity CODE: message" line per
// diagnostic of file, ordered by position. Notes follow as "note" lines
// when includeNotes is set. Editors and grep read this form directly;
// golden tests compare it.
func Short(w io.Writer, file *source.File, diags []Diagnostic, includeNotes bool) error {
	if file == nil || len(diags) == 0 {
		return nil
	}
	lines := make([]shortLine, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		lines = append(lines, shortLine{
			pos:   file.Position(d.Primary.Start),
			label: strings.ToLower(d.Severity.String()),
			code:  d.Code.ID(),
			msg:   oneLine(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			lines = append(lines, shortLine{
				pos:   file.Position(n.Span.Start),
				label: "note",
				code:  d.Code.ID(),
				msg:   oneLine(n.Msg),
			})
		}
	}
	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.pos.Line, b.pos.Line),
			cmp.Compare(a.pos.Col, b.pos.Col),
			cmp.Compare(a.label, b.label),
			cmp.Compare(a.code, b.code),
		)
	})

	path := strings.TrimPrefix(filepath.ToSlash(file.Path), "./")
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, l.pos.Line, l.pos.Col, l.label, l.code, l.msg); err != nil {
			return err
		}
	}
	return nil
}

// ShortString is Short into a string, for tests.
func ShortString(file *source.File, diags []Diagnostic, includeNotes bool) string {
	var sb strings.Builder
	_ = Short(&sb, file, diags, includeNotes)
	return sb.String()
}

func oneLine(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
