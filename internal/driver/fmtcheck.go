package driver

import (
	"bytes"
	"context"
	"fmt"

	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/source"
)

// verifyStable formats the output of a pass once more and reports a
// FmtNotIdempotent warning when the second pass changes it.
func verifyStable(ctx context.Context, lang format.Language, file *source.File, res *format.Result, opts format.Options) (*diag.Diagnostic, error) {
	if res.Unchanged {
		return nil, nil
	}
	fs := source.NewFileSet()
	content, flags := source.Normalize(res.Code)
	second := fs.Get(fs.Add(file.Path, content, flags))
	again, err := format.FormatFile(ctx, lang, second, opts)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", file.Path, err)
	}
	if bytes.Equal(again.Code, res.Code) {
		return nil, nil
	}
	line := firstDiffLine(res.Code, again.Code)
	d := diag.New(diag.SevWarning, diag.FmtNotIdempotent, source.Span{File: file.ID},
		fmt.Sprintf("formatting the output again changes line %d", line))
	return &d, nil
}

func firstDiffLine(a, b []byte) int {
	line := 1
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return line
		}
		if a[i] == '\n' {
			line++
		}
	}
	return line
}
