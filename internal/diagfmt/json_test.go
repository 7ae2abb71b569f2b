package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"loom/internal/diag"
	"loom/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	file := testFile("dir/test.jsonc", "{\n  // c\n  \"a\": 1,\n}\n")
	diags := []diag.Diagnostic{
		diag.New(diag.SevWarning, diag.SynDialectFeature, source.Span{File: file.ID, Start: 17, End: 18}, "trailing comma").
			WithNote(source.Span{File: file.ID, Start: 0, End: 1}, "object"),
		diag.New(diag.SevInfo, diag.FmtVerbatimFallback, source.Span{File: file.ID, Start: 0, End: 22}, "kept"),
	}

	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}
	if err := JSON(&buf, []FileJSON{BuildFile(file, diags, opts)}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 2 || len(output.Files) != 1 {
		t.Fatalf("unexpected shape: %+v", output)
	}
	first := output.Files[0].Diagnostics[0]
	if first.Code != "SYN2007" || first.Severity != "WARNING" {
		t.Errorf("got %s %s", first.Severity, first.Code)
	}
	if first.Location.File != "test.jsonc" || first.Location.StartLine != 3 || first.Location.StartCol != 9 {
		t.Errorf("bad location %+v", first.Location)
	}
	if len(first.Notes) != 1 || first.Notes[0].Message != "object" {
		t.Errorf("bad notes %+v", first.Notes)
	}
}

func TestJSONMax(t *testing.T) {
	file := testFile("a.json", "[]\n")
	var diags []diag.Diagnostic
	for range 5 {
		diags = append(diags, diag.New(diag.SevInfo, diag.FmtInfo, source.Span{File: file.ID}, "x"))
	}
	got := BuildFile(file, diags, JSONOpts{Max: 2})
	if len(got.Diagnostics) != 2 {
		t.Fatalf("expected 2, got %d", len(got.Diagnostics))
	}
	if got.Diagnostics[0].Location.StartLine != 0 {
		t.Error("positions should be omitted")
	}
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "{\n  \"files\": [],\n  \"count\": 0\n}\n" {
		t.Errorf("got %q", got)
	}
}
