package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"loom/internal/diagfmt"
	"loom/internal/driver"
	"loom/internal/observ"
)

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if shouldUseTUI(uiModeOff, 1000) || !shouldUseTUI(uiModeOn, 1) {
		t.Fatal("explicit modes must win")
	}
}

func overrideCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "x"}
	addOverrideFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestReadOverrides(t *testing.T) {
	s, err := readOverrides(overrideCmd(t, "--print-width=100", "--quote-style=single"))
	if err != nil {
		t.Fatalf("readOverrides: %v", err)
	}
	if s.PrintWidth == nil || *s.PrintWidth != 100 {
		t.Fatalf("print width not set: %+v", s)
	}
	if s.QuoteStyle == nil || *s.QuoteStyle != "single" {
		t.Fatalf("quote style not set: %+v", s)
	}
	if s.IndentWidth != nil || s.ProseWrap != nil {
		t.Fatalf("unset flags leaked: %+v", s)
	}

	if _, err := readOverrides(overrideCmd(t, "--prose-wrap=never")); err == nil {
		t.Fatal("expected invalid prose wrap to fail")
	}
	if _, err := readOverrides(overrideCmd(t, "--indent-width=0")); err == nil {
		t.Fatal("expected zero indent width to fail")
	}
}

func TestShortDiagnostics(t *testing.T) {
	res := driver.FormatSource(t.Context(), "a.json", []byte("{\"a\": 1, // note\n}"), driver.FormatOptions{})
	if res.Err != nil || len(res.Diagnostics) == 0 {
		t.Fatalf("expected dialect warnings, got %v %v", res.Err, res.Diagnostics)
	}
	var buf bytes.Buffer
	reportDiagnostics(&buf, &res, fmtFlags{output: "short"})
	first, _, _ := strings.Cut(buf.String(), "\n")
	if !strings.HasPrefix(first, "a.json:1:") || !strings.Contains(first, ": warning SYN") {
		t.Fatalf("unexpected short output %q", buf.String())
	}
}

func TestSummaryErrors(t *testing.T) {
	results := []driver.FormatResult{
		{Path: "a.json", Changed: true},
		{Path: "b.json"},
	}
	s := summarize(results)
	if s.err(false) != nil {
		t.Fatalf("write mode must not fail: %v", s.err(false))
	}
	if s.err(true) == nil {
		t.Fatal("check mode must fail with changes")
	}
	results = append(results, driver.FormatResult{Path: "c.json", Err: errors.New("boom")})
	if err := summarize(results).err(false); err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRenderFmtText(t *testing.T) {
	results := []driver.FormatResult{
		{Path: "a.json", Changed: true},
		{Path: "b.json"},
		{Path: "c.json", Err: errors.New("boom")},
	}
	var out, errOut bytes.Buffer
	renderFmtText(&out, &errOut, results, fmtFlags{check: true})
	if out.String() != "a.json\n" {
		t.Fatalf("unexpected check output %q", out.String())
	}
	if !strings.Contains(errOut.String(), "c.json: boom") {
		t.Fatalf("missing error output %q", errOut.String())
	}

	out.Reset()
	renderFmtText(&out, &errOut, results[:2], fmtFlags{})
	if out.String() != "reformatted a.json\n" {
		t.Fatalf("unexpected write output %q", out.String())
	}

	out.Reset()
	renderFmtText(&out, &errOut, results[:2], fmtFlags{quiet: true})
	if out.Len() != 0 {
		t.Fatalf("quiet run printed %q", out.String())
	}
}

func TestRenderFmtJSON(t *testing.T) {
	results := []driver.FormatResult{
		{Path: "a.json", Changed: true},
		{Path: "b.json", Err: errors.New("boom")},
	}
	var out bytes.Buffer
	summary, err := renderFmtJSON(&out, results, fmtFlags{})
	if err != nil {
		t.Fatalf("renderFmtJSON: %v", err)
	}
	if summary.failed != 1 || summary.changed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	var decoded diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Files) != 2 || !decoded.Files[0].Changed || decoded.Files[1].Error != "boom" {
		t.Fatalf("unexpected output %+v", decoded)
	}
}

func TestPrintTimings(t *testing.T) {
	results := []driver.FormatResult{
		{Timing: observ.Report{TotalMS: 2, Phases: []observ.PhaseReport{{Name: "parse", DurationMS: 1}, {Name: "print", DurationMS: 1}}}},
		{Cached: true},
	}
	var out bytes.Buffer
	printTimings(&out, results)
	if !strings.HasPrefix(out.String(), "formatted 2 files (1 cached)") || !strings.Contains(out.String(), "parse") {
		t.Fatalf("unexpected timings %q", out.String())
	}
}

func TestVersionJSON(t *testing.T) {
	var out bytes.Buffer
	if err := renderVersionJSON(&out, versionOptions{showLang: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "loom" || len(payload.Languages) == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	runCleanups()
	return out.String(), err
}

func TestFmtStdoutCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	if err := os.WriteFile(path, []byte(`{"a":[1,2]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "", "fmt", "--color=off", "--ui=off", "--stdout", path)
	if err != nil {
		t.Fatalf("fmt: %v", err)
	}
	if out != "{ \"a\": [1, 2] }\n" {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":[1,2]}` {
		t.Fatalf("--stdout must not rewrite the file, got %q", data)
	}
}

func TestFmtStdinCommand(t *testing.T) {
	out, err := execute(t, "#  Title\n", "fmt", "--color=off", "--lang=prose", "-")
	if err != nil {
		t.Fatalf("fmt: %v", err)
	}
	if out != "# Title\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
