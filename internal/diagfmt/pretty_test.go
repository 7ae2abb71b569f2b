package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"loom/internal/diag"
	"loom/internal/source"
)

func testFile(path, text string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual(path, []byte(text)))
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	file := testFile("/home/user/project/src/test.json", "{\n  \"a\": tru\n}\n")
	diags := []diag.Diagnostic{
		diag.New(diag.SevError, diag.SynExpectValue, source.Span{File: file.ID, Start: 9, End: 12}, "expected a value"),
	}

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/test.json:2:8"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/test.json:2:8"},
		{name: "Basename only", mode: PathModeBasename, contains: "test.json:2:8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, file, diags, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR SYN2003") {
				t.Errorf("Expected severity and code, got:\n%s", output)
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	file := testFile("a.json", "[1,\n  tru]\n")
	d := diag.New(diag.SevWarning, diag.SynExpectValue, source.Span{File: file.ID, Start: 6, End: 9}, "expected a value").
		WithNote(source.Span{File: file.ID, Start: 0, End: 1}, "array opened here")

	var buf bytes.Buffer
	Pretty(&buf, file, []diag.Diagnostic{d}, PrettyOpts{Context: 1, ShowNotes: true})
	want := strings.Join([]string{
		"a.json:2:3: WARNING SYN2003: expected a value",
		" 1 | [1,",
		" 2 |   tru]",
		"   |   ^~~",
		"a.json:1:1: note: array opened here",
		" 1 | [1,",
		"   | ^",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	file := testFile("a.json", "x\n")
	d := diag.New(diag.SevError, diag.SynUnexpectedToken, source.Span{File: file.ID, Start: 0, End: 1}, "bad")
	var plain, colored bytes.Buffer
	Pretty(&plain, file, []diag.Diagnostic{d}, PrettyOpts{})
	Pretty(&colored, file, []diag.Diagnostic{d}, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("plain output has escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("colored output has no escape codes")
	}
}
