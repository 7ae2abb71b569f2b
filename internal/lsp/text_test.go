package lsp

import (
	"testing"

	"loom/internal/source"
)

func TestOffsetForPositionUTF16(t *testing.T) {
	text := "a🙂b\nx"
	cases := []struct {
		pos  position
		want int
	}{
		{position{0, 0}, 0},
		{position{0, 1}, 1},
		{position{0, 3}, 5},
		{position{0, 2}, 1}, // inside the surrogate pair
		{position{0, 99}, 6},
		{position{1, 1}, 8},
		{position{5, 0}, len(text)},
	}
	for _, tc := range cases {
		if got := offsetForPosition(text, tc.pos); got != tc.want {
			t.Fatalf("offsetForPosition(%+v) = %d, want %d", tc.pos, got, tc.want)
		}
	}
}

func TestApplyChanges(t *testing.T) {
	text := "one\ntwo\n"
	text = applyChanges(text, []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{1, 0}, End: position{1, 3}}, Text: "2"},
		{Range: &lspRange{Start: position{0, 0}, End: position{0, 0}}, Text: "// "},
	})
	if text != "// one\n2\n" {
		t.Fatalf("unexpected text %q", text)
	}
	if got := applyChanges(text, []textDocumentContentChangeEvent{{Text: "all"}}); got != "all" {
		t.Fatalf("full replacement gave %q", got)
	}
}

func TestPositions(t *testing.T) {
	if got := endPosition("ab\n🙂"); got != (position{Line: 1, Character: 2}) {
		t.Fatalf("endPosition = %+v", got)
	}
	if got := endPosition(""); got != (position{}) {
		t.Fatalf("endPosition of empty = %+v", got)
	}
	if got := positionForOffset([]byte("ab\r\ncd"), 5); got != (position{Line: 1, Character: 1}) {
		t.Fatalf("positionForOffset = %+v", got)
	}
}

func TestCanonicalURI(t *testing.T) {
	if got := canonicalURI("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Fatalf("untitled changed: %q", got)
	}
	if got := canonicalURI("file:///tmp/a/../b.json"); got != "file:///tmp/b.json" {
		t.Fatalf("unexpected canonical uri %q", got)
	}
	if languageForID("markdown") != "prose" || languageForID("yaml") != "" {
		t.Fatal("unexpected language mapping")
	}
}

func TestFileOffsetsRoundTrip(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("a.json", []byte("{\r\n  \"🙂\": 1\r\n}")))
	// CRLF is normalized away: line 1 is `  "🙂": 1`
	pos := position{Line: 1, Character: 5}
	off := fileOffset(file, pos)
	if string(file.Content[off:off+1]) != "\"" {
		t.Fatalf("offset %d points at %q", off, file.Content[off:])
	}
	if got := filePosition(file, off); got != pos {
		t.Fatalf("filePosition(%d) = %+v, want %+v", off, got, pos)
	}
	if got := fileOffset(file, position{Line: 9}); got != file.Len() {
		t.Fatalf("lines past the end map to %d", got)
	}
	if got := fileOffset(file, position{Line: 0, Character: 40}); got != 1 {
		t.Fatalf("columns clamp to the line end, got %d", got)
	}
}
