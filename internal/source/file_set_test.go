package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.json", []byte("{}"), 0)
	id2 := fs.Add("test.json", []byte("[]"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	latest, ok := fs.GetLatest("test.json")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "{}" {
		t.Errorf("old version content = %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Error("expected nil for unknown id")
	}
}

// TestAddVirtualNormalizes проверяет, что виртуальные файлы нормализуются как при Load
func TestAddVirtualNormalizes(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("buf.json", []byte("\xEF\xBB\xBFa\r\nb\r\n"))
	file := fs.Get(id)

	if string(file.Content) != "a\nb\n" {
		t.Fatalf("content = %q", file.Content)
	}
	want := FileVirtual | FileHadBOM | FileNormalizedCRLF
	if file.Flags != want {
		t.Errorf("flags = %b, want %b", file.Flags, want)
	}
	if len(file.LineIdx) != 2 || file.LineIdx[0] != 1 || file.LineIdx[1] != 3 {
		t.Errorf("LineIdx = %v, want [1 3]", file.LineIdx)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	if err := os.WriteFile(path, []byte("1\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "1\n" || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("content %q flags %b", f.Content, f.Flags)
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveAndLines(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.md", []byte("ab\ncd\n\nef"))
	f := fs.Get(id)

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{9, LineCol{4, 3}},
	}
	for _, tt := range tests {
		if got := f.Position(tt.off); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}

	start, end := fs.Resolve(Span{File: id, Start: 3, End: 8})
	if start != (LineCol{2, 1}) || end != (LineCol{4, 2}) {
		t.Errorf("Resolve = %+v..%+v", start, end)
	}

	lines := map[uint32]string{1: "ab", 2: "cd", 3: "", 4: "ef", 5: ""}
	for n, want := range lines {
		if got := f.GetLine(n); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
	if got := f.LinesBetween(0, f.Len()); got != 3 {
		t.Errorf("LinesBetween = %d", got)
	}
	if got := string(f.Slice(Span{Start: 3, End: 100})); got != "cd\n\nef" {
		t.Errorf("Slice = %q", got)
	}
}
