package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"loom/internal/config"
	"loom/internal/format"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFormatPathsModes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.json", `{"a":1}`)
	ctx := context.Background()

	res, err := FormatPaths(ctx, []string{dir}, FormatOptions{Mode: ModeCheck})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.True(t, res[0].Changed)
	require.Nil(t, res[0].Formatted)
	require.Equal(t, `{"a":1}`, readFile(t, path))

	res, err = FormatPaths(ctx, []string{path}, FormatOptions{Mode: ModeStdout})
	require.NoError(t, err)
	require.Equal(t, "{ \"a\": 1 }\n", string(res[0].Formatted))
	require.Equal(t, `{"a":1}`, readFile(t, path))

	res, err = FormatPaths(ctx, []string{dir}, FormatOptions{Mode: ModeWrite})
	require.NoError(t, err)
	require.True(t, res[0].Changed)
	require.Equal(t, "{ \"a\": 1 }\n", readFile(t, path))

	res, err = FormatPaths(ctx, []string{dir}, FormatOptions{Mode: ModeCheck})
	require.NoError(t, err)
	require.False(t, res[0].Changed)

	res, err = FormatPaths(ctx, []string{path}, FormatOptions{Mode: ModeStdout})
	require.NoError(t, err)
	require.False(t, res[0].Changed)
	require.Equal(t, "{ \"a\": 1 }\n", string(res[0].Formatted))
}

func TestFormatPathsCollectsByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "text\n")
	writeFile(t, dir, "a/c.jsonc", "[]\n")
	writeFile(t, dir, "skip.txt", "x")
	writeFile(t, dir, ".hidden/d.json", "{}")

	res, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{Mode: ModeCheck, Jobs: 2})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "jsonc", res[0].Language)
	require.Equal(t, "prose", res[1].Language)
	for _, r := range res {
		require.NoError(t, r.Err)
		require.False(t, r.Changed, r.Path)
	}

	_, err = FormatPaths(context.Background(), []string{t.TempDir()}, FormatOptions{})
	require.ErrorIs(t, err, ErrNoFiles)
}

func TestFormatPathsPerFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", "[1,")
	txt := writeFile(t, dir, "notes.txt", "x")

	res, err := FormatPaths(context.Background(), []string{bad, txt}, FormatOptions{Mode: ModeCheck})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.ErrorIs(t, res[0].Err, format.ErrParse)
	require.NotEmpty(t, res[0].Diagnostics)
	require.True(t, res[0].Failed())
	require.ErrorIs(t, res[1].Err, format.ErrUnknownLanguage)
}

func TestConfigDiscoveredPerDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/"+config.TomlName, "[json]\nprint_width = 5\n")
	narrow := writeFile(t, dir, "sub/a.json", `{"a":1}`)
	wide := writeFile(t, dir, "b.json", `{"a":1}`)

	res, err := FormatPaths(context.Background(), []string{narrow, wide}, FormatOptions{Mode: ModeStdout})
	require.NoError(t, err)
	byPath := map[string]string{}
	for _, r := range res {
		require.NoError(t, r.Err)
		byPath[r.Path] = string(r.Formatted)
	}
	require.Equal(t, "{\n  \"a\": 1\n}\n", byPath[narrow])
	require.Equal(t, "{ \"a\": 1 }\n", byPath[wide])

	res, err = FormatPaths(context.Background(), []string{narrow}, FormatOptions{
		Mode:      ModeStdout,
		Overrides: config.Settings{PrintWidth: config.Int(80)},
	})
	require.NoError(t, err)
	require.Equal(t, "{ \"a\": 1 }\n", string(res[0].Formatted))
}

func TestCacheSkipsKnownFormatted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.json", "[1, 2]\n")
	cache, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	opts := FormatOptions{Mode: ModeCheck, Cache: cache}

	res, err := FormatPaths(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	require.False(t, res[0].Cached)

	res, err = FormatPaths(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	require.True(t, res[0].Cached)
	require.False(t, res[0].Changed)

	opts.Overrides = config.Settings{IndentWidth: config.Int(4)}
	res, err = FormatPaths(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	require.False(t, res[0].Cached, "options are part of the key")

	key := CacheKey([]byte("[1, 2]\n"), "json", format.DefaultOptions())
	entry, ok, err := cache.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "json", entry.Language)
	require.Equal(t, path, entry.Path)

	require.NoError(t, cache.Clear())
	require.False(t, cache.Known(key))
}

func TestCachePruneDropsOldEntries(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	opts := format.DefaultOptions()
	oldKey := CacheKey([]byte("[1]\n"), "json", opts)
	newKey := CacheKey([]byte("[2]\n"), "json", opts)
	require.NoError(t, cache.Remember(oldKey, CacheEntry{Path: "old.json"}))
	require.NoError(t, cache.Remember(newKey, CacheEntry{Path: "new.json"}))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(cache.pathFor(oldKey), past, past))

	n, err := cache.Prune(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, cache.Known(oldKey))
	require.True(t, cache.Known(newKey))

	var nilCache *DiskCache
	require.False(t, nilCache.Known(newKey))
	require.NoError(t, nilCache.Remember(newKey, CacheEntry{}))
}

func TestDiffAndVerify(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", "{\"a\":1}\n")
	res, err := FormatPaths(context.Background(), []string{path}, FormatOptions{Mode: ModeCheck, Diff: true, Verify: true})
	require.NoError(t, err)
	require.Contains(t, res[0].Diff, "-{\"a\":1}")
	require.Contains(t, res[0].Diff, "+{ \"a\": 1 }")
	require.Empty(t, res[0].Diagnostics)
}

func TestProgressEvents(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "c.md"} {
		writeFile(t, dir, name, "x\n")
	}
	var (
		mu     sync.Mutex
		starts int
		dones  int
		totals []int
	)
	_, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode: ModeCheck,
		Progress: func(ev ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			totals = append(totals, ev.Total)
			if ev.Status == FileStart {
				starts++
			} else {
				dones++
			}
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, starts)
	require.Equal(t, 3, dones)
	require.Equal(t, []int{3, 3, 3, 3, 3, 3}, totals)
}

func TestFormatSource(t *testing.T) {
	res := FormatSource(context.Background(), "x.json5", []byte("{a:'b'}"), FormatOptions{})
	require.NoError(t, res.Err)
	require.Equal(t, "{ a: \"b\" }\n", string(res.Formatted))

	res = FormatSource(context.Background(), "stdin", []byte("# hi"), FormatOptions{Language: "prose"})
	require.NoError(t, res.Err)
	require.Equal(t, "# hi\n", string(res.Formatted))
}

func TestUnifiedDiff(t *testing.T) {
	out, err := UnifiedDiff("f", []byte("a\nb\n"), []byte("a\nc\n"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "--- f\n+++ f (formatted)\n"), out)

	out, err = UnifiedDiff("f", []byte("same"), []byte("same"))
	require.NoError(t, err)
	require.Empty(t, out)
}
