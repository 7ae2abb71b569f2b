package driver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// bump when CacheEntry changes shape
const cacheSchema uint16 = 2

// DiskCache remembers contents that are known to be formatted. A hit lets
// the driver skip parsing entirely. Keys come from CacheKey, so a changed
// option, language or loom version never hits an old entry.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheEntry is the msgpack record stored per key.
type CacheEntry struct {
	Schema   uint16    `msgpack:"schema"`
	Path     string    `msgpack:"path"`
	Language string    `msgpack:"lang"`
	Size     int       `msgpack:"size"`
	Stored   time.Time `msgpack:"stored"`
}

// OpenDiskCache opens the cache under the user cache directory
// ($XDG_CACHE_HOME/app, ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root, creating it when missing.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) entriesDir() string { return filepath.Join(c.dir, "formatted") }

func (c *DiskCache) pathFor(key Digest) string {
	hex := key.String()
	return filepath.Join(c.entriesDir(), hex[:2], hex+".mp")
}

// Remember records key as formatted. The entry is written to a temp file
// and renamed into place, so concurrent readers never see a partial one.
func (c *DiskCache) Remember(key Digest, entry CacheEntry) error {
	if c == nil {
		return nil
	}
	entry.Schema = cacheSchema
	if entry.Stored.IsZero() {
		entry.Stored = time.Now()
	}
	data, err := msgpack.Marshal(&entry)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

// Lookup reads the entry of key. Entries of another schema are misses.
func (c *DiskCache) Lookup(key Digest) (CacheEntry, bool, error) {
	var entry CacheEntry
	if c == nil {
		return entry, false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, err
	}
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return entry, false, err
	}
	return entry, entry.Schema == cacheSchema, nil
}

// Known reports whether key is recorded; unreadable entries are misses.
func (c *DiskCache) Known(key Digest) bool {
	_, ok, err := c.Lookup(key)
	return ok && err == nil
}

// Prune deletes entries stored before maxAge ago, plus stray temp files,
// and returns how many entries went away.
func (c *DiskCache) Prune(maxAge time.Duration) (int, error) {
	if c == nil || maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	err := filepath.WalkDir(c.entriesDir(), func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stray := strings.HasPrefix(d.Name(), "tmp-")
		if !stray && info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if !stray {
			removed++
		}
		return nil
	})
	return removed, err
}

// Clear drops every entry.
func (c *DiskCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// переименование сначала: параллельный запуск не увидит полупустой каталог
	old := c.entriesDir() + ".old-" + time.Now().Format("20060102150405.000000")
	if err := os.Rename(c.entriesDir(), old); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
