package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"loom/internal/config"
	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/lang"
	"loom/internal/observ"
	"loom/internal/printer"
	"loom/internal/source"
	"loom/internal/trace"
)

// ErrNoFiles is returned when the paths name no formattable file.
var ErrNoFiles = errors.New("format: no source files found")

type Mode uint8

const (
	// ModeWrite rewrites changed files in place.
	ModeWrite Mode = iota
	// ModeCheck only reports which files would change.
	ModeCheck
	// ModeStdout returns the formatted bytes without touching files.
	ModeStdout
)

// FormatOptions configures a formatting run.
type FormatOptions struct {
	Mode Mode
	Jobs int
	// Registry defaults to lang.Default().
	Registry *lang.Registry
	// Config is used for every file when set; otherwise the configuration
	// of each file's directory is discovered.
	Config    *config.Config
	Overrides config.Settings
	// Language forces a language by name instead of the file extension.
	Language       string
	Cache          *DiskCache
	Diff           bool
	Verify         bool
	Progress       ProgressSink
	MaxDiagnostics int
}

// FormatResult captures the result of formatting a single file.
type FormatResult struct {
	Path     string
	Language string
	Changed  bool
	// Cached is set when the cache proved the file already formatted.
	Cached bool
	// Formatted holds the output in ModeStdout, changed or not.
	Formatted   []byte
	Diff        string
	Overflows   []printer.Overflow
	File        *source.File
	Diagnostics []diag.Diagnostic
	Err         error
	Timing      observ.Report
}

// Failed reports an error or an error diagnostic.
func (r *FormatResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, d := range r.Diagnostics {
		if d.Severity >= diag.SevError {
			return true
		}
	}
	return false
}

// FormatPaths formats provided files or directories. When opts.Mode is
// ModeCheck files are not modified and Changed tells whether formatting
// would update them. Results are sorted by path; per file failures are
// reported in FormatResult.Err, not as the returned error.
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Registry == nil {
		opts.Registry = lang.Default()
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeRun, "format-paths")
	defer span.End("")

	files, err := collectSourceFiles(ctx, paths, opts.Registry)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	span.AttrInt("files", len(files))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	r := newRunner(opts)

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FormatResult, len(files))
	workers := min(jobs, len(files))
	lanes := make(chan int, workers)
	for lane := 1; lane <= workers; lane++ {
		lanes <- lane
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			lane := <-lanes
			defer func() { lanes <- lane }()
			r.emit(ProgressEvent{Path: path, Status: FileStart, Index: i, Total: len(files)})
			started := time.Now()
			results[i] = r.formatFile(trace.WithLane(gctx, lane), path)
			r.emit(ProgressEvent{
				Path:    path,
				Status:  FileDone,
				Index:   i,
				Total:   len(files),
				Changed: results[i].Changed,
				Cached:  results[i].Cached,
				Err:     results[i].Err,
				Elapsed: time.Since(started),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// FormatSource formats data as if read from path, without touching disk.
// Mode is ignored: Formatted is always set.
func FormatSource(ctx context.Context, path string, data []byte, opts FormatOptions) FormatResult {
	if opts.Registry == nil {
		opts.Registry = lang.Default()
	}
	res := newRunner(opts).formatBytes(ctx, path, data)
	return res
}

type runner struct {
	opts FormatOptions

	mu      sync.Mutex
	configs map[string]*config.Config
	cfgErrs map[string]error
}

func newRunner(opts FormatOptions) *runner {
	return &runner{opts: opts, configs: make(map[string]*config.Config), cfgErrs: make(map[string]error)}
}

func (r *runner) emit(ev ProgressEvent) {
	if r.opts.Progress != nil {
		r.opts.Progress(ev)
	}
}

// configFor discovers the configuration of dir once per run.
func (r *runner) configFor(path string) (*config.Config, error) {
	if r.opts.Config != nil {
		return r.opts.Config, nil
	}
	dir := filepath.Dir(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[dir]; ok {
		return cfg, r.cfgErrs[dir]
	}
	cfg, err := config.Discover(dir)
	r.configs[dir], r.cfgErrs[dir] = cfg, err
	return cfg, err
}

func (r *runner) language(path string) (format.Language, error) {
	if r.opts.Language != "" {
		return r.opts.Registry.ByName(r.opts.Language)
	}
	return r.opts.Registry.ForPath(path)
}

func (r *runner) formatFile(ctx context.Context, path string) FormatResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormatResult{Path: path, Err: err}
	}
	res := r.formatBytes(ctx, path, data)
	if res.Err != nil {
		res.Formatted = nil
		return res
	}
	switch {
	case r.opts.Mode == ModeStdout:
		return res
	case r.opts.Mode == ModeCheck, !res.Changed:
		res.Formatted = nil
		return res
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, res.Formatted, mode.Perm()); err != nil {
		res.Err = err
	}
	res.Formatted = nil
	return res
}

func (r *runner) formatBytes(ctx context.Context, path string, data []byte) FormatResult {
	result := FormatResult{Path: path}
	l, err := r.language(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Language = l.Name()

	cfg, err := r.configFor(path)
	if err != nil {
		result.Err = err
		return result
	}
	opts, err := cfg.Options(l.Name(), r.opts.Overrides)
	if err != nil {
		result.Err = err
		return result
	}

	key := CacheKey(data, l.Name(), opts)
	if r.opts.Cache.Known(key) {
		result.Cached = true
		result.Formatted = data
		return result
	}

	fs := source.NewFileSet()
	content, flags := source.Normalize(data)
	file := fs.Get(fs.Add(path, content, flags))
	result.File = file

	res, err := format.FormatFile(ctx, l, file, opts)
	if err != nil {
		var perr *format.ParseError
		if errors.As(err, &perr) {
			result.Diagnostics = perr.Diagnostics
		}
		result.Err = err
		return result
	}
	result.Diagnostics = r.limit(res.Diagnostics)
	result.Timing = res.Timings
	result.Overflows = res.Overflows

	if r.opts.Verify {
		d, err := verifyStable(ctx, l, file, res, opts)
		if err != nil {
			result.Err = err
			return result
		}
		if d != nil {
			result.Diagnostics = append(result.Diagnostics, *d)
		}
	}

	result.Formatted = res.Code
	result.Changed = !bytes.Equal(data, res.Code)
	if r.opts.Diff && result.Changed {
		if result.Diff, err = UnifiedDiff(path, data, res.Code); err != nil {
			result.Err = err
			return result
		}
	}
	if !res.Unchanged && !result.Failed() {
		_ = r.opts.Cache.Remember(CacheKey(res.Code, l.Name(), opts), CacheEntry{
			Path:     path,
			Language: l.Name(),
			Size:     len(res.Code),
		})
	}
	return result
}

func (r *runner) maxDiagnostics() int {
	if r.opts.MaxDiagnostics <= 0 {
		return 256
	}
	return r.opts.MaxDiagnostics
}

func (r *runner) limit(ds []diag.Diagnostic) []diag.Diagnostic {
	if n := r.maxDiagnostics(); len(ds) > n {
		return ds[:n]
	}
	return ds
}
