package driver

import "time"

// ProgressStatus reports whether a file started or finished.
type ProgressStatus int

const (
	FileStart ProgressStatus = iota
	FileDone
)

// ProgressEvent describes one file boundary during FormatPaths.
type ProgressEvent struct {
	Path    string
	Status  ProgressStatus
	Index   int
	Total   int
	Changed bool
	Cached  bool
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives events from worker goroutines; it must be safe for
// concurrent use.
type ProgressSink func(ProgressEvent)
