package diag

import "loom/internal/source"

type seenKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// DedupReporter forwards each distinct diagnostic once. Layouts may build
// the same node for several best-fitting candidates; every build reports
// the same fallback, and only the first one reaches next.
//
// Not safe for concurrent use: one pass owns one reporter.
type DedupReporter struct {
	next       Reporter
	seen       map[seenKey]struct{}
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	if next == nil {
		next = NopReporter{}
	}
	return &DedupReporter{next: next, seen: map[seenKey]struct{}{}}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	k := seenKey{code: code, sev: sev, span: primary, msg: msg}
	if _, dup := r.seen[k]; dup {
		r.suppressed++
		return
	}
	r.seen[k] = struct{}{}
	r.next.Report(code, sev, primary, msg, notes)
}

// Suppressed counts the repeats that were dropped.
func (r *DedupReporter) Suppressed() int { return r.suppressed }
