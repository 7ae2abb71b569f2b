package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeRun covers one CLI invocation or one editor request.
	ScopeRun Scope = iota + 1
	// ScopeFile covers formatting of a single file.
	ScopeFile
	// ScopePhase covers parse, attach, build and print of one file.
	ScopePhase
	// ScopeLayout covers printer internals such as memo statistics.
	ScopeLayout
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeFile:
		return "file"
	case ScopePhase:
		return "phase"
	case ScopeLayout:
		return "layout"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	Lane     uint64            // driver worker, 0 outside the pool
	Name     string            // e.g. "parse", "print", "file:a.json"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
