// Package trace records what the formatter spends its time on.
//
// Enable tracing from the command line:
//
//	loom fmt --trace=- --trace-level=phase ./configs
//
// Tracers: Nop (disabled), StreamTracer (writes every event as it happens),
// RingTracer (keeps the last N events for a crash dump) and MultiTracer.
// Output formats are text, NDJSON and the chrome://tracing event array.
//
// Scopes from coarse to fine: ScopeRun, ScopeFile, ScopePhase, ScopeLayout.
// LevelFile shows run and file spans, LevelPhase adds parse/attach/build/print
// of every file, LevelDebug adds printer statistics.
//
// Tracers travel in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartSpan(ctx, trace.ScopePhase, "print")
//	defer span.End("")
//
// The driver tags each worker's context with WithLane; chrome output draws
// one track per lane.
package trace
