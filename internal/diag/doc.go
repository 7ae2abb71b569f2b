// Package diag defines the diagnostic model shared by the parsing and
// formatting phases.
//
// # Purpose
//
//   - Provide deterministic data structures for findings produced while
//     parsing a file, attaching comments, or building layout.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or rendering.
//
// # Scope
//
// Package diag performs no IO. Rendering lives in internal/diagfmt; the
// driver collects a Bag per file and hands it to the CLI or the editor
// service.
//
// # Data model
//
//   - Severity – Info, Warning, Error.
//   - Code – compact numeric identifier with a stable string form
//     (LEX/SYN/FMT/CFG/IO prefixes, see codes.go).
//   - Message – short and actionable.
//   - Primary span – the source.Span the finding points at.
//   - Notes – optional secondary spans.
//
// Formatting never fails on a parsed file: regions the formatter could not
// lay out are emitted verbatim and reported as FmtVerbatimFallback infos,
// so the user can see which parts were left untouched.
//
// # Emitting diagnostics
//
// Use ReportError/ReportWarning/ReportInfo to build a diagnostic, chain
// WithNote, then Emit. BagReporter aggregates into a Bag, DedupReporter
// suppresses repeats of the same code and span.
package diag
