// Package testkit holds invariant checkers shared by language tests and
// fuzz harnesses: span nesting, idempotence, width bound, comment
// preservation and verbatim passthrough.
package testkit
