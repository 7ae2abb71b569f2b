// Package ir is the formatting intermediate representation shared by every
// language formatter.
//
// A language rule turns a syntax node into an Element using the builder
// functions (Text, Group, Indent, SoftLine, Fill, BestFitting, ...). The
// result is a plain value: building the same input twice gives structurally
// identical documents, and nothing in this package keeps state between
// calls. Group ids come from a GroupIDs allocator owned by the pass.
//
// Layout decisions are not made here; see internal/printer.
package ir
