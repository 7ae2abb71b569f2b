// Package printer turns an ir.Document into text.
//
// Printing is one forward pass over an explicit command stack. Each group is
// decided when it is reached: a group whose direct content holds a hard
// break is expanded outright, otherwise its content is simulated flat from
// the current column together with the rest of the line. Flat measurements
// are memoised per (content, column) for the duration of the pass, which is
// what keeps documents with many similar siblings near linear.
//
// The printer also records where every positioned token ended up (SourceMap),
// used for range formatting and cursor remapping.
package printer
