// Package format drives one formatting pass: parse, comment attachment,
// layout and printing.
//
// Languages implement Language. Their layout rules receive a Context with
// the resolved Options, the comment map and a GroupIDs allocator, and wrap
// every node in FormatNode so comments travel with it and failures degrade
// to a verbatim copy of the node. FormatFile never loses a comment: when one
// stays unplaced the file is returned unchanged with a warning.
package format
