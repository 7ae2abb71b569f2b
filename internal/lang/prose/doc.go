// Package prose formats Markdown-like documents.
//
// Parsing is line based and never fails. Headings, paragraphs and list
// items are rebuilt from their words; fenced code, quotes, tables,
// indented code and setext headings are copied verbatim. HTML comments on
// their own lines are comments: they attach to the next block and a
// "loom-ignore" comment keeps that block untouched.
//
// With format.ProseWrapAlways paragraphs are refilled to the print width.
// Words that would start a new block at the beginning of a line stay glued
// to the previous word so the refilled text parses the same way.
package prose
