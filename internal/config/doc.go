// Package config loads loom.toml or .loom.yaml and resolves the options of
// a formatting pass.
//
// A file looks like:
//
//	print_width = 100
//	line_ending = "auto"
//
//	[json]
//	trailing_comma = "all"
//
//	[prose]
//	prose_wrap = "always"
//
// Resolution order is defaults, global keys, the language table, then
// command line overrides. line_ending = "auto" keeps CRLF files as CRLF.
package config
