package lsp

import (
	"bytes"
	"strings"
)

// LSP columns count UTF-16 code units.

type textBytes interface{ ~string | ~[]byte }

func utf16Len(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

func utf16Units[T textBytes](s T) int {
	n := 0
	for _, r := range string(s) {
		n += utf16Len(r)
	}
	return n
}

// advanceUTF16 returns how many bytes of s cover units code units. It never
// splits a surrogate pair.
func advanceUTF16[T textBytes](s T, units int) int {
	used := 0
	for i, r := range string(s) {
		need := utf16Len(r)
		if used+need > units {
			return i
		}
		used += need
	}
	return len(s)
}

func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := max(start, offsetForPosition(text, change.Range.End))
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetForPosition converts pos into a byte offset of an editor buffer,
// clamping to the line end (before "\r\n") and to the end of text.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	start := 0
	for range pos.Line {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return len(text)
		}
		start += nl + 1
	}
	line := text[start:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = strings.TrimSuffix(line[:nl], "\r")
	}
	return start + advanceUTF16(line, pos.Character)
}

// positionForOffset converts a byte offset of text into a position.
func positionForOffset(text []byte, off int) position {
	head := text[:max(0, min(off, len(text)))]
	lineStart := bytes.LastIndexByte(head, '\n') + 1
	return position{
		Line:      bytes.Count(head, []byte{'\n'}),
		Character: utf16Units(head[lineStart:]),
	}
}

// endPosition is the position just past the last character of text.
func endPosition(text string) position {
	return position{
		Line:      strings.Count(text, "\n"),
		Character: utf16Units(text[strings.LastIndexByte(text, '\n')+1:]),
	}
}

func fullRange(text string) lspRange {
	return lspRange{End: endPosition(text)}
}
