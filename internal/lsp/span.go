package lsp

import (
	"fortio.org/safecast"

	"loom/internal/source"
)

// Conversions between LSP positions and offsets of a parsed file. They use
// the file's line index; raw editor buffers are handled in text.go.

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return ^uint32(0)
	}
	return v
}

func fileOffset(file *source.File, pos position) uint32 {
	if file == nil || pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	if pos.Line > len(file.LineIdx) {
		return file.Len()
	}
	line := safeUint32(pos.Line + 1)
	start, end := file.LineStart(line), file.LineEnd(line)
	if start > end {
		return end
	}
	return start + safeUint32(advanceUTF16(file.Content[start:end], pos.Character))
}

func filePosition(file *source.File, off uint32) position {
	if file == nil {
		return position{}
	}
	off = min(off, file.Len())
	lc := file.Position(off)
	start := min(file.LineStart(lc.Line), off)
	return position{
		Line:      int(lc.Line) - 1,
		Character: utf16Units(file.Content[start:off]),
	}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	return lspRange{
		Start: filePosition(file, span.Start),
		End:   filePosition(file, span.End),
	}
}
