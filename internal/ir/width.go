package ir

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Width returns the display width of s in terminal columns. Tabs count as
// zero; the printer expands them against the current column. East Asian wide
// runes count as two, combining marks as zero.
func Width(s string) int {
	if isPlainASCII(s) {
		return len(s) - strings.Count(s, "\t")
	}
	s = norm.NFC.String(s)
	w := 0
	for _, r := range s {
		if r == '\t' {
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

// FirstLineWidth measures s up to its first newline.
func FirstLineWidth(s string) int {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return Width(s)
}

// ExpandTabs advances col over s, expanding tabs to multiples of tabWidth.
func ExpandTabs(col int, s string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 1
	}
	for {
		i := strings.IndexByte(s, '\t')
		if i < 0 {
			return col + Width(s)
		}
		col += Width(s[:i])
		col += tabWidth - col%tabWidth
		s = s[i+1:]
	}
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf || (s[i] < 0x20 && s[i] != '\t') {
			return false
		}
	}
	return true
}
