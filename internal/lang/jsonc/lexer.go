package jsonc

import (
	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/source"
)

// Lexer produces tokens on demand and collects the comments it skips.
type Lexer struct {
	file    *source.File
	src     []byte
	off     int
	dialect Dialect
	rep     diag.Reporter

	comments []comments.Raw
	fatal    bool
}

func NewLexer(file *source.File, dialect Dialect, rep diag.Reporter) *Lexer {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Lexer{file: file, src: file.Content, dialect: dialect, rep: rep}
}

// Comments returns the comments seen so far in source order.
func (lx *Lexer) Comments() []comments.Raw { return lx.comments }

func (lx *Lexer) span(start, end int) source.Span {
	return source.Span{File: lx.file.ID, Start: uint32(start), End: uint32(end)}
}

// Next returns the next significant token.
func (lx *Lexer) Next() Token {
	lx.skipTrivia()
	if lx.off >= len(lx.src) {
		return Token{Kind: TokEOF, Span: lx.span(len(lx.src), len(lx.src))}
	}
	start := lx.off
	ch := lx.src[lx.off]
	single := func(k TokenKind) Token {
		lx.off++
		return Token{Kind: k, Span: lx.span(start, lx.off), Text: string(ch)}
	}
	switch {
	case ch == '{':
		return single(TokLBrace)
	case ch == '}':
		return single(TokRBrace)
	case ch == '[':
		return single(TokLBracket)
	case ch == ']':
		return single(TokRBracket)
	case ch == ':':
		return single(TokColon)
	case ch == ',':
		return single(TokComma)
	case ch == '"' || ch == '\'':
		return lx.scanString(ch)
	case isDigit(ch) || ch == '-' || ch == '+' || ch == '.':
		return lx.scanNumber()
	case isIdentStart(ch):
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		return Token{Kind: TokIdent, Span: lx.span(start, lx.off), Text: string(lx.src[start:lx.off])}
	}
	lx.off++
	for lx.off < len(lx.src) && lx.src[lx.off]&0xC0 == 0x80 {
		lx.off++
	}
	sp := lx.span(start, lx.off)
	diag.ReportError(lx.rep, diag.LexUnknownChar, sp, "unexpected character "+string(lx.src[start:lx.off])).Emit()
	return Token{Kind: TokInvalid, Span: sp, Text: string(lx.src[start:lx.off])}
}

func (lx *Lexer) skipTrivia() {
	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case ' ', '\t', '\n', '\r':
			lx.off++
			continue
		case '/':
			if lx.off+1 >= len(lx.src) {
				return
			}
			switch lx.src[lx.off+1] {
			case '/':
				lx.lineComment()
				continue
			case '*':
				lx.blockComment()
				continue
			}
		}
		return
	}
}

func (lx *Lexer) lineComment() {
	start := lx.off
	for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
		lx.off++
	}
	lx.addComment(start, lx.off, comments.Line)
}

func (lx *Lexer) blockComment() {
	start := lx.off
	lx.off += 2
	for lx.off+1 < len(lx.src) {
		if lx.src[lx.off] == '*' && lx.src[lx.off+1] == '/' {
			lx.off += 2
			lx.addComment(start, lx.off, comments.Block)
			return
		}
		lx.off++
	}
	lx.off = len(lx.src)
	lx.fatal = true
	diag.ReportError(lx.rep, diag.LexUnterminatedBlockComment, lx.span(start, start+2), "block comment is never closed").Emit()
}

func (lx *Lexer) addComment(start, end int, kind comments.Kind) {
	sp := lx.span(start, end)
	if lx.dialect == JSON {
		diag.ReportWarning(lx.rep, diag.SynDialectFeature, sp, "comments are not part of JSON").Emit()
	}
	lx.comments = append(lx.comments, comments.Raw{Span: sp, Kind: kind})
}

func (lx *Lexer) scanString(quote byte) Token {
	start := lx.off
	lx.off++
	for lx.off < len(lx.src) {
		ch := lx.src[lx.off]
		switch {
		case ch == '\\':
			lx.off += 2
			continue
		case ch == quote:
			lx.off++
			sp := lx.span(start, lx.off)
			if quote == '\'' && lx.dialect != JSON5 {
				diag.ReportWarning(lx.rep, diag.SynDialectFeature, sp, "single-quoted strings need json5").Emit()
			}
			return Token{Kind: TokString, Span: sp, Text: string(lx.src[start:lx.off])}
		case ch == '\n':
			sp := lx.span(start, lx.off)
			diag.ReportError(lx.rep, diag.LexUnterminatedString, sp, "string is not closed on its line").Emit()
			return Token{Kind: TokInvalid, Span: sp, Text: string(lx.src[start:lx.off])}
		}
		lx.off++
	}
	lx.off = len(lx.src)
	sp := lx.span(start, lx.off)
	diag.ReportError(lx.rep, diag.LexUnterminatedString, sp, "string is not closed").Emit()
	return Token{Kind: TokInvalid, Span: sp, Text: string(lx.src[start:lx.off])}
}

func (lx *Lexer) scanNumber() Token {
	start := lx.off
	lx.off++
	for lx.off < len(lx.src) {
		ch := lx.src[lx.off]
		prev := lx.src[lx.off-1]
		if isIdentPart(ch) || ch == '.' || ((ch == '+' || ch == '-') && (prev == 'e' || prev == 'E')) {
			lx.off++
			continue
		}
		break
	}
	text := string(lx.src[start:lx.off])
	sp := lx.span(start, lx.off)
	if !validNumber(text, lx.dialect) {
		diag.ReportError(lx.rep, diag.LexBadNumber, sp, "malformed number "+text).Emit()
		return Token{Kind: TokInvalid, Span: sp, Text: text}
	}
	return Token{Kind: TokNumber, Span: sp, Text: text}
}

// validNumber accepts JSON numbers, plus hex, leading/trailing dots, a
// leading '+' and Infinity/NaN in json5.
func validNumber(s string, d Dialect) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || (s[i] == '+' && d == JSON5)) {
		i++
	}
	rest := s[i:]
	if d == JSON5 {
		switch rest {
		case "Infinity", "NaN":
			return true
		}
		if len(rest) > 2 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
			for _, c := range []byte(rest[2:]) {
				if !isHex(c) {
					return false
				}
			}
			return true
		}
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if digits > 1 && s[i-digits] == '0' {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			frac++
		}
		if frac == 0 && d != JSON5 {
			return false
		}
		digits += frac
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
