package jsonc

import "loom/internal/source"

type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokColon
	TokComma
	TokString
	TokNumber
	TokIdent
	TokInvalid
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "end of file"
	case TokLBrace:
		return "'{'"
	case TokRBrace:
		return "'}'"
	case TokLBracket:
		return "'['"
	case TokRBracket:
		return "']'"
	case TokColon:
		return "':'"
	case TokComma:
		return "','"
	case TokString:
		return "string"
	case TokNumber:
		return "number"
	case TokIdent:
		return "identifier"
	}
	return "invalid token"
}

type Token struct {
	Kind TokenKind
	Span source.Span
	Text string
}

func (t Token) closes() bool {
	return t.Kind == TokRBrace || t.Kind == TokRBracket
}
