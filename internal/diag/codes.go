package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004

	// Синтаксические
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynUnclosedDelimiter Code = 2002
	SynExpectValue       Code = 2003
	SynExpectKey         Code = 2004
	SynExpectColon       Code = 2005
	SynTrailingContent   Code = 2006
	SynDialectFeature    Code = 2007

	// Форматирование
	FmtInfo              Code = 3000
	FmtVerbatimFallback  Code = 3001
	FmtIgnored           Code = 3002
	FmtUnattachedComment Code = 3003
	FmtNotIdempotent     Code = 3004
	FmtLineTooWide       Code = 3005

	// Конфигурация
	CfgInfo         Code = 4000
	CfgUnknownKey   Code = 4001
	CfgInvalidValue Code = 4002

	IOLoadFileError Code = 5001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Malformed number literal",
		SynInfo:                     "Syntax information",
		SynUnexpectedToken:          "Unexpected token",
		SynUnclosedDelimiter:        "Unclosed delimiter",
		SynExpectValue:              "Expected a value",
		SynExpectKey:                "Expected a member key",
		SynExpectColon:              "Expected ':' after key",
		SynTrailingContent:          "Unexpected content after document end",
		SynDialectFeature:           "Construct not allowed in this dialect",
		FmtInfo:                     "Formatting information",
		FmtVerbatimFallback:         "Region kept verbatim",
		FmtIgnored:                  "Region excluded from formatting",
		FmtUnattachedComment:        "Comment could not be attached",
		FmtNotIdempotent:            "Formatting is not stable",
		FmtLineTooWide:              "Line exceeds print width",
		CfgInfo:                     "Configuration information",
		CfgUnknownKey:               "Unknown configuration key",
		CfgInvalidValue:             "Invalid configuration value",
		IOLoadFileError:             "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FMT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
