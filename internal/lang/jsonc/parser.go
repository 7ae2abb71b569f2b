package jsonc

import (
	"bytes"
	"errors"
	"fmt"

	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/source"
)

// ErrUnrecoverable is returned when the input cannot be delimited: an
// unclosed bracket or block comment.
var ErrUnrecoverable = errors.New("unrecoverable syntax error")

type state uint8

const (
	wantValue   state = iota
	wantKey           // after '{' or ',' in an object
	wantElement       // after '[' or ',' in an array
	wantSep           // a value just ended
	done
)

type parser struct {
	lx    *Lexer
	tok   Token
	tree  *Tree
	src   []byte
	rep   diag.Reporter
	stack []comments.NodeID
	state state
	err   error
}

// Parse builds the syntax tree of file without native recursion, so nesting
// depth is limited by memory only. Malformed containers become NodeBogus.
func Parse(file *source.File, dialect Dialect, rep diag.Reporter) (*Tree, error) {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	p := &parser{
		lx:   NewLexer(file, dialect, rep),
		tree: &Tree{File: file, Dialect: dialect},
		src:  file.Content,
		rep:  rep,
	}
	p.advance()
	doc := p.add(NodeDocument, 0, comments.NoNode)
	p.tree.nodes[doc].Span = file.Span()
	p.stack = append(p.stack, doc)
	p.run()
	p.tree.raws = p.lx.Comments()
	if p.err == nil && p.lx.fatal {
		p.err = fmt.Errorf("%w: unterminated block comment", ErrUnrecoverable)
	}
	return p.tree, p.err
}

func (p *parser) advance() { p.tok = p.lx.Next() }

func (p *parser) add(kind NodeKind, start uint32, parent comments.NodeID) comments.NodeID {
	id := comments.NodeID(len(p.tree.nodes))
	p.tree.nodes = append(p.tree.nodes, Node{
		Kind:   kind,
		Span:   source.Span{File: p.tree.File.ID, Start: start, End: start},
		Parent: parent,
	})
	if parent != comments.NoNode {
		p.tree.nodes[parent].Children = append(p.tree.nodes[parent].Children, id)
	}
	return id
}

func (p *parser) top() comments.NodeID { return p.stack[len(p.stack)-1] }

func (p *parser) pop() { p.stack = p.stack[:len(p.stack)-1] }

func (p *parser) leaf(kind NodeKind) {
	id := p.add(kind, p.tok.Span.Start, p.top())
	n := &p.tree.nodes[id]
	n.Span = p.tok.Span
	n.Text = p.tok.Text
	p.advance()
}

func (p *parser) run() {
	for p.state != done {
		switch p.state {
		case wantValue:
			p.value()
		case wantKey:
			p.key()
		case wantElement:
			if p.tok.Kind == TokRBracket {
				p.closeContainer()
				continue
			}
			p.state = wantValue
		case wantSep:
			p.separator()
		}
	}
}

func (p *parser) value() {
	switch p.tok.Kind {
	case TokLBrace:
		open := p.tok
		id := p.add(NodeObject, open.Span.Start, p.top())
		p.stack = append(p.stack, id)
		p.advance()
		p.tree.nodes[id].Multiline = bytes.IndexByte(p.src[open.Span.End:p.tok.Span.Start], '\n') >= 0
		p.state = wantKey
	case TokLBracket:
		id := p.add(NodeArray, p.tok.Span.Start, p.top())
		p.stack = append(p.stack, id)
		p.advance()
		p.state = wantElement
	case TokString:
		p.leaf(NodeString)
		p.state = wantSep
	case TokNumber:
		p.leaf(NodeNumber)
		p.state = wantSep
	case TokIdent:
		if !p.literal(p.tok.Text) {
			p.failHere(diag.SynExpectValue, "expected a value, found "+p.tok.Text)
			return
		}
		p.leaf(NodeLiteral)
		p.state = wantSep
	case TokEOF:
		if p.tree.nodes[p.top()].Kind == NodeDocument {
			p.state = done
			return
		}
		p.fail(diag.SynExpectValue, "expected a value")
	default:
		p.failHere(diag.SynExpectValue, "expected a value, found "+p.tok.Kind.String())
	}
}

func (p *parser) literal(s string) bool {
	switch s {
	case "true", "false", "null":
		return true
	case "Infinity", "NaN":
		return p.tree.Dialect == JSON5
	}
	return false
}

func (p *parser) key() {
	switch p.tok.Kind {
	case TokRBrace:
		p.closeContainer()
		return
	case TokString, TokIdent:
	default:
		p.failHere(diag.SynExpectKey, "expected a member name, found "+p.tok.Kind.String())
		return
	}
	if p.tok.Kind == TokIdent && p.tree.Dialect != JSON5 {
		diag.ReportWarning(p.rep, diag.SynDialectFeature, p.tok.Span, "unquoted member names need json5").Emit()
	}
	member := p.add(NodeMember, p.tok.Span.Start, p.top())
	p.stack = append(p.stack, member)
	kind := NodeString
	if p.tok.Kind == TokIdent {
		kind = NodeLiteral
	}
	p.leaf(kind)
	if p.tok.Kind != TokColon {
		p.failHere(diag.SynExpectColon, "expected ':' after member name")
		return
	}
	p.advance()
	p.state = wantValue
}

func (p *parser) separator() {
	id := p.top()
	n := &p.tree.nodes[id]
	switch n.Kind {
	case NodeMember:
		last := n.Children[len(n.Children)-1]
		n.Span.End = p.tree.nodes[last].Span.End
		p.pop()
		return
	case NodeDocument:
		if p.tok.Kind == TokEOF {
			p.state = done
			return
		}
		p.fail(diag.SynTrailingContent, "unexpected "+p.tok.Kind.String()+" after the document value")
		return
	}

	closer, next := TokRBracket, wantElement
	if n.Kind == NodeObject {
		closer, next = TokRBrace, wantKey
	}
	switch p.tok.Kind {
	case TokComma:
		comma := p.tok.Span
		p.advance()
		if p.tok.Kind == closer {
			n.HasTrailing = true
			n.TrailingComma = comma
			if p.tree.Dialect == JSON {
				diag.ReportWarning(p.rep, diag.SynDialectFeature, comma, "trailing commas are not part of JSON").Emit()
			}
		}
		p.state = next
	case closer:
		p.closeContainer()
	default:
		p.fail(diag.SynUnexpectedToken, fmt.Sprintf("expected ',' or %s, found %s", closer, p.tok.Kind))
	}
}

func (p *parser) closeContainer() {
	n := &p.tree.nodes[p.top()]
	n.Span.End = p.tok.Span.End
	p.advance()
	p.pop()
	p.state = wantSep
}

// failHere reports the error and makes the broken value, member name or
// member bogus up to the next ',' or closer of the enclosing container.
// When nothing can be skipped the whole container goes, as in fail.
func (p *parser) failHere(code diag.Code, msg string) {
	diag.ReportError(p.rep, code, p.tok.Span, msg).Emit()
	id := p.top()
	n := &p.tree.nodes[id]
	if n.Kind == NodeDocument {
		p.bogusContainer()
		return
	}
	start := p.tok.Span.Start
	end, ok := p.skipToSeparator()
	if !ok || end == start {
		p.bogusContainer()
		return
	}
	if n.Kind == NodeMember && p.state == wantKey {
		// the colon is missing: the member as a whole is unreadable
		n.Kind = NodeBogus
		n.Span.End = end
		p.pop()
	} else {
		bogus := p.add(NodeBogus, start, id)
		p.tree.nodes[bogus].Span.End = end
	}
	p.state = wantSep
}

// skipToSeparator advances to the next ',' or closer outside nested
// brackets and returns the end of the last skipped token. It reports false
// at EOF.
func (p *parser) skipToSeparator() (uint32, bool) {
	end, depth := p.tok.Span.Start, 0
	for {
		switch {
		case p.tok.Kind == TokEOF:
			return end, false
		case depth == 0 && (p.tok.Kind == TokComma || p.tok.closes()):
			return end, true
		case p.tok.Kind == TokLBrace || p.tok.Kind == TokLBracket:
			depth++
		case p.tok.closes():
			depth--
		}
		end = p.tok.Span.End
		p.advance()
	}
}

// fail reports the error at the current token and turns the innermost
// container into a bogus node.
func (p *parser) fail(code diag.Code, msg string) {
	diag.ReportError(p.rep, code, p.tok.Span, msg).Emit()
	p.bogusContainer()
}

// bogusContainer turns the innermost container into a bogus node spanning
// up to its matching closer. At the top level the rest of the file becomes
// bogus.
func (p *parser) bogusContainer() {
	for len(p.stack) > 1 && !p.tree.nodes[p.top()].IsContainer() {
		p.pop()
	}
	id := p.top()
	n := &p.tree.nodes[id]
	if n.Kind == NodeDocument {
		bogus := p.add(NodeBogus, p.tok.Span.Start, id)
		for p.tok.Kind != TokEOF {
			p.advance()
		}
		p.tree.nodes[bogus].Span.End = uint32(len(p.src))
		p.state = done
		return
	}

	depth := 0
	for {
		switch {
		case p.tok.Kind == TokEOF:
			open := source.Span{File: n.Span.File, Start: n.Span.Start, End: n.Span.Start + 1}
			diag.ReportError(p.rep, diag.SynUnclosedDelimiter, open, "this bracket is never closed").Emit()
			p.err = fmt.Errorf("%w: unclosed %s", ErrUnrecoverable, n.Kind)
			p.state = done
			return
		case p.tok.Kind == TokLBrace || p.tok.Kind == TokLBracket:
			depth++
		case p.tok.closes():
			if depth == 0 {
				n.Kind = NodeBogus
				p.closeContainer()
				return
			}
			depth--
		}
		p.advance()
	}
}
