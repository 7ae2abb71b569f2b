package printer

import (
	"errors"
	"fmt"
	"strings"

	"loom/internal/invariant"
	"loom/internal/ir"
)

// Printed is the result of one print pass.
type Printed struct {
	Code      []byte
	Map       SourceMap
	Stats     Stats
	Overflows []Overflow
}

// Overflow records an output line wider than the print width.
type Overflow struct {
	Line  int // 1-based
	Width int
}

// Stats are counters collected while printing.
type Stats struct {
	FitsSimulations int // calls into the fits measurement
	FitsSteps       int // elements visited while measuring
	MemoHits        int
	MemoEntries     int
	ForcedScans     int
	GroupsFlat      int
	GroupsExpanded  int
}

type cmd struct {
	el   *ir.Element
	ind  int32
	mode ir.Mode
	fill int // first remaining part for a Fill
}

type printer struct {
	opts    Options
	indents *indentation
	nl      string

	out       []byte
	col       int
	lineStart int
	line      int
	newlines  int // consecutive line breaks just written
	protected int // out[:protected] is never trimmed
	space     bool
	indentDue bool
	indentAt  int32

	cmds     []cmd
	suffixes []cmd
	modes    []int8 // by group id: -1 undecided
	remeasure bool

	memo        map[memoKey]memoResult
	forcedCache map[contentKey]bool
	probes      []probe
	scratch     []*ir.Element
	prefix      []int32

	srcMap    SourceMap
	stats     Stats
	overflows []Overflow
	err       error
}

var hardLine = ir.HardLine()

// ErrInvariant marks an engine defect detected in debug/test builds.
var ErrInvariant = invariant.ErrViolation

// Print lays out doc. It makes every group decision in a single forward pass
// and never fails on a well-formed document; ErrInvalidOptions and invariant
// violations caught in debug/test builds are the only errors.
func Print(doc *ir.Document, opts Options) (*Printed, error) {
	if doc == nil {
		return nil, errors.New("printer: nil document")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := newPrinter(doc, opts.withDefaults())
	p.run()
	if p.err != nil {
		return nil, fmt.Errorf("printer: %w", p.err)
	}
	p.trim()
	p.closeLine()
	p.srcMap.Size = len(p.out)
	p.stats.MemoEntries = len(p.memo)
	return &Printed{
		Code:      p.out,
		Map:       p.srcMap,
		Stats:     p.stats,
		Overflows: p.overflows,
	}, nil
}

func newPrinter(doc *ir.Document, opts Options) *printer {
	p := &printer{
		opts:        opts,
		indents:     newIndentation(opts),
		nl:          opts.LineEnding.Sequence(),
		out:         make([]byte, 0, 1024),
		line:        1,
		newlines:    2, // no leading blank lines
		modes:       make([]int8, doc.Groups+1),
		memo:        make(map[memoKey]memoResult),
		forcedCache: make(map[contentKey]bool),
	}
	for i := range p.modes {
		p.modes[i] = -1
	}
	p.cmds = append(p.cmds, cmd{el: &doc.Root, mode: ir.ModeExpanded})
	return p
}

func (p *printer) push(ind int32, mode ir.Mode, content []ir.Element) {
	for i := len(content) - 1; i >= 0; i-- {
		p.cmds = append(p.cmds, cmd{el: &content[i], ind: ind, mode: mode})
	}
}

func (p *printer) run() {
	for p.err == nil {
		if len(p.cmds) == 0 {
			if len(p.suffixes) == 0 {
				return
			}
			p.flushSuffixes()
			continue
		}
		c := p.cmds[len(p.cmds)-1]
		p.cmds = p.cmds[:len(p.cmds)-1]
		e := c.el

		switch e.Kind {
		case ir.KindList, ir.KindInterned:
			p.push(c.ind, c.mode, e.Content)
		case ir.KindText:
			p.writeText(e)
		case ir.KindVerbatim:
			p.writeVerbatim(e)
		case ir.KindSpace:
			p.space = true
		case ir.KindRemoved, ir.KindSourcePos:
			if e.HasSpan {
				at := len(p.out)
				p.srcMap.add(e.Span, Range{Start: at, End: at})
			}
		case ir.KindIndent:
			p.push(p.indents.indent(c.ind), c.mode, e.Content)
		case ir.KindDedent:
			ind := int32(0)
			if !e.Root {
				ind = p.indents.dedent(c.ind)
			}
			p.push(ind, c.mode, e.Content)
		case ir.KindAlign:
			p.push(p.indents.align(c.ind, e.Align), c.mode, e.Content)
		case ir.KindGroup:
			p.printGroup(c)
		case ir.KindConditional:
			if p.modeOf(e.ID, c.mode) == e.Mode {
				p.push(c.ind, c.mode, e.Content)
			}
		case ir.KindIndentIfBreak:
			ind := c.ind
			if p.modeOf(e.ID, c.mode) == ir.ModeExpanded {
				ind = p.indents.indent(ind)
			}
			p.push(ind, c.mode, e.Content)
		case ir.KindFill:
			p.printFill(c)
		case ir.KindBestFitting:
			p.printBestFitting(c)
		case ir.KindLineSuffix:
			p.suffixes = append(p.suffixes, cmd{el: &ir.Element{Kind: ir.KindList, Content: e.Content}, ind: c.ind, mode: c.mode})
		case ir.KindLineSuffixBoundary:
			if len(p.suffixes) > 0 {
				p.cmds = append(p.cmds, cmd{el: &hardLine, ind: c.ind, mode: ir.ModeExpanded})
			}
		case ir.KindExpandParent:
			// only affects the enclosing group decision
		case ir.KindLine:
			p.printLine(c)
		default:
			p.err = invariant.Errorf("unknown element kind %s", e.Kind)
		}
	}
}

func (p *printer) modeOf(id ir.GroupID, enclosing ir.Mode) ir.Mode {
	if id == ir.NoGroup {
		return enclosing
	}
	if int(id) < len(p.modes) && p.modes[id] >= 0 {
		return ir.Mode(p.modes[id])
	}
	return ir.ModeFlat
}

func (p *printer) setMode(id ir.GroupID, m ir.Mode) {
	if id == ir.NoGroup {
		return
	}
	for int(id) >= len(p.modes) {
		p.modes = append(p.modes, -1)
	}
	p.modes[id] = int8(m)
}

func (p *printer) printGroup(c cmd) {
	g := c.el
	mode := ir.ModeFlat
	switch {
	case p.forced(g):
		mode = ir.ModeExpanded
	case c.mode == ir.ModeFlat && !p.remeasure:
		// родитель плоский, значит и мы влезли
	default:
		p.remeasure = false
		if !p.fitsGroup(g, c.ind) {
			mode = ir.ModeExpanded
		}
	}
	if mode == ir.ModeFlat {
		p.stats.GroupsFlat++
	} else {
		p.stats.GroupsExpanded++
	}
	p.setMode(g.ID, mode)
	p.push(c.ind, mode, g.Content)
}

func (p *printer) printBestFitting(c cmd) {
	vs := c.el.Variants
	if len(vs) == 0 {
		return
	}
	if c.mode == ir.ModeFlat && !p.remeasure {
		p.push(c.ind, ir.ModeFlat, vs[0])
		return
	}
	p.remeasure = false
	for i, v := range vs[:len(vs)-1] {
		mode := ir.ModeExpanded
		if i == 0 {
			mode = ir.ModeFlat
		}
		if p.fitsVariant(v, c.ind, mode) {
			p.push(c.ind, mode, v)
			return
		}
	}
	p.push(c.ind, ir.ModeExpanded, vs[len(vs)-1])
}

// printFill decides the separator after the next item: flat when the item
// and the following one fit together, expanded otherwise.
func (p *printer) printFill(c cmd) {
	parts := c.el.Content[c.fill:]
	if len(parts) == 0 {
		return
	}
	content := &parts[0]
	contentFits := p.fitsFlat(c.ind, content)
	contentMode := ir.ModeExpanded
	if contentFits {
		contentMode = ir.ModeFlat
	}
	if len(parts) == 1 {
		p.cmds = append(p.cmds, cmd{el: content, ind: c.ind, mode: contentMode})
		return
	}
	sep := &parts[1]
	if len(parts) == 2 {
		sepMode := ir.ModeExpanded
		if contentFits && p.fitsFlat(c.ind, content, sep) {
			sepMode = ir.ModeFlat
		}
		p.cmds = append(p.cmds,
			cmd{el: sep, ind: c.ind, mode: sepMode},
			cmd{el: content, ind: c.ind, mode: contentMode})
		return
	}

	p.cmds = append(p.cmds, cmd{el: c.el, ind: c.ind, mode: c.mode, fill: c.fill + 2})
	sepMode := ir.ModeExpanded
	if contentFits && p.fitsFlat(c.ind, content, sep, &parts[2]) {
		sepMode = ir.ModeFlat
	}
	p.cmds = append(p.cmds,
		cmd{el: sep, ind: c.ind, mode: sepMode},
		cmd{el: content, ind: c.ind, mode: contentMode})
}

func (p *printer) printLine(c cmd) {
	e := c.el
	if c.mode == ir.ModeFlat {
		switch e.Line {
		case ir.LineSoft:
			return
		case ir.LineSoftOrSpace:
			p.space = true
			return
		}
		if invariant.Enabled() {
			p.err = invariant.Errorf("%s line reached the printer in flat mode", e.Line)
			return
		}
		// release builds: break anyway and re-check the next group
		p.remeasure = true
	}
	if len(p.suffixes) > 0 {
		p.cmds = append(p.cmds, c)
		p.flushSuffixes()
		return
	}
	p.newline(c.ind, e.Line == ir.LineEmpty)
}

func (p *printer) flushSuffixes() {
	for i := len(p.suffixes) - 1; i >= 0; i-- {
		p.cmds = append(p.cmds, p.suffixes[i])
	}
	p.suffixes = p.suffixes[:0]
}

// newline ends the current line. At most one blank line is ever produced.
func (p *printer) newline(ind int32, blank bool) {
	p.trim()
	p.space = false
	want := 1
	if blank {
		want = 2
	}
	for ; want > 0 && p.newlines < 2; want-- {
		p.closeLine()
		p.out = append(p.out, p.nl...)
		p.newlines++
		p.line++
		p.lineStart = len(p.out)
	}
	p.col = p.indents.width(ind)
	p.indentDue = true
	p.indentAt = ind
}

// closeLine records an overflow for the line being terminated.
func (p *printer) closeLine() {
	if p.col > p.opts.PrintWidth && len(p.out) > p.lineStart {
		p.overflows = append(p.overflows, Overflow{Line: p.line, Width: p.col})
	}
}

// trim strips trailing spaces and tabs, never touching verbatim output.
func (p *printer) trim() {
	n := len(p.out)
	for n > p.protected && n > p.lineStart && (p.out[n-1] == ' ' || p.out[n-1] == '\t') {
		n--
	}
	if n == len(p.out) {
		return
	}
	p.col -= len(p.out) - n
	p.out = p.out[:n]
	for i := len(p.srcMap.Markers) - 1; i >= 0; i-- {
		m := &p.srcMap.Markers[i]
		if m.Dest.End <= n {
			break
		}
		m.Dest.End = n
		m.Dest.Start = min(m.Dest.Start, n)
	}
}

func (p *printer) beginWrite() {
	if p.indentDue {
		p.out, p.prefix = p.indents.appendPrefix(p.out, p.indentAt, p.prefix)
		p.indentDue = false
	}
	if p.space {
		p.out = append(p.out, ' ')
		p.col++
		p.space = false
	}
}

func (p *printer) writeText(e *ir.Element) {
	if e.Text == "" {
		if e.HasSpan {
			at := len(p.out)
			p.srcMap.add(e.Span, Range{Start: at, End: at})
		}
		return
	}
	p.beginWrite()
	start := len(p.out)
	p.out = append(p.out, e.Text...)
	if e.Tabs {
		p.col = ir.ExpandTabs(p.col, e.Text, p.opts.TabWidth)
	} else {
		p.col += e.Width
	}
	p.newlines = 0
	if e.HasSpan {
		p.srcMap.add(e.Span, Range{Start: start, End: len(p.out)})
	}
}

func (p *printer) writeVerbatim(e *ir.Element) {
	if e.Text == "" {
		return
	}
	p.beginWrite()
	start := len(p.out)
	raw := e.Text
	last := strings.LastIndexByte(raw, '\n')
	if p.nl == "\n" {
		p.out = append(p.out, raw...)
	} else {
		p.out = append(p.out, strings.ReplaceAll(raw, "\n", p.nl)...)
	}
	if last < 0 {
		p.col = ir.ExpandTabs(p.col, raw, p.opts.TabWidth)
		p.newlines = 0
	} else {
		p.col = ir.ExpandTabs(p.col, raw[:strings.IndexByte(raw, '\n')], p.opts.TabWidth)
		p.closeLine()
		tail := raw[last+1:]
		p.line += strings.Count(raw, "\n")
		p.col = ir.ExpandTabs(0, tail, p.opts.TabWidth)
		p.lineStart = len(p.out) - len(tail)
		if tail == "" {
			p.newlines = min(len(raw)-len(strings.TrimRight(raw, "\n")), 2)
		} else {
			p.newlines = 0
		}
	}
	p.protected = len(p.out)
	if e.HasSpan {
		p.srcMap.add(e.Span, Range{Start: start, End: len(p.out)})
	}
}
