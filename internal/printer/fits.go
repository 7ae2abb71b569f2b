package printer

import (
	"sort"
	"strings"

	"loom/internal/ir"
)

// measure selects how far a fits simulation looks.
type measure uint8

const (
	// firstLine stops successfully at the first line break printed expanded.
	firstLine measure = iota
	// allLines keeps going across expanded breaks of the measured content;
	// every line must fit. The rest of the stack is still read to its first
	// break only.
	allLines
)

type probe struct {
	el    *ir.Element
	ind   int32
	mode  ir.Mode
	fill  int
	close bool // end of a memoised group content
}

type memoKey struct {
	content contentKey
	col     int
	ind     int32 // only for allLines, where breaks restart at the indentation
	flags   uint8
}

type outcome uint8

const (
	noFit outcome = iota
	fitsAtBreak
	fitsToEnd
)

type memoResult struct {
	outcome outcome
	col     int
	space   bool
	suffix  bool
}

type memoFrame struct {
	key memoKey
	seq int
}

// simGroup is the mode a group takes within one simulation. seq is the
// newest frame that contains the group; frames opened later are nested in
// it or come after it.
type simGroup struct {
	id   ir.GroupID
	mode ir.Mode
	seq  int
}

const clean = int(^uint(0) >> 1)

type fitState struct {
	col        int
	space      bool
	suffix     bool
	how        measure
	mustBeFlat bool
	frames     []memoFrame
	seq        int
	// frames at or above taintFrom read a group mode their key does not cover
	taintFrom int
	sim       []simGroup
}

// enter records the simulated mode of a group; its own frame, if any, is
// the last one opened.
func (st *fitState) enter(id ir.GroupID, mode ir.Mode) {
	if id != ir.NoGroup {
		st.sim = append(st.sim, simGroup{id: id, mode: mode, seq: st.seq})
	}
}

func (st *fitState) taint(from int) {
	if from < len(st.frames) && from < st.taintFrom {
		st.taintFrom = from
	}
}

func (st *fitState) flags() uint8 {
	var f uint8
	if st.how == allLines {
		f |= 1
	}
	if st.mustBeFlat {
		f |= 2
	}
	if st.space {
		f |= 4
	}
	if st.suffix {
		f |= 8
	}
	return f
}

// fitsGroup measures g flat from the current column, followed by the rest of
// the print stack up to its first expanded line break.
func (p *printer) fitsGroup(g *ir.Element, ind int32) bool {
	return p.fits([]probe{{el: g, ind: ind, mode: ir.ModeFlat}}, true, firstLine, false)
}

// fitsVariant measures a best-fitting candidate across all its lines.
// A nested forced group inside the candidate is measured expanded like any
// other content: the candidate is accepted when each of its lines fits.
func (p *printer) fitsVariant(v []ir.Element, ind int32, mode ir.Mode) bool {
	start := make([]probe, len(v))
	for i := range v {
		start[i] = probe{el: &v[i], ind: ind, mode: mode}
	}
	return p.fits(start, true, allLines, false)
}

// fitsFlat measures els flat with no lookahead; used by Fill.
func (p *printer) fitsFlat(ind int32, els ...*ir.Element) bool {
	start := make([]probe, len(els))
	for i, e := range els {
		start[i] = probe{el: e, ind: ind, mode: ir.ModeFlat}
	}
	return p.fits(start, false, firstLine, true)
}

func (p *printer) fits(start []probe, rest bool, how measure, mustBeFlat bool) bool {
	p.stats.FitsSimulations++
	st := fitState{
		col:        p.col,
		space:      p.space,
		suffix:     len(p.suffixes) > 0,
		how:        how,
		mustBeFlat: mustBeFlat,
		taintFrom:  clean,
	}
	width := p.opts.PrintWidth

	stack := p.probes[:0]
	defer func() { p.probes = stack[:0] }()
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i])
	}
	restIdx := len(p.cmds)

	pushContent := func(content []ir.Element, ind int32, mode ir.Mode) {
		for i := len(content) - 1; i >= 0; i-- {
			stack = append(stack, probe{el: &content[i], ind: ind, mode: mode})
		}
	}

	for {
		if len(stack) == 0 {
			if !rest || restIdx == 0 {
				return true
			}
			// past the measured content only the first line counts
			st.how = firstLine
			restIdx--
			c := p.cmds[restIdx]
			stack = append(stack, probe{el: c.el, ind: c.ind, mode: c.mode, fill: c.fill})
			continue
		}
		pr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pr.close {
			i := len(st.frames) - 1
			if i < st.taintFrom {
				p.memo[st.frames[i].key] = memoResult{outcome: fitsToEnd, col: st.col, space: st.space, suffix: st.suffix}
			}
			st.frames = st.frames[:i]
			if st.taintFrom >= i {
				st.taintFrom = clean
			}
			continue
		}

		p.stats.FitsSteps++
		e := pr.el
		switch e.Kind {
		case ir.KindList, ir.KindInterned:
			pushContent(e.Content, pr.ind, pr.mode)

		case ir.KindText:
			if e.Text == "" {
				continue
			}
			st.advance(e, p.opts.TabWidth)
			if st.col > width {
				return p.settle(&st, noFit)
			}

		case ir.KindVerbatim:
			if e.Text == "" {
				continue
			}
			nl := strings.IndexByte(e.Text, '\n')
			if nl < 0 {
				st.advance(e, p.opts.TabWidth)
				if st.col > width {
					return p.settle(&st, noFit)
				}
				continue
			}
			if st.space {
				st.col++
				st.space = false
			}
			st.col = ir.ExpandTabs(st.col, e.Text[:nl], p.opts.TabWidth)
			if st.col > width {
				return p.settle(&st, noFit)
			}
			if st.how == firstLine {
				return p.settle(&st, fitsAtBreak)
			}
			st.col = ir.ExpandTabs(0, e.Text[strings.LastIndexByte(e.Text, '\n')+1:], p.opts.TabWidth)
			if st.col > width {
				return p.settle(&st, noFit)
			}

		case ir.KindSpace:
			st.space = true

		case ir.KindLine:
			if pr.mode == ir.ModeFlat {
				switch e.Line {
				case ir.LineSoft:
					continue
				case ir.LineSoftOrSpace:
					st.space = true
					continue
				}
				return p.settle(&st, noFit)
			}
			if st.how == firstLine {
				return p.settle(&st, fitsAtBreak)
			}
			st.col = p.indents.width(pr.ind)
			st.space = false
			st.suffix = false

		case ir.KindExpandParent:
			if pr.mode == ir.ModeFlat {
				return p.settle(&st, noFit)
			}

		case ir.KindLineSuffix:
			st.suffix = true

		case ir.KindLineSuffixBoundary:
			if !st.suffix {
				continue
			}
			if pr.mode == ir.ModeFlat {
				return p.settle(&st, noFit)
			}
			if st.how == firstLine {
				return p.settle(&st, fitsAtBreak)
			}
			st.col = p.indents.width(pr.ind)
			st.space = false
			st.suffix = false

		case ir.KindIndent:
			pushContent(e.Content, p.indents.indent(pr.ind), pr.mode)
		case ir.KindDedent:
			ind := int32(0)
			if !e.Root {
				ind = p.indents.dedent(pr.ind)
			}
			pushContent(e.Content, ind, pr.mode)
		case ir.KindAlign:
			pushContent(e.Content, p.indents.align(pr.ind, e.Align), pr.mode)

		case ir.KindGroup:
			if len(e.Content) == 0 {
				continue
			}
			mode := pr.mode
			if p.forced(e) {
				if mustBeFlat {
					return p.settle(&st, noFit)
				}
				mode = ir.ModeExpanded
			}
			if mode == ir.ModeFlat {
				key := memoKey{content: keyOf(e.Content), col: st.col, flags: st.flags()}
				if st.how == allLines {
					key.ind = pr.ind
				}
				if r, ok := p.memo[key]; ok {
					p.stats.MemoHits++
					switch r.outcome {
					case noFit:
						return p.settle(&st, noFit)
					case fitsAtBreak:
						return p.settle(&st, fitsAtBreak)
					}
					st.enter(e.ID, mode)
					st.col, st.space, st.suffix = r.col, r.space, r.suffix
					continue
				}
				st.seq++
				st.frames = append(st.frames, memoFrame{key: key, seq: st.seq})
				stack = append(stack, probe{el: e, close: true})
			}
			st.enter(e.ID, mode)
			pushContent(e.Content, pr.ind, mode)

		case ir.KindConditional:
			if p.lookupMode(&st, e.ID, pr.mode) == e.Mode {
				pushContent(e.Content, pr.ind, pr.mode)
			}
		case ir.KindIndentIfBreak:
			ind := pr.ind
			if p.lookupMode(&st, e.ID, pr.mode) == ir.ModeExpanded {
				ind = p.indents.indent(ind)
			}
			pushContent(e.Content, ind, pr.mode)

		case ir.KindFill:
			if pr.fill < len(e.Content) {
				pushContent(e.Content[pr.fill:], pr.ind, pr.mode)
			}

		case ir.KindBestFitting:
			if len(e.Variants) == 0 {
				continue
			}
			if pr.mode == ir.ModeFlat {
				pushContent(e.Variants[0], pr.ind, ir.ModeFlat)
			} else {
				pushContent(e.Variants[len(e.Variants)-1], pr.ind, ir.ModeExpanded)
			}

		case ir.KindRemoved, ir.KindSourcePos:
			// no width
		}
	}
}

func (st *fitState) advance(e *ir.Element, tabWidth int) {
	if st.space {
		st.col++
		st.space = false
	}
	if e.Tabs {
		// tab stops depend on the absolute column
		st.col = ir.ExpandTabs(st.col, e.Text, tabWidth)
		return
	}
	st.col += e.Width
}

// lookupMode resolves a group mode during a simulation. A frame that does
// not contain the group cannot be memoised: its cached result would hold
// for this mode only.
func (p *printer) lookupMode(st *fitState, id ir.GroupID, enclosing ir.Mode) ir.Mode {
	if id == ir.NoGroup {
		return enclosing
	}
	for i := len(st.sim) - 1; i >= 0; i-- {
		if g := st.sim[i]; g.id == id {
			st.taint(sort.Search(len(st.frames), func(j int) bool { return st.frames[j].seq > g.seq }))
			return g.mode
		}
	}
	st.taint(0)
	if int(id) < len(p.modes) && p.modes[id] >= 0 {
		return ir.Mode(p.modes[id])
	}
	return ir.ModeFlat
}

// settle records the final outcome for every group still being measured and
// returns whether the simulation fit.
func (p *printer) settle(st *fitState, o outcome) bool {
	for i := min(len(st.frames), st.taintFrom) - 1; i >= 0; i-- {
		p.memo[st.frames[i].key] = memoResult{outcome: o}
	}
	st.frames = st.frames[:0]
	return o != noFit
}
