package printer

// indentation is an arena of immutable indentation prefixes. Node 0 is the
// root (no indentation). Children are cached per parent, so measuring the
// same subtree repeatedly does not grow the arena.
type indentation struct {
	nodes []indentNode
	style IndentStyle
	unit  int // IndentWidth
	tab   int // TabWidth
}

type indentNode struct {
	parent int32
	align  int   // 0 for an indent level, n for n spaces of alignment
	width  int   // cumulative display width
	indent int32 // cached indent child, 0 if none
	aligns map[int]int32
}

func newIndentation(opts Options) *indentation {
	return &indentation{
		nodes: []indentNode{{parent: -1}},
		style: opts.IndentStyle,
		unit:  opts.IndentWidth,
		tab:   opts.TabWidth,
	}
}

func (in *indentation) width(i int32) int {
	return in.nodes[i].width
}

func (in *indentation) indent(parent int32) int32 {
	if c := in.nodes[parent].indent; c != 0 {
		return c
	}
	w := in.unit
	if in.style == IndentTabs {
		w = in.tab
	}
	id := int32(len(in.nodes))
	in.nodes = append(in.nodes, indentNode{parent: parent, width: in.nodes[parent].width + w})
	in.nodes[parent].indent = id
	return id
}

func (in *indentation) align(parent int32, n int) int32 {
	if c, ok := in.nodes[parent].aligns[n]; ok {
		return c
	}
	id := int32(len(in.nodes))
	in.nodes = append(in.nodes, indentNode{parent: parent, align: n, width: in.nodes[parent].width + n})
	if in.nodes[parent].aligns == nil {
		in.nodes[parent].aligns = make(map[int]int32, 1)
	}
	in.nodes[parent].aligns[n] = id
	return id
}

// dedent drops the innermost part.
func (in *indentation) dedent(i int32) int32 {
	if i == 0 {
		return 0
	}
	return in.nodes[i].parent
}

// appendPrefix writes the whitespace for node i.
func (in *indentation) appendPrefix(out []byte, i int32, scratch []int32) ([]byte, []int32) {
	scratch = scratch[:0]
	for ; i > 0; i = in.nodes[i].parent {
		scratch = append(scratch, i)
	}
	for k := len(scratch) - 1; k >= 0; k-- {
		n := &in.nodes[scratch[k]]
		switch {
		case n.align > 0:
			out = appendSpaces(out, n.align)
		case in.style == IndentTabs:
			out = append(out, '\t')
		default:
			out = appendSpaces(out, in.unit)
		}
	}
	return out, scratch
}

func appendSpaces(out []byte, n int) []byte {
	for range n {
		out = append(out, ' ')
	}
	return out
}
