package ir

import (
	"fmt"
	"strconv"
)

// Debug renders doc as a document of its own structure, suitable for
// printing with the regular printer. ids may be nil; when present its debug
// names label group references.
func Debug(doc *Document, ids *GroupIDs) Document {
	type frame struct {
		e        *Element
		children []Element
		next     int // next child to visit
		kids     []*Element
	}

	interned := make(map[sharedKey]int)
	var result Element
	stack := []*frame{{e: &doc.Root}}
	stack[0].kids = debugChildren(stack[0].e, interned)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.kids) {
			child := top.kids[top.next]
			top.next++
			f := &frame{e: child}
			f.kids = debugChildren(child, interned)
			stack = append(stack, f)
			continue
		}
		stack = stack[:len(stack)-1]
		rendered := debugRender(top.e, top.children, ids, interned)
		if len(stack) == 0 {
			result = rendered
			break
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, rendered)
	}
	return NewDocument(result, nil)
}

// sharedKey identifies a content slice by its first element and length.
type sharedKey struct {
	first *Element
	n     int
}

// debugChildren lists children to render; a shared content block is rendered
// only at its first occurrence.
func debugChildren(e *Element, interned map[sharedKey]int) []*Element {
	if e.Kind == KindInterned && len(e.Content) > 0 {
		key := sharedKey{&e.Content[0], len(e.Content)}
		if _, seen := interned[key]; seen {
			return nil
		}
		interned[key] = len(interned)
	}
	if e.Kind == KindBestFitting {
		out := make([]*Element, 0, len(e.Variants))
		for i := range e.Variants {
			// каждый вариант рисуем как отдельный список
			out = append(out, &Element{Kind: KindList, Content: e.Variants[i]})
		}
		return out
	}
	out := make([]*Element, len(e.Content))
	for i := range e.Content {
		out[i] = &e.Content[i]
	}
	return out
}

func debugRender(e *Element, children []Element, ids *GroupIDs, interned map[sharedKey]int) Element {
	switch e.Kind {
	case KindText:
		return Text(strconv.Quote(e.Text))
	case KindSpace:
		return Text("space")
	case KindLine:
		switch e.Line {
		case LineSoft:
			return Text("soft_line_break")
		case LineSoftOrSpace:
			return Text("soft_line_break_or_space")
		case LineHard:
			return Text("hard_line_break")
		default:
			return Text("empty_line")
		}
	case KindExpandParent:
		return Text("expand_parent")
	case KindLineSuffixBoundary:
		return Text("line_suffix_boundary")
	case KindVerbatim:
		return Text(fmt.Sprintf("verbatim(%s)", strconv.Quote(e.Text)))
	case KindRemoved:
		return Text(fmt.Sprintf("removed(%d..%d)", e.Span.Start, e.Span.End))
	case KindSourcePos:
		return Text(fmt.Sprintf("source_position(%d)", e.Span.Start))
	case KindList:
		return debugList("", children)
	case KindIndent:
		return debugList("indent", children)
	case KindDedent:
		if e.Root {
			return debugList("dedent_to_root", children)
		}
		return debugList("dedent", children)
	case KindAlign:
		return debugList(fmt.Sprintf("align(%d, ", e.Align), children)
	case KindGroup:
		label := "group("
		if e.ID != NoGroup {
			label += "id: " + groupRef(e.ID, ids) + ", "
		}
		if e.Expand == ExpandAlways {
			label += "expand: always, "
		}
		return debugList(label, children)
	case KindConditional:
		name := "if_group_fits_on_line("
		if e.Mode == ModeExpanded {
			name = "if_group_breaks("
		}
		if e.ID != NoGroup {
			name += groupRef(e.ID, ids) + ", "
		}
		return debugList(name, children)
	case KindIndentIfBreak:
		return debugList("indent_if_group_breaks("+groupRef(e.ID, ids)+", ", children)
	case KindFill:
		return debugList("fill", children)
	case KindBestFitting:
		return debugList("best_fitting", children)
	case KindLineSuffix:
		return debugList("line_suffix", children)
	case KindInterned:
		if len(e.Content) == 0 {
			return Text("interned([])")
		}
		n := interned[sharedKey{&e.Content[0], len(e.Content)}]
		if len(children) == 0 {
			return Text(fmt.Sprintf("<ref interned %d>", n))
		}
		return debugList(fmt.Sprintf("<interned %d>", n), children)
	}
	return Text(e.Kind.String())
}

func groupRef(id GroupID, ids *GroupIDs) string {
	if name := ids.Name(id); name != "" {
		return fmt.Sprintf("#%d %s", id, name)
	}
	return fmt.Sprintf("#%d", id)
}

// debugList renders label[child, child, ...]; labels ending in ", " or "("
// get a matching closing paren.
func debugList(label string, children []Element) Element {
	closing := "]"
	if n := len(label); n > 0 && (label[n-1] == '(' || label[n-1] == ' ') {
		closing = "])"
	}
	if len(children) == 0 {
		return Text(label + "[" + closing)
	}
	return Group(
		Text(label+"["),
		Indent(SoftLine(), CommaList(children...)),
		SoftLine(),
		Text(closing),
	)
}
