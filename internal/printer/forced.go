package printer

import "loom/internal/ir"

// forced reports whether g must print expanded: either it is marked
// ExpandAlways or its direct content holds a hard break, an empty line or an
// ExpandParent. Nested groups and best-fitting variants resolve on their own
// and are not looked into, nor is IfFlat content. Results are cached by content identity.
func (p *printer) forced(g *ir.Element) bool {
	if g.Expand == ir.ExpandAlways {
		return true
	}
	if len(g.Content) == 0 {
		return false
	}
	key := keyOf(g.Content)
	if v, ok := p.forcedCache[key]; ok {
		return v
	}
	p.stats.ForcedScans++
	v := scanForced(g.Content, &p.scratch)
	p.forcedCache[key] = v
	return v
}

// contentKey identifies a content slice. Groups built from subslices of one
// backing array share the first element, so the length is part of the key.
type contentKey struct {
	first *ir.Element
	n     int
}

func keyOf(content []ir.Element) contentKey {
	return contentKey{first: &content[0], n: len(content)}
}

func scanForced(content []ir.Element, scratch *[]*ir.Element) bool {
	stack := (*scratch)[:0]
	defer func() { *scratch = stack[:0] }()

	for i := range content {
		stack = append(stack, &content[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch e.Kind {
		case ir.KindLine:
			if e.Line.Forces() {
				return true
			}
		case ir.KindExpandParent:
			return true
		case ir.KindGroup, ir.KindBestFitting:
			// отдельное решение
		case ir.KindConditional:
			// flat-only content never prints when the group is expanded
			if e.Mode == ir.ModeExpanded {
				for i := range e.Content {
					stack = append(stack, &e.Content[i])
				}
			}
		default:
			for i := range e.Content {
				stack = append(stack, &e.Content[i])
			}
		}
	}
	return false
}
