package ir

// Walk visits e and its descendants in pre-order. Returning false from fn
// skips the children of the visited element. Traversal uses an explicit
// stack, so deeply nested documents do not grow the call stack.
func Walk(e *Element, fn func(*Element) bool) {
	stack := []*Element{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Variants) - 1; i >= 0; i-- {
			v := cur.Variants[i]
			for j := len(v) - 1; j >= 0; j-- {
				stack = append(stack, &v[j])
			}
		}
		for i := len(cur.Content) - 1; i >= 0; i-- {
			stack = append(stack, &cur.Content[i])
		}
	}
}

// Stats counts elements by kind.
func Stats(doc *Document) map[Kind]int {
	out := make(map[Kind]int)
	Walk(&doc.Root, func(e *Element) bool {
		out[e.Kind]++
		return true
	})
	return out
}
