package syntax

// Node is the language-neutral view of a syntax tree node that the classifier walks.
// Field returns nil when the node has no child under that field name.
type Node interface {
	Kind() string
	Text() string
	Field(name string) Node
	Children() []Node
}

// Walk visits root and every descendant in pre-order, children left to right. It
// keeps its own stack so very deep trees from large diffs cannot overflow the
// goroutine stack.
func Walk(root Node, visit func(Node)) {
	if root == nil {
		return
	}

	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visit(n)

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] != nil {
				stack = append(stack, children[i])
			}
		}
	}
}
