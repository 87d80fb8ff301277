package pyast

// Children returns the direct children of n in source order. Nil entries are
// never returned.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Module:
		add(n.Body...)
	case *FunctionDef:
		add(n.Decorators...)
		add(n.Params...)
		add(n.Returns)
		add(n.Body...)
	case *ClassDef:
		add(n.Decorators...)
		add(n.Bases...)
		add(n.Body...)
	case *Call:
		add(n.Func)
		add(n.Args...)
	case *Attribute:
		add(n.Value)
	case *Compound:
		add(n.Elems...)
	case *Import, *ImportFrom, *Name:
		// leaves
	}
	return out
}

// Inspect walks the tree rooted at n in depth-first pre-order. If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
