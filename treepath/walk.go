package treepath

import "github.com/minios-linux/locsync/tree"

// Walk calls fn for root and every node below it in pre-order: object
// members in key order, array elements in index order. Returning false from
// fn skips the children of that node.
func Walk(root *tree.Node, fn func(Path, *tree.Node) bool) {
	walk(root, Path{}, fn)
}

func walk(n *tree.Node, p Path, fn func(Path, *tree.Node) bool) {
	if !fn(p, n) {
		return
	}
	switch n.Kind() {
	case tree.KindArray:
		for i, item := range n.Items() {
			walk(item, p.Elem(i), fn)
		}
	case tree.KindObject:
		obj := n.Object()
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			walk(v, p.Child(k), fn)
		}
	}
}
