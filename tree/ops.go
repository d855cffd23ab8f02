package tree

import "strings"

// Empty returns a tree with the same structure as n in which every string
// leaf is blank. Numbers, booleans and nulls are copied unchanged. The
// result shares no nodes with n.
func Empty(n *Node) *Node {
	switch n.Kind() {
	case KindString:
		return String("")
	case KindArray:
		items := make([]*Node, len(n.items))
		for i, item := range n.items {
			items[i] = Empty(item)
		}
		return Array(items...)
	case KindObject:
		obj := NewObject()
		for _, k := range n.obj.keys {
			obj.Set(k, Empty(n.obj.values[k]))
		}
		return Obj(obj)
	}
	return Clone(n)
}

// Clone returns a deep copy of n.
func Clone(n *Node) *Node {
	switch n.Kind() {
	case KindNull:
		return Null()
	case KindBool:
		return Bool(n.b)
	case KindNumber:
		return Number(n.num)
	case KindString:
		return String(n.str)
	case KindArray:
		items := make([]*Node, len(n.items))
		for i, item := range n.items {
			items[i] = Clone(item)
		}
		return Array(items...)
	default:
		obj := NewObject()
		for _, k := range n.obj.keys {
			obj.Set(k, Clone(n.obj.values[k]))
		}
		return Obj(obj)
	}
}

// Equal reports whether a and b hold the same value. Object member order is
// significant, since it is visible in the written file.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for i, k := range a.obj.keys {
			if b.obj.keys[i] != k {
				return false
			}
			if !Equal(a.obj.values[k], b.obj.values[k]) {
				return false
			}
		}
		return true
	}
}

// SameShape reports whether a and b have identical container structure:
// the same object keys and array lengths at every level, and a container
// wherever the other has one. Scalars of any kind match each other.
func SameShape(a, b *Node) bool {
	ka, kb := a.Kind(), b.Kind()
	if !ka.IsContainer() && !kb.IsContainer() {
		return true
	}
	if ka != kb {
		return false
	}
	if ka == KindArray {
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !SameShape(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	if a.obj.Len() != b.obj.Len() {
		return false
	}
	for _, k := range a.obj.keys {
		bv, ok := b.obj.values[k]
		if !ok || !SameShape(a.obj.values[k], bv) {
			return false
		}
	}
	return true
}

// Strings returns every string leaf of n in pre-order: object members in
// insertion order, array elements by index.
func Strings(n *Node) []*Node {
	var out []*Node
	walkStrings(n, func(s *Node) { out = append(out, s) })
	return out
}

func walkStrings(n *Node, fn func(*Node)) {
	switch n.Kind() {
	case KindString:
		fn(n)
	case KindArray:
		for _, item := range n.items {
			walkStrings(item, fn)
		}
	case KindObject:
		for _, k := range n.obj.keys {
			walkStrings(n.obj.values[k], fn)
		}
	}
}

// Stats counts the string leaves of n and how many of them are non-blank.
func Stats(n *Node) (total, filled int) {
	walkStrings(n, func(s *Node) {
		total++
		if strings.TrimSpace(s.str) != "" {
			filled++
		}
	})
	return
}
