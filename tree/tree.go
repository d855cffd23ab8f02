// Package tree implements an ordered JSON value model.
//
// Objects remember the order in which their keys were first seen, so a
// document can be parsed, edited and written back without reshuffling keys.
// Numbers keep their literal text.
package tree

import (
	"encoding/json"
)

// Kind is the type of a node as far as structural comparison is concerned.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsContainer reports whether k is an object or an array.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject
}

// Node is a JSON value. The zero value is null.
type Node struct {
	kind  Kind
	str   string
	num   json.Number
	b     bool
	items []*Node
	obj   *Object
}

// Null returns a new null node.
func Null() *Node { return &Node{kind: KindNull} }

// String returns a new string node.
func String(s string) *Node { return &Node{kind: KindString, str: s} }

// Number returns a new number node holding the literal text n.
func Number(n json.Number) *Node { return &Node{kind: KindNumber, num: n} }

// Bool returns a new boolean node.
func Bool(b bool) *Node { return &Node{kind: KindBool, b: b} }

// Array returns a new array node with the given elements.
func Array(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{kind: KindArray, items: items}
}

// Obj returns a new object node wrapping o. A nil o yields an empty object.
func Obj(o *Object) *Node {
	if o == nil {
		o = NewObject()
	}
	return &Node{kind: KindObject, obj: o}
}

// Kind returns the kind of n. A nil node is null.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// Str returns the string value, or "" for non-string nodes.
func (n *Node) Str() string {
	if n == nil || n.kind != KindString {
		return ""
	}
	return n.str
}

// SetStr overwrites the value of a string node. It is a no-op on other
// kinds.
func (n *Node) SetStr(s string) {
	if n != nil && n.kind == KindString {
		n.str = s
	}
}

// Num returns the literal number text, or "" for non-number nodes.
func (n *Node) Num() json.Number {
	if n == nil || n.kind != KindNumber {
		return ""
	}
	return n.num
}

// BoolValue returns the boolean value, or false for non-boolean nodes.
func (n *Node) BoolValue() bool {
	return n != nil && n.kind == KindBool && n.b
}

// Items returns the elements of an array node. The slice is owned by the
// node; callers that need to modify it should use SetItems.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.items
}

// Len returns the number of elements of an array or members of an object.
func (n *Node) Len() int {
	switch n.Kind() {
	case KindArray:
		return len(n.items)
	case KindObject:
		return n.obj.Len()
	}
	return 0
}

// Index returns the i-th array element.
func (n *Node) Index(i int) (*Node, bool) {
	if n.Kind() != KindArray || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// SetItems replaces the elements of an array node.
func (n *Node) SetItems(items []*Node) {
	if items == nil {
		items = []*Node{}
	}
	n.items = items
}

// Object returns the members of an object node, or nil.
func (n *Node) Object() *Object {
	if n == nil || n.kind != KindObject {
		return nil
	}
	return n.obj
}

// Replace overwrites n in place with the contents of v.
func (n *Node) Replace(v *Node) {
	if v == nil {
		*n = Node{kind: KindNull}
		return
	}
	*n = *v
}

// Object is an insertion-ordered mapping of string keys to nodes.
type Object struct {
	keys   []string
	values map[string]*Node
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]*Node)}
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the member named key.
func (o *Object) Get(key string) (*Node, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is a member.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position.
func (o *Object) Set(key string, v *Node) {
	if o.values == nil {
		o.values = make(map[string]*Node)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Copy returns a shallow copy of o: a new key list and map holding the same
// member nodes.
func (o *Object) Copy() *Object {
	c := &Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]*Node, len(o.values)),
	}
	copy(c.keys, o.keys)
	for k, v := range o.values {
		c.values[k] = v
	}
	return c
}
