package treepath

import (
	"fmt"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/tree"
)

// Get returns the node at p.
func Get(root *tree.Node, p Path) (*tree.Node, bool) {
	cur := root
	for _, s := range p {
		next, ok := lookup(cur, s)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set stores v at p inside root, modifying root in place. Missing
// intermediate containers are created; the kind of each new container is
// chosen by the step that follows it. An intermediate value of the wrong
// kind is overwritten with a fresh container and reported as a
// PathConflict. An empty path replaces the contents of root itself.
//
// Set fails, leaving root untouched, only when root itself cannot hold the
// first step.
func Set(root *tree.Node, p Path, v *tree.Node, obs event.Observer) error {
	if root == nil {
		return fmt.Errorf("set %s: nil root", p)
	}
	if len(p) == 0 {
		root.Replace(v)
		return nil
	}
	if !fits(root, p[0]) {
		return fmt.Errorf("set %s: root is %s, cannot hold step %s", p, root.Kind(), p[0])
	}

	cur := root
	for i, s := range p[:len(p)-1] {
		next := p[i+1]
		child, ok := lookup(cur, s)
		if !ok || child == nil {
			child = container(next)
			store(cur, s, child)
		} else if !fits(child, next) {
			fresh := container(next)
			event.Emit(obs, event.Event{
				Kind:    event.PathConflict,
				Level:   event.Warn,
				Path:    p[:i+1].String(),
				Message: fmt.Sprintf("replacing %s with %s to reach %s", child.Kind(), fresh.Kind(), p),
			})
			child = fresh
			store(cur, s, child)
		}
		cur = child
	}
	store(cur, p[len(p)-1], v)
	return nil
}

// SetAtPath parses path and stores v there. Failures are reported to obs as
// PathAborted and leave root unchanged; the return value tells whether the
// value was stored.
func SetAtPath(root *tree.Node, path string, v *tree.Node, obs event.Observer) bool {
	p, err := Parse(path)
	if err != nil {
		event.Emit(obs, event.Event{
			Kind:    event.PathAborted,
			Level:   event.Warn,
			Path:    path,
			Message: err.Error(),
		})
		return false
	}
	return Inject(root, p, v, obs)
}

func fits(n *tree.Node, s Step) bool {
	if s.IsIndex {
		return n.Kind() == tree.KindArray
	}
	return n.Kind() == tree.KindObject
}

func container(s Step) *tree.Node {
	if s.IsIndex {
		return tree.Array()
	}
	return tree.Obj(nil)
}

func lookup(n *tree.Node, s Step) (*tree.Node, bool) {
	if s.IsIndex {
		return n.Index(s.Index)
	}
	return n.Object().Get(s.Key)
}

// store assumes fits(n, s). Arrays are padded with nulls up to the index.
func store(n *tree.Node, s Step, v *tree.Node) {
	if !s.IsIndex {
		n.Object().Set(s.Key, v)
		return
	}
	items := n.Items()
	for len(items) <= s.Index {
		items = append(items, tree.Null())
	}
	items[s.Index] = v
	n.SetItems(items)
}

// Inject stores v at p like Set, reporting a failure to obs as PathAborted
// instead of returning it.
func Inject(root *tree.Node, p Path, v *tree.Node, obs event.Observer) bool {
	if err := Set(root, p, v, obs); err != nil {
		event.Emit(obs, event.Event{
			Kind:    event.PathAborted,
			Level:   event.Warn,
			Path:    p.String(),
			Message: err.Error(),
		})
		return false
	}
	return true
}
