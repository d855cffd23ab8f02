// Package merge reconciles a target JSON tree against a source tree.
//
// The merged tree has exactly the containers and keys of the source. Values
// the target already has are kept; anything new is filled with an empty copy
// of the source and reported as an Added record so it can be translated.
package merge

import (
	"fmt"
	"strings"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/tree"
	"github.com/minios-linux/locsync/treepath"
)

// Added is one point where new content entered the merged tree: a whole key,
// a whole array element, or a whole branch replaced because its kind changed.
type Added struct {
	Path   treepath.Path
	Source *tree.Node
}

func (a Added) String() string {
	return a.Path.String()
}

// Result is the outcome of merging one node.
type Result struct {
	Node    *tree.Node
	Changed bool
}

// Collector accumulates Added records for a single merge and forwards every
// decision to Observer. A Collector must not be shared between merges that
// run concurrently.
type Collector struct {
	Records  []Added
	Observer event.Observer
}

func (c *Collector) add(p treepath.Path, source *tree.Node) {
	c.Records = append(c.Records, Added{Path: p, Source: source})
	event.Emit(c.Observer, event.Event{
		Kind:  event.NodeAdded,
		Level: event.Info,
		Path:  p.String(),
	})
}

func (c *Collector) removed(p treepath.Path) {
	event.Emit(c.Observer, event.Event{
		Kind:  event.NodeRemoved,
		Level: event.Info,
		Path:  p.String(),
	})
}

// Trees merges target into the shape of source starting at the root.
//
// Nodes of target that need no change are reused in the result, so target
// must not be used afterwards except through the returned tree.
func Trees(source, target *tree.Node, obs event.Observer) (Result, []Added) {
	c := &Collector{Observer: obs}
	res := Merge(source, target, treepath.Path{}, c)
	return res, c.Records
}

// Merge merges target into the shape of source. at is the location of both
// nodes relative to the root, used for records and events. A nil c discards
// both.
func Merge(source, target *tree.Node, at treepath.Path, c *Collector) Result {
	if c == nil {
		c = &Collector{}
	}
	sk, tk := source.Kind(), target.Kind()

	if sk != tk {
		if sk.IsContainer() || tk.IsContainer() {
			// The whole branch is rebuilt from the source and reported as new.
			event.Emit(c.Observer, event.Event{
				Kind:    event.BranchReplaced,
				Level:   event.Warn,
				Path:    at.String(),
				Message: fmt.Sprintf("%s in source, %s in target", sk, tk),
			})
			c.add(at, source)
			return Result{Node: tree.Empty(source), Changed: true}
		}
		// Scalar drift: the existing value wins.
		event.Emit(c.Observer, event.Event{
			Kind:    event.ScalarDrift,
			Level:   event.Info,
			Path:    at.String(),
			Message: fmt.Sprintf("keeping %s, source has %s", tk, sk),
		})
		return Result{Node: target}
	}

	switch sk {
	case tree.KindArray:
		return mergeArrays(source, target, at, c)
	case tree.KindObject:
		return mergeObjects(source, target, at, c)
	}
	return Result{Node: target}
}

func mergeArrays(source, target *tree.Node, at treepath.Path, c *Collector) Result {
	src, dst := source.Items(), target.Items()
	items := make([]*tree.Node, 0, len(src))
	changed := false

	for i := 0; i < len(src) || i < len(dst); i++ {
		p := at.Elem(i)
		switch {
		case i < len(src) && i < len(dst):
			r := Merge(src[i], dst[i], p, c)
			items = append(items, r.Node)
			changed = changed || r.Changed
		case i < len(src):
			items = append(items, tree.Empty(src[i]))
			c.add(p, src[i])
			changed = true
		default:
			// Target is longer than source: drop the tail.
			c.removed(p)
			changed = true
		}
	}

	if !changed {
		return Result{Node: target}
	}
	return Result{Node: tree.Array(items...), Changed: true}
}

func mergeObjects(source, target *tree.Node, at treepath.Path, c *Collector) Result {
	src, dst := source.Object(), target.Object()
	out := dst.Copy()
	changed := false

	// Additions and updates, in source order.
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		p := at.Child(k)
		tv, ok := dst.Get(k)
		if !ok {
			out.Set(k, tree.Empty(sv))
			c.add(p, sv)
			changed = true
			continue
		}
		if r := Merge(sv, tv, p, c); r.Changed {
			out.Set(k, r.Node)
			changed = true
		}
	}

	// Deletions, judged against the original target keys.
	for _, k := range dst.Keys() {
		if !src.Has(k) {
			out.Delete(k)
			c.removed(at.Child(k))
			changed = true
		}
	}

	if !changed {
		return Result{Node: target}
	}
	return Result{Node: tree.Obj(out), Changed: true}
}

// Untranslated returns a record for every non-blank source string whose
// counterpart in merged is blank, typically left over from a translation
// that failed on an earlier run. Subtrees at the paths in skip are not
// visited.
func Untranslated(source, merged *tree.Node, skip []Added) []Added {
	return Stale(source, merged, skip, nil)
}

// Stale is like Untranslated but also reports leaves for which outdated
// returns true, such as strings whose source text changed since they were
// translated.
func Stale(source, merged *tree.Node, skip []Added, outdated func(p treepath.Path, text string) bool) []Added {
	skipped := make(map[string]bool, len(skip))
	for _, a := range skip {
		skipped[a.Path.String()] = true
	}

	var out []Added
	treepath.Walk(source, func(p treepath.Path, n *tree.Node) bool {
		if skipped[p.String()] {
			return false
		}
		if n.Kind() != tree.KindString || strings.TrimSpace(n.Str()) == "" {
			return true
		}
		m, ok := treepath.Get(merged, p)
		if !ok || m.Kind() != tree.KindString {
			return true
		}
		if strings.TrimSpace(m.Str()) == "" || (outdated != nil && outdated(p, n.Str())) {
			out = append(out, Added{Path: p, Source: n})
		}
		return true
	})
	return out
}
