// Package treepath addresses nodes inside a tree.
//
// A path is written as the literal "root" followed by steps: ".key" selects
// an object member and "[N]" an array element, e.g. root.menu.items[2].label.
// Keys that would be ambiguous in that form (empty, or containing '.', '[',
// ']', '\'' or '\\') are quoted: root.'a.b'[0].
//
// Internally a path is a typed sequence of steps; the string form exists
// for records, logs and debugging.
package treepath

import (
	"fmt"
	"strconv"
	"strings"
)

// Root is the name of the top-level node.
const Root = "root"

// Step is one path element: an object key or an array index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns an object member step.
func Key(k string) Step { return Step{Key: k} }

// Index returns an array element step.
func Index(i int) Step { return Step{Index: i, IsIndex: true} }

func (s Step) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if needsQuote(s.Key) {
		return ".'" + quoteReplacer.Replace(s.Key) + "'"
	}
	return "." + s.Key
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func needsQuote(k string) bool {
	return k == "" || strings.ContainsAny(k, `.[]'\`)
}

// Path is a sequence of steps from the root.
type Path []Step

// Child returns a new path extended with an object key.
func (p Path) Child(key string) Path {
	return p.append(Key(key))
}

// Elem returns a new path extended with an array index.
func (p Path) Elem(i int) Path {
	return p.append(Index(i))
}

func (p Path) append(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString(Root)
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// Parse parses the string form of a path. It accepts exactly what String
// produces, so a bare trailing dot ("root.") is an error: the empty key is
// written root.'' and the root itself is plain "root".
func Parse(s string) (Path, error) {
	if !strings.HasPrefix(s, Root) {
		return nil, fmt.Errorf("path %q should start with %q", s, Root)
	}
	rest := s[len(Root):]
	p := Path{}
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			key, n, err := parseKey(rest[1:])
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", s, err)
			}
			p = append(p, Key(key))
			rest = rest[1+n:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("path %q: expected '[' <index> ']'", s)
			}
			i, err := strconv.ParseUint(rest[1:end], 10, 31)
			if err != nil {
				return nil, fmt.Errorf("path %q: bad index %q", s, rest[1:end])
			}
			p = append(p, Index(int(i)))
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("path %q: expected '.' or '[' at %q", s, rest)
		}
	}
	return p, nil
}

// parseKey reads a key following '.', returning it and the number of bytes
// consumed.
func parseKey(s string) (string, int, error) {
	if strings.HasPrefix(s, "'") {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				if i+1 == len(s) {
					return "", 0, fmt.Errorf("unterminated escape in quoted key")
				}
				i++
				b.WriteByte(s[i])
			case '\'':
				return b.String(), i + 1, nil
			default:
				b.WriteByte(s[i])
			}
		}
		return "", 0, fmt.Errorf("unterminated quoted key")
	}

	end := strings.IndexAny(s, ".[")
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return "", 0, fmt.Errorf("empty key (quote it as '')")
	}
	return s[:end], end, nil
}
