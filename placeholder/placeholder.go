// Package placeholder checks that interpolation tokens survive translation.
//
// Recognized forms are {{name}}, {name}, %{name}, %s, %d and :name.
// Whitespace inside braces is not significant, so "{{ name }}" and
// "{{name}}" are the same token. Other formats, such as ICU plural blocks,
// are not recognized.
package placeholder

import (
	"regexp"
	"sort"
	"strings"
)

var (
	bracedRe = regexp.MustCompile(`\{\{\s*[\w.\-]+\s*\}\}|%\{\s*[\w.\-]+\s*\}|\{\s*[\w.\-]+\s*\}|%[sd]`)
	// A colon token must not follow a word character or another colon, so
	// URLs and times are left alone.
	colonRe = regexp.MustCompile(`(?:^|[^\w:]):([A-Za-z_]\w*)`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Extract returns the sorted, de-duplicated placeholder tokens in text.
func Extract(text string) []string {
	seen := make(map[string]bool)
	for _, m := range bracedRe.FindAllString(text, -1) {
		seen[spaceRe.ReplaceAllString(m, "")] = true
	}
	for _, m := range colonRe.FindAllStringSubmatch(text, -1) {
		seen[":"+m[1]] = true
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Compare reports whether candidate carries the same placeholders as source.
// A source without placeholders accepts any candidate.
func Compare(source, candidate string) bool {
	want := Extract(source)
	if len(want) == 0 {
		return true
	}
	got := Extract(candidate)
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// Format renders a token list for log messages.
func Format(tokens []string) string {
	if len(tokens) == 0 {
		return "[]"
	}
	return "[" + strings.Join(tokens, ", ") + "]"
}
