package placeholder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello {{name}}", []string{"{{name}}"}},
		{"Hello {{ name }} and {{name}}", []string{"{{name}}"}},
		{"{count} items, {user.id}", []string{"{count}", "{user.id}"}},
		{"%{n} of %d in %s", []string{"%d", "%s", "%{n}"}},
		{"Delete :file now?", []string{":file"}},
		{":count left", []string{":count"}},
		{"See https://example.com at 10:30", nil},
		{"Plain text", nil},
		{"", nil},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got := Extract(tc.text)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		source, candidate string
		want              bool
	}{
		{"Hello {{name}}", "Bonjour {{name}}", true},
		{"Hello {{name}}", "Bonjour", false},
		{"Hello {{name}}", "Bonjour {{nom}}", false},
		{"Hi {{ name }}", "Salut {{name}}", true},
		{"{a} then {b}", "{b} puis {a}", true},
		{"{a} and {a}", "{a}", true},
		{"%s of %d", "%d de %s", true},
		{"%s of %d", "%s de", false},
		{"No tokens", "Aucun {jeton}", true},
	}
	for _, tc := range tests {
		if got := Compare(tc.source, tc.candidate); got != tc.want {
			t.Errorf("Compare(%q, %q) = %v, want %v", tc.source, tc.candidate, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "[]" {
		t.Fatalf("Format(nil) = %q", got)
	}
	if got := Format([]string{"%s", "{x}"}); got != "[%s, {x}]" {
		t.Fatalf("Format = %q", got)
	}
}
