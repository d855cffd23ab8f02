// Package langmeta resolves language codes to display metadata (English and
// native names, emoji flags) for prompts and CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical code, e.g. "pt-BR".
	Code string
	// Name is the English name, used in translation prompts.
	Name string
	// Native is the name of the language in itself.
	Native string
	// Flag is the emoji flag of the language's region, or "".
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code. Codes like
// pt_BR and pt-BR are equivalent. Unknown codes resolve to themselves.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	meta := Meta{Code: code, Name: lang, Native: lang}

	tag, err := language.Parse(code)
	if err != nil {
		return meta
	}
	if name := display.English.Languages().Name(tag); name != "" {
		meta.Name = name
	}
	if native := display.Self.Name(tag); native != "" {
		meta.Native = native
	}
	if region, conf := tag.Region(); conf != language.No {
		meta.Flag = flag(region.String())
	}
	return meta
}

// Name returns the English name of lang.
func Name(lang string) string {
	return Resolve(lang).Name
}

// flag builds the regional-indicator pair for a two-letter region code.
func flag(region string) string {
	if len(region) != 2 || region == "ZZ" {
		return ""
	}
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}
