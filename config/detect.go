package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsLangCode reports whether s looks like a language directory name:
// "ru", "pt-BR", "pt_BR", "zh-Hans".
func IsLangCode(s string) bool {
	if len(s) < 2 {
		return false
	}
	base, region, hasRegion := strings.Cut(strings.ReplaceAll(s, "_", "-"), "-")
	if len(base) < 2 || len(base) > 3 {
		return false
	}
	for _, c := range base {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	if !hasRegion {
		return true
	}
	if len(region) < 2 || len(region) > 4 {
		return false
	}
	for _, c := range region {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// DetectLanguages finds language directories next to the source language
// directory. The source language itself is not included. Results are sorted.
func DetectLanguages(localesDir, sourceLang string) []string {
	entries, err := os.ReadDir(localesDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lang := entry.Name()
		if lang == sourceLang || !IsLangCode(lang) {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// candidateDirs are the common locales directory locations tried by
// DetectLocalesDir, in order.
var candidateDirs = []string{
	"public/locales",
	"locales",
	"src/locales",
	"src/i18n/locales",
	"assets/locales",
	"static/locales",
	"i18n",
}

// DetectLocalesDir looks for a locales directory under rootDir that holds a
// sourceLang subdirectory with JSON files. Returns the path relative to
// rootDir, or "" when none is found.
func DetectLocalesDir(rootDir, sourceLang string) string {
	for _, dir := range candidateDirs {
		langDir := filepath.Join(rootDir, dir, sourceLang)
		if hasJSON(langDir) {
			return dir
		}
	}
	return ""
}

func hasJSON(dir string) bool {
	found := false
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
