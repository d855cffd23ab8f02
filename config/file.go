// Package config loads .locsync.yaml, the project configuration file.
//
// A project keeps one directory per language under a common locales
// directory (public/locales/en/common.json, public/locales/ru/common.json,
// ...). The source language directory is the source of truth; every other
// language directory is kept in structural lockstep with it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".locsync.yaml"

// Defaults.
const (
	DefaultSourceLang = "en"
	DefaultLocalesDir = "locales"
	DefaultProvider   = "google"
	DefaultIndent     = "  "
	DefaultBatchSize  = 30
	DefaultInclude    = "**/*.json"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .locsync.yaml structure.
type File struct {
	// SourceLang is the source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// LocalesDir holds one directory per language, relative to the config file.
	LocalesDir string `yaml:"locales_dir,omitempty"`
	// Languages are the target languages. Empty means every language
	// directory found next to the source one.
	Languages []string `yaml:"languages,omitempty"`
	// Include and Exclude are doublestar globs relative to the source
	// language directory.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	// Indent is the indentation of written files (default two spaces).
	Indent *string `yaml:"indent,omitempty"`
	// BatchSize is the number of strings per translation request.
	BatchSize int `yaml:"batch_size,omitempty"`
	// Translate enables machine translation of new content (default true).
	Translate *bool `yaml:"translate,omitempty"`
	// Lock enables locsync.lock tracking of source strings (default true).
	Lock *bool `yaml:"lock,omitempty"`
	// Parallel is the number of files synced at once (default 1).
	Parallel int `yaml:"parallel,omitempty"`
	// Provider selects the translation service.
	Provider Provider `yaml:"provider,omitempty"`
	// Prompt overrides the system prompt for batch translation.
	Prompt string `yaml:"prompt,omitempty"`

	path string
}

// Provider is the provider section of .locsync.yaml.
type Provider struct {
	ID      string        `yaml:"id,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	BaseURL string        `yaml:"base_url,omitempty"`
	Proxy   string        `yaml:"proxy,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load loads and validates .locsync.yaml from the given directory.
// Returns nil if no .locsync.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default returns the configuration used when no .locsync.yaml exists.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

// Path returns the file the configuration was loaded from, or "".
func (f *File) Path() string {
	return f.path
}

func (f *File) applyDefaults() {
	if f.SourceLang == "" {
		f.SourceLang = DefaultSourceLang
	}
	if f.LocalesDir == "" {
		f.LocalesDir = DefaultLocalesDir
	}
	if len(f.Include) == 0 {
		f.Include = []string{DefaultInclude}
	}
	if f.Indent == nil {
		indent := DefaultIndent
		f.Indent = &indent
	}
	if f.BatchSize == 0 {
		f.BatchSize = DefaultBatchSize
	}
	if f.Translate == nil {
		on := true
		f.Translate = &on
	}
	if f.Lock == nil {
		on := true
		f.Lock = &on
	}
	if f.Parallel == 0 {
		f.Parallel = 1
	}
	if f.Provider.ID == "" {
		f.Provider.ID = DefaultProvider
	}
}

// Validate checks field values. Errors name the config file and field.
func (f *File) Validate() error {
	name := f.path
	if name == "" {
		name = FileName
	}

	if !IsLangCode(f.SourceLang) {
		return fmt.Errorf("%s: source_lang %q is not a language code", name, f.SourceLang)
	}
	for i, lang := range f.Languages {
		if !IsLangCode(lang) {
			return fmt.Errorf("%s: languages #%d %q is not a language code", name, i+1, lang)
		}
		if lang == f.SourceLang {
			return fmt.Errorf("%s: languages: %q is the source language", name, lang)
		}
	}
	if f.Indent != nil && strings.Trim(*f.Indent, " \t") != "" {
		return fmt.Errorf("%s: indent must contain only spaces or tabs", name)
	}
	if f.BatchSize < 0 {
		return fmt.Errorf("%s: batch_size must be positive", name)
	}
	if f.Parallel < 0 {
		return fmt.Errorf("%s: parallel must be positive", name)
	}
	if f.Provider.Timeout < 0 {
		return fmt.Errorf("%s: provider.timeout must be positive", name)
	}
	return nil
}

// IndentString returns the configured indentation.
func (f *File) IndentString() string {
	if f.Indent == nil {
		return DefaultIndent
	}
	return *f.Indent
}

// TranslateEnabled reports whether new content is machine translated.
func (f *File) TranslateEnabled() bool {
	return f.Translate == nil || *f.Translate
}

// LockEnabled reports whether locsync.lock is used.
func (f *File) LockEnabled() bool {
	return f.Lock == nil || *f.Lock
}
