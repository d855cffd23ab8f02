// Package translate fills trees with machine translations.
//
// A Translator is the external capability: it translates a batch of strings,
// or a whole tree at once. TranslateFragment drives the batch form over a
// subtree, guarding placeholders and failing closed. AI implements
// Translator over HTTP chat APIs, and Cache adds a translation memory in
// front of any Translator.
package translate

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/minios-linux/locsync/tree"
)

// Translator translates UI text between two languages.
//
// TranslateBatch must return one string per input, in order. TranslateTree
// must return a tree with the shape of n.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
	TranslateTree(ctx context.Context, n *tree.Node, sourceLang, targetLang string) (*tree.Node, error)
}

// ErrLengthMismatch is returned by translators that wrap another one when
// the inner translator answers a batch with the wrong number of strings.
var ErrLengthMismatch = errors.New("translator returned the wrong number of strings")

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderGroq         = "groq"
	ProviderOpenAI       = "openai"
	ProviderCustomOpenAI = "custom-openai"
	ProviderOllama       = "ollama"
	ProviderAnthropic    = "anthropic"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (google, groq, openai, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// NeedsKey reports whether the provider requires an API key.
func (p Provider) NeedsKey() bool {
	return p.ID != ProviderOllama && p.ID != ProviderCustomOpenAI
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.5-flash",
			Timeout: 120 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 60 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Timeout: 120 * time.Second,
		},
	}
}

// ProviderIDs returns the known provider IDs, sorted.
func ProviderIDs() []string {
	ids := make([]string, 0, len(DefaultProviders()))
	for id := range DefaultProviders() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
