package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/tree"
)

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

// BatchSystemPrompt is the system prompt for translating a list of UI strings.
const BatchSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings of an application from {{sourceLang}} to {{targetLang}}.

CONTEXT AWARENESS:
- The strings come from JSON resource files of a web or desktop application
- The audience is application users
- Tone: professional yet approachable, clear and concise
- Use IT/software terminology that is standard in {{targetLang}} tech community

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in the target language, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Keep the original tone and intent, but express it naturally in {{targetLang}}

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order.
- Preserve all interpolation variables exactly as-is ({{count}}, {name}, %{name}, %s, %d, :name).
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

// TreeSystemPrompt is the system prompt for translating a whole JSON document.
const TreeSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating a JSON resource file of an application from {{sourceLang}} to {{targetLang}}.

TECHNICAL REQUIREMENTS:
- Translate every string value to {{targetLang}}.
- Do NOT translate, add, remove or reorder keys. Keep arrays the same length.
- Leave numbers, booleans and null unchanged.
- Preserve all interpolation variables exactly as-is ({{count}}, {name}, %{name}, %s, %d, :name).
- Return ONLY the JSON document, no explanations or markdown code blocks.`

// resolvePrompt fills in the language names of a prompt template.
func resolvePrompt(prompt, sourceLang, targetLang string) string {
	r := strings.NewReplacer(
		"{{sourceLang}}", langmeta.Name(sourceLang),
		"{{targetLang}}", langmeta.Name(targetLang),
	)
	return r.Replace(prompt)
}

// ---------------------------------------------------------------------------
// AI translator options
// ---------------------------------------------------------------------------

// Options controls the AI translator.
type Options struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// SystemPrompt overrides BatchSystemPrompt. {{sourceLang}} and
	// {{targetLang}} are replaced with language names.
	SystemPrompt string
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// MaxRetries is the maximum number of retries on rate limit, network
	// errors and 5xx responses. Default: 3.
	MaxRetries int
	// RetryDelay is the first backoff delay after a failed request. Default: 1s.
	RetryDelay time.Duration
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.Provider.Timeout > 0 {
		return o.Provider.Timeout
	}
	return 120 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *Options) effectiveRetryDelay() time.Duration {
	if o.RetryDelay > 0 {
		return o.RetryDelay
	}
	return time.Second
}

// ---------------------------------------------------------------------------
// AI translator
// ---------------------------------------------------------------------------

// AI translates through an HTTP chat completion API. It is safe for
// concurrent use; a rate limit seen by one request pauses all of them.
type AI struct {
	opts   Options
	client *http.Client
	rl     *rateLimitState
}

// NewAI returns a translator for opts.Provider.
func NewAI(opts Options) *AI {
	return &AI{
		opts:   opts,
		client: makeHTTPClient(opts.Provider.Proxy, opts.effectiveTimeout()),
		rl:     &rateLimitState{},
	}
}

// TranslateBatch sends texts as a numbered list and parses a JSON array of
// translations from the reply. The reply may have a different length than
// texts; callers decide what to do about that.
func (a *AI) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	prompt := a.opts.SystemPrompt
	if prompt == "" {
		prompt = BatchSystemPrompt
	}

	var userMsg strings.Builder
	fmt.Fprintf(&userMsg, "Translate these UI strings to %s:\n\n", langmeta.Name(targetLang))
	for i, text := range texts {
		fmt.Fprintf(&userMsg, "%d. %s\n", i+1, escapeForPrompt(text))
	}
	fmt.Fprintf(&userMsg, "\nReturn a JSON array with exactly %d translated strings.", len(texts))

	reply, err := a.call(ctx, resolvePrompt(prompt, sourceLang, targetLang), userMsg.String())
	if err != nil {
		return nil, err
	}
	return parseTranslations(reply, len(texts))
}

// TranslateTree sends n as a JSON document and parses a JSON document from
// the reply. A reply whose shape differs from n is an error.
func (a *AI) TranslateTree(ctx context.Context, n *tree.Node, sourceLang, targetLang string) (*tree.Node, error) {
	doc, err := tree.MarshalIndent(n, tree.DefaultIndent)
	if err != nil {
		return nil, err
	}

	userMsg := fmt.Sprintf("Translate the string values of this JSON document to %s:\n\n%s", langmeta.Name(targetLang), doc)
	reply, err := a.call(ctx, resolvePrompt(TreeSystemPrompt, sourceLang, targetLang), userMsg)
	if err != nil {
		return nil, err
	}

	out, err := parseTree(reply, n.Kind())
	if err != nil {
		return nil, err
	}
	if !tree.SameShape(n, out) {
		return nil, fmt.Errorf("translated document does not match the source structure")
	}
	if restored, _ := GuardValues(n, out, nil); restored > 0 {
		a.opts.log("Translated document changed %d non-text values, restored from source", restored)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Reply parsing
// ---------------------------------------------------------------------------

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseTranslations extracts a JSON array of strings from the AI response text.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}

	if len(translations) == 0 {
		return nil, fmt.Errorf("got 0 translations, expected %d", expected)
	}

	return translations, nil
}

// parseTree extracts a JSON document of the given kind from the AI response
// text.
func parseTree(content string, kind tree.Kind) (*tree.Node, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	first, last := "{", "}"
	if kind == tree.KindArray {
		first, last = "[", "]"
	}
	if kind.IsContainer() {
		startIdx := strings.Index(content, first)
		endIdx := strings.LastIndex(content, last)
		if startIdx >= 0 && endIdx > startIdx {
			content = content[startIdx : endIdx+1]
		}
	}

	n, err := tree.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse translated document: %w\nResponse: %s", err, truncate(content, 300))
	}
	return n, nil
}

// escapeForPrompt prepares a string for inclusion in the AI prompt.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return fmt.Sprintf(`"%s"`, s)
}
