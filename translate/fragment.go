package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/placeholder"
	"github.com/minios-linux/locsync/tree"
	"github.com/minios-linux/locsync/treepath"
)

// DefaultBatchSize is the number of strings sent per TranslateBatch call.
const DefaultBatchSize = 30

// FragmentOptions controls TranslateFragment.
type FragmentOptions struct {
	// BatchSize is the number of strings per request. Default: DefaultBatchSize.
	BatchSize int
	// Observer receives batch and placeholder events.
	Observer event.Observer
	// Path labels events with the location of the fragment.
	Path string
	// OnProgress is called after each batch with the number of strings
	// done so far.
	OnProgress func(done, total int)
}

func (o *FragmentOptions) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// FragmentStats counts what happened to the strings of one fragment.
type FragmentStats struct {
	// Strings is the number of non-blank string leaves found.
	Strings int
	// Translated is the number of leaves that received a translation.
	Translated int
	// Reverted is the number of translations rejected for placeholder
	// mismatches; those leaves keep the source text.
	Reverted int
	// Failed is set when a batch failed and the fragment was returned as is.
	Failed bool
}

// TranslateFragment translates every non-blank string leaf of subtree.
//
// Leaves are collected in pre-order and sent in batches. If any batch fails
// or returns the wrong number of strings, subtree itself is returned and no
// leaf is translated. A translation whose placeholders differ from its
// source is replaced by the source text. On success the result is a new
// tree; subtree is never modified.
func TranslateFragment(ctx context.Context, subtree *tree.Node, sourceLang, targetLang string, tr Translator, opts FragmentOptions) (*tree.Node, FragmentStats) {
	var stats FragmentStats

	var texts []string
	for _, leaf := range tree.Strings(subtree) {
		if strings.TrimSpace(leaf.Str()) != "" {
			texts = append(texts, leaf.Str())
		}
	}
	stats.Strings = len(texts)
	if len(texts) == 0 {
		return subtree, stats
	}

	fail := func(kind event.Kind, msg string) (*tree.Node, FragmentStats) {
		event.Emit(opts.Observer, event.Event{
			Kind:    kind,
			Level:   event.Warn,
			Path:    opts.Path,
			Message: msg,
		})
		stats.Failed = true
		return subtree, stats
	}

	results := make([]string, 0, len(texts))
	size := opts.effectiveBatchSize()
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch := texts[start:end]

		if err := ctx.Err(); err != nil {
			return fail(event.BatchFailed, err.Error())
		}
		out, err := tr.TranslateBatch(ctx, batch, sourceLang, targetLang)
		if errors.Is(err, ErrLengthMismatch) {
			return fail(event.BatchMismatch, err.Error())
		}
		if err != nil {
			return fail(event.BatchFailed, err.Error())
		}
		if len(out) != len(batch) {
			return fail(event.BatchMismatch, fmt.Sprintf("sent %d strings, got %d back", len(batch), len(out)))
		}
		results = append(results, out...)

		if opts.OnProgress != nil {
			opts.OnProgress(len(results), len(texts))
		}
	}

	for i, src := range texts {
		if !placeholder.Compare(src, results[i]) {
			event.Emit(opts.Observer, event.Event{
				Kind:    event.PlaceholderMismatch,
				Level:   event.Warn,
				Path:    opts.Path,
				Message: mismatchMessage(src, results[i]),
			})
			results[i] = src
			stats.Reverted++
			continue
		}
		stats.Translated++
	}

	out := tree.Clone(subtree)
	cursor := 0
	for _, leaf := range tree.Strings(out) {
		if strings.TrimSpace(leaf.Str()) == "" {
			continue
		}
		leaf.SetStr(results[cursor])
		cursor++
	}
	return out, stats
}

// GuardPlaceholders walks source and a translation of it and puts the
// source text back wherever a translated string lost or gained placeholders.
// It returns the number of strings reverted.
func GuardPlaceholders(source, translated *tree.Node, obs event.Observer) int {
	reverted := 0
	treepath.Walk(source, func(p treepath.Path, s *tree.Node) bool {
		if s.Kind() != tree.KindString {
			return true
		}
		d, ok := treepath.Get(translated, p)
		if !ok || d.Kind() != tree.KindString || placeholder.Compare(s.Str(), d.Str()) {
			return true
		}
		event.Emit(obs, event.Event{
			Kind:    event.PlaceholderMismatch,
			Level:   event.Warn,
			Path:    p.String(),
			Message: mismatchMessage(s.Str(), d.Str()),
		})
		d.SetStr(s.Str())
		reverted++
		return true
	})
	return reverted
}

// GuardValues walks source and a translation of it and puts back every
// number, boolean and null the translation changed, and every string leaf
// it turned into another kind. It returns the number of values restored and,
// of those, how many were non-blank source strings.
func GuardValues(source, translated *tree.Node, obs event.Observer) (values, strs int) {
	treepath.Walk(source, func(p treepath.Path, s *tree.Node) bool {
		if s.Kind().IsContainer() {
			return true
		}
		d, ok := treepath.Get(translated, p)
		if !ok {
			return true
		}
		if s.Kind() == tree.KindString {
			if d.Kind() == tree.KindString {
				return true
			}
			if strings.TrimSpace(s.Str()) != "" {
				strs++
			}
		} else if tree.Equal(s, d) {
			return true
		}

		event.Emit(obs, event.Event{
			Kind:    event.ValueRestored,
			Level:   event.Warn,
			Path:    p.String(),
			Message: fmt.Sprintf("translation changed %s %s, keeping the source value", s.Kind(), compactJSON(s)),
		})
		d.Replace(tree.Clone(s))
		values++
		return true
	})
	return values, strs
}

func compactJSON(n *tree.Node) string {
	data, err := n.MarshalJSON()
	if err != nil {
		return n.Kind().String()
	}
	return string(data)
}

func mismatchMessage(src, got string) string {
	return fmt.Sprintf("%q: source has %s, translation has %s",
		src, placeholder.Format(placeholder.Extract(src)), placeholder.Format(placeholder.Extract(got)))
}
