package translate

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/minios-linux/locsync/tree"
)

// DefaultCacheSize is the number of translations Cached keeps by default.
const DefaultCacheSize = 4096

type cacheKey struct {
	source, target, text string
}

// Cache is a translation memory in front of another Translator. Strings it
// has seen are answered locally; only the rest are sent on.
type Cache struct {
	inner Translator
	lru   *lru.Cache[cacheKey, string]
}

// Cached wraps inner with an LRU translation memory of the given size. A
// size of zero or less selects DefaultCacheSize.
func Cached(inner Translator, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, string](size)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Cache{inner: inner, lru: c}
}

// TranslateBatch answers cached strings locally and sends each distinct
// missing string to the inner translator once.
func (c *Cache) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, len(texts))
	var missing []string
	pending := make(map[string][]int)

	for i, text := range texts {
		if v, ok := c.lru.Get(cacheKey{sourceLang, targetLang, text}); ok {
			out[i] = v
			continue
		}
		if _, seen := pending[text]; !seen {
			missing = append(missing, text)
		}
		pending[text] = append(pending[text], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	got, err := c.inner.TranslateBatch(ctx, missing, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	if len(got) != len(missing) {
		return nil, fmt.Errorf("%w: got %d for %d", ErrLengthMismatch, len(got), len(missing))
	}

	for i, text := range missing {
		c.lru.Add(cacheKey{sourceLang, targetLang, text}, got[i])
		for _, j := range pending[text] {
			out[j] = got[i]
		}
	}
	return out, nil
}

// TranslateTree is passed through to the inner translator.
func (c *Cache) TranslateTree(ctx context.Context, n *tree.Node, sourceLang, targetLang string) (*tree.Node, error) {
	return c.inner.TranslateTree(ctx, n, sourceLang, targetLang)
}

// Len returns the number of cached translations.
func (c *Cache) Len() int {
	return c.lru.Len()
}
