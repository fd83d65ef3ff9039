// browser/dom/selectors.go
package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSelectorCacheSize bounds the shared compiled selector cache.
const DefaultSelectorCacheSize = 512

// defaultSelectorCache is shared by documents that don't bring their own.
var defaultSelectorCache = MustSelectorCache(DefaultSelectorCacheSize)

// SelectorCache keeps compiled CSS selectors. Selector synthesis tests the
// same candidates over and over while walking up the tree.
type SelectorCache struct {
	cache *lru.Cache[string, cascadia.Selector]
}

// NewSelectorCache creates a cache holding up to size compiled selectors.
func NewSelectorCache(size int) (*SelectorCache, error) {
	c, err := lru.New[string, cascadia.Selector](size)
	if err != nil {
		return nil, fmt.Errorf("creating selector cache: %w", err)
	}
	return &SelectorCache{cache: c}, nil
}

// MustSelectorCache is NewSelectorCache that panics on a non-positive size.
func MustSelectorCache(size int) *SelectorCache {
	c, err := NewSelectorCache(size)
	if err != nil {
		panic(err)
	}
	return c
}

// Compile returns the compiled form of selector. Invalid selectors are
// reported and not cached.
func (c *SelectorCache) Compile(selector string) (cascadia.Selector, error) {
	if sel, ok := c.cache.Get(selector); ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	c.cache.Add(selector, sel)
	return sel, nil
}

// Len reports how many selectors are cached.
func (c *SelectorCache) Len() int { return c.cache.Len() }
