package embedder

import lru "github.com/hashicorp/golang-lru/v2"

// defaultCacheSize bounds the in-process embedding cache when the caller
// does not pick a size.
const defaultCacheSize = 10000

// Cache holds recent embeddings keyed by content hash. A hit during
// re-ingest of unchanged text saves the provider round trip, which for
// hosted APIs is the dominant cost.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
}

// NewCache builds an LRU cache holding up to maxEntries embeddings.
// Non-positive sizes fall back to the package default.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheSize
	}
	entries, err := lru.New[string, *Embedding](maxEntries)
	if err != nil {
		entries, _ = lru.New[string, *Embedding](defaultCacheSize)
	}
	return &Cache{entries: entries}
}

// Get returns a copy of the embedding stored under hash. Callers may
// mutate the returned vector without corrupting the cached one.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.entries.Get(hash)
	if !ok {
		return nil, false
	}
	return emb.clone(), true
}

// Set stores emb under hash, evicting the least recently used entry
// when at capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.entries.Add(hash, emb)
}

// Size reports the number of cached embeddings.
func (c *Cache) Size() int {
	return c.entries.Len()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}
