package searcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jmhartley/docdex/internal/storage"
)

// answerEntry is a cached answer with its expiration time.
type answerEntry struct {
	answer    string
	expiresAt time.Time
}

// AnswerCache caches full answers for context-free queries. An in-memory
// LRU serves repeats within a process; the semantic_cache table carries
// hits across restarts. Only the query text keys an entry, so callers
// must not cache answers that depended on conversation context.
type AnswerCache struct {
	store storage.Store
	ttl   time.Duration

	mu    sync.RWMutex
	front *lru.Cache[[32]byte, *answerEntry]
}

// NewAnswerCache creates an AnswerCache with the given LRU capacity and
// entry lifetime. A ttl of zero disables expiry.
func NewAnswerCache(store storage.Store, size int, ttl time.Duration) (*AnswerCache, error) {
	if size <= 0 {
		size = 1024
	}
	front, err := lru.New[[32]byte, *answerEntry](size)
	if err != nil {
		return nil, err
	}
	return &AnswerCache{
		store: store,
		ttl:   ttl,
		front: front,
	}, nil
}

// QueryKey derives the cache key for a query. Case and surrounding
// whitespace are normalized so trivial rephrasings share an entry.
func QueryKey(query string) [32]byte {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return sha256.Sum256([]byte(normalized))
}

// Get returns the cached answer for the query, consulting the in-memory
// layer first and the persisted layer on a miss. Persisted hits are
// promoted into memory with their original expiry.
func (c *AnswerCache) Get(ctx context.Context, query string) (string, bool) {
	key := QueryKey(query)
	now := time.Now()

	c.mu.RLock()
	entry, found := c.front.Get(key)
	if found && (c.ttl <= 0 || now.Before(entry.expiresAt)) {
		answer := entry.answer
		c.mu.RUnlock()
		return answer, true
	}
	c.mu.RUnlock()

	if found {
		c.mu.Lock()
		c.front.Remove(key)
		c.mu.Unlock()
	}

	cached, err := c.store.GetCachedResponse(ctx, hex.EncodeToString(key[:]))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("answer cache lookup failed", "error", err)
		}
		return "", false
	}

	expiresAt := cached.CreatedAt.Add(c.ttl)
	if c.ttl > 0 && now.After(expiresAt) {
		return "", false
	}

	c.mu.Lock()
	c.front.Add(key, &answerEntry{answer: cached.Response, expiresAt: expiresAt})
	c.mu.Unlock()

	return cached.Response, true
}

// Put stores an answer in both layers. Empty answers are not cached.
func (c *AnswerCache) Put(ctx context.Context, query, answer string) error {
	if answer == "" {
		return nil
	}
	key := QueryKey(query)

	c.mu.Lock()
	c.front.Add(key, &answerEntry{
		answer:    answer,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.mu.Unlock()

	return c.store.PutCachedResponse(ctx, hex.EncodeToString(key[:]), answer)
}

// Prune deletes persisted entries older than the cache lifetime and
// reports how many were removed. A zero ttl prunes nothing.
func (c *AnswerCache) Prune(ctx context.Context) (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	return c.store.PruneCachedResponses(ctx, time.Now().Add(-c.ttl))
}
