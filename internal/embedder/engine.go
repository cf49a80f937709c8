package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxRunes caps the text length passed to a provider in one call.
// Oversized chunks are truncated, not rejected.
const DefaultMaxRunes = 6000

// ErrEngineClosed is returned by an engine that was replaced via Reload
var ErrEngineClosed = errors.New("embedding engine closed")

// Engine wraps an Embedder behind a mutex so that concurrent ingest
// workers and search queries share one inference handle. Providers are
// not assumed to be safe for concurrent calls, and serializing here also
// keeps memory bounded when the backing model is local.
type Engine struct {
	mu       sync.Mutex
	embedder Embedder
	maxRunes int
	closed   bool
}

// NewEngine wraps an embedder. maxRunes <= 0 selects DefaultMaxRunes.
func NewEngine(e Embedder, maxRunes int) *Engine {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	return &Engine{
		embedder: e,
		maxRunes: maxRunes,
	}
}

// EmbedBatch generates one vector per text, in order. Texts longer than
// the rune cap are truncated just before embedding; the stored chunk
// content is not affected. The whole batch runs under the engine lock,
// split into provider-sized sub-batches.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	capped := make([]string, len(texts))
	for i, t := range texts {
		capped[i] = truncateRunes(t, e.maxRunes)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}

	vectors := make([][]float32, 0, len(capped))
	for start := 0; start < len(capped); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(capped) {
			end = len(capped)
		}

		resp, err := e.embedder.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: capped[start:end]})
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Vector)
		}
	}

	return vectors, nil
}

// EmbedQuery generates a single vector for a search query
func (e *Engine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = truncateRunes(text, e.maxRunes)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}

	emb, err := e.embedder.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
	if err != nil {
		return nil, err
	}
	return emb.Vector, nil
}

// Dimension returns the vector dimension of the backing provider
func (e *Engine) Dimension() int {
	return e.embedder.Dimension()
}

// Provider returns the backing provider name
func (e *Engine) Provider() string {
	return e.embedder.Provider()
}

// Model returns the backing model name
func (e *Engine) Model() string {
	return e.embedder.Model()
}

// Close waits for any in-flight call to finish, then releases the
// provider. Later calls return ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.embedder.Close()
}

// truncateRunes cuts s to at most max runes without splitting a rune.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// Process-wide engine. Loading a model is expensive and must happen once;
// everything that embeds goes through here.
var (
	sharedMu     sync.Mutex
	sharedEngine *Engine
)

// Shared returns the process-wide engine, creating it from cfg on first
// use. Subsequent calls return the existing engine and ignore cfg.
func Shared(cfg Config, maxRunes int) (*Engine, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedEngine != nil {
		return sharedEngine, nil
	}

	emb, err := New(cfg)
	if err != nil {
		return nil, err
	}
	sharedEngine = NewEngine(emb, maxRunes)
	return sharedEngine, nil
}

// Reload builds a replacement engine from cfg, drains the old one, and
// swaps. The old engine stays in service if the new provider fails to
// initialize. Callers holding the old engine get ErrEngineClosed and
// must re-fetch via Shared.
func Reload(cfg Config, maxRunes int) (*Engine, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	emb, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if sharedEngine != nil {
		_ = sharedEngine.Close()
	}
	sharedEngine = NewEngine(emb, maxRunes)
	return sharedEngine, nil
}
