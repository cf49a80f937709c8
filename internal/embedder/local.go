package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
)

const (
	// ProviderLocal is the offline fallback used when no API key is set.
	ProviderLocal  = "local"
	LocalDimension = 384
)

// LocalProvider produces deterministic vectors without network access.
// The vectors carry no semantic signal; they exist so ingest, storage,
// and search run end to end offline. Keyword search still ranks
// sensibly, vector scores are merely stable.
// TODO: back this with an ollama /api/embeddings client
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider never fails; the error return keeps the constructor
// signature uniform with the hosted providers.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: "local-embeddings",
		cache: cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    localVector(req.Text),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}
	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

// localVector chains SHA-256 over the text to fill every dimension, then
// centers and normalizes so cosine scores spread instead of clustering
// near 1.0.
func localVector(text string) []float32 {
	vector := make([]float32, LocalDimension)
	sum := sha256.Sum256([]byte(text))
	for i := 0; i < LocalDimension; i++ {
		if i > 0 && i%len(sum) == 0 {
			sum = sha256.Sum256(sum[:])
		}
		vector[i] = float32(sum[i%len(sum)])/255.0 - 0.5
	}
	return NormalizeVector(vector)
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
