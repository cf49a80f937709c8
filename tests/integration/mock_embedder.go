package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"

	"github.com/jmhartley/docdex/internal/embedder"
)

// MockEmbedder produces deterministic vectors by feature-hashing tokens:
// each word contributes to a handful of dimensions, so texts that share
// words get correlated vectors. Unlike the hash-chain local provider,
// that lets vector search in these tests rank related texts the way a
// real model would.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if req.Text == "" {
		return nil, embedder.ErrEmptyText
	}

	vector := make([]float32, m.dimension)
	for _, token := range strings.Fields(strings.ToLower(req.Text)) {
		token = strings.Trim(token, ".,;:!?\"'()[]#*")
		if token == "" {
			continue
		}
		h := sha256.Sum256([]byte(token))
		// Longer words carry more weight, which keeps ubiquitous short
		// words from correlating every pair of texts.
		weight := float32(len(token))
		for j := 0; j < 4; j++ {
			idx := int(binary.BigEndian.Uint32(h[j*4:j*4+4]) % uint32(m.dimension))
			if h[16+j]%2 == 1 {
				vector[idx] -= weight
			} else {
				vector[idx] += weight
			}
		}
	}

	var sum float32
	for _, v := range vector {
		sum += v * v
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(float64(sum)))
		for i := range vector {
			vector[i] *= inv
		}
	}

	return &embedder.Embedding{
		Vector:    vector,
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-v1",
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if err := embedder.ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}

	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-v1",
	}, nil
}

func (m *MockEmbedder) Dimension() int   { return m.dimension }
func (m *MockEmbedder) Provider() string { return "mock" }
func (m *MockEmbedder) Model() string    { return "mock-v1" }
func (m *MockEmbedder) Close() error     { return nil }
