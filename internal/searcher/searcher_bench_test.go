package searcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/storage"
	"github.com/jmhartley/docdex/pkg/types"
)

// benchVector derives a deterministic unit-ish vector from a seed string.
func benchVector(seed string, dim int) []float32 {
	hash := sha256.Sum256([]byte(seed))
	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		idx := (i * 4) % 28
		val := binary.BigEndian.Uint32(hash[idx : idx+4])
		vector[i] = (float32(val)/float32(1<<32))*2 - 1
	}
	return vector
}

// setupSearchBenchmark seeds an in-memory corpus of the given size.
func setupSearchBenchmark(b *testing.B, chunks int) *Searcher {
	b.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	collections := []string{"Finance", "Journal", "Recipes"}
	for i := 0; i < chunks; i++ {
		coll := collections[i%len(collections)]
		filename := fmt.Sprintf("doc%03d.md", i/4)
		content := fmt.Sprintf("entry %d covering budgets planning and assorted notes for %s", i, coll)
		chunkID := types.ChunkID(filename, 0, i)

		err := store.InsertVectorRecord(ctx, &storage.VectorRecord{
			ChunkID:    chunkID,
			Collection: coll,
			Filename:   filename,
			ChunkIndex: i,
			Content:    content,
			Embedding:  storage.SerializeVector(benchVector(chunkID, 128)),
			Dimension:  128,
		})
		if err != nil {
			b.Fatal(err)
		}
		err = store.InsertKeywordRecord(ctx, &storage.KeywordRecord{
			ChunkID:    chunkID,
			Collection: coll,
			Filename:   filename,
			ChunkIndex: i,
			Content:    content,
		})
		if err != nil {
			b.Fatal(err)
		}
	}

	engine := embedder.NewEngine(&stubEmbedder{queryVec: benchVector("query", 128)}, 0)
	b.Cleanup(func() { _ = engine.Close() })

	return New(testSearchConfig(), store, engine, nil)
}

func BenchmarkSearch_Hybrid(b *testing.B) {
	s := setupSearchBenchmark(b, 600)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := s.Search(context.Background(), Request{Scope: "all", Query: "budgets planning", K: 10})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearch_Scoped(b *testing.B) {
	s := setupSearchBenchmark(b, 600)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := s.Search(context.Background(), Request{Scope: "Finance", Query: "budgets planning", K: 10})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkApplyRRF(b *testing.B) {
	vector := make([]storage.VectorResult, 500)
	keyword := make([]storage.KeywordResult, 500)
	for i := 0; i < 500; i++ {
		vector[i] = storage.VectorResult{ChunkID: fmt.Sprintf("chunk-%d", i), SimilarityScore: 1.0 - float64(i)*0.001}
		keyword[i] = storage.KeywordResult{ChunkID: fmt.Sprintf("chunk-%d", (i+250)%500), BM25Score: 1.0 - float64(i)*0.001}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = applyRRF(vector, keyword)
	}
}

func BenchmarkQueryKey(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = QueryKey("What were the main cost drivers in the second quarter?")
	}
}
