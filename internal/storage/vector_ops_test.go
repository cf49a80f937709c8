package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhartley/docdex/pkg/types"
)

// seedVectorRecord stores one vector record through the public API
func seedVectorRecord(t *testing.T, store *SQLiteStore, collection, filename string, idx int, content string, embedding []float32) string {
	t.Helper()
	rec := &VectorRecord{
		ChunkID:    types.ChunkID(filename, 0, idx),
		Collection: collection,
		Filename:   filename,
		ChunkIndex: idx,
		Content:    content,
		Embedding:  SerializeVector(embedding),
		Dimension:  len(embedding),
	}
	require.NoError(t, store.InsertVectorRecord(context.Background(), rec))
	return rec.ChunkID
}

// seedKeywordRecord stores one keyword record through the public API
func seedKeywordRecord(t *testing.T, store *SQLiteStore, collection, filename string, idx int, content string) string {
	t.Helper()
	rec := &KeywordRecord{
		ChunkID:    types.ChunkID(filename, 0, idx),
		Collection: collection,
		Filename:   filename,
		ChunkIndex: idx,
		Content:    content,
	}
	require.NoError(t, store.InsertKeywordRecord(context.Background(), rec))
	return rec.ChunkID
}

func TestSearchVector_RankingAndPartitions(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	// Three finance chunks at decreasing similarity to the query [1, 0],
	// plus an hr chunk identical to the query that must not leak across
	// partitions.
	exact := seedVectorRecord(t, store, "finance", "report.md", 0, "exact", []float32{1, 0})
	near := seedVectorRecord(t, store, "finance", "report.md", 1, "close", []float32{0.9, 0.1})
	far := seedVectorRecord(t, store, "finance", "notes.md", 0, "far", []float32{0, 1})
	seedVectorRecord(t, store, "hr", "handbook.md", 0, "other partition", []float32{1, 0})

	results, err := store.SearchVector(ctx, []string{"finance"}, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, exact, results[0].ChunkID)
	assert.Equal(t, near, results[1].ChunkID)
	assert.Equal(t, far, results[2].ChunkID)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)

	// Results are sorted by similarity (descending)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].SimilarityScore, results[i].SimilarityScore)
	}

	// Limit caps the result count
	results, err = store.SearchVector(ctx, []string{"finance"}, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Searching both partitions surfaces the hr chunk too
	results, err = store.SearchVector(ctx, []string{"finance", "hr"}, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestSearchVector_Filters(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	exact := seedVectorRecord(t, store, "finance", "report.md", 0, "exact", []float32{1, 0})
	seedVectorRecord(t, store, "finance", "report.md", 1, "close", []float32{0.9, 0.1})
	other := seedVectorRecord(t, store, "finance", "notes.md", 0, "far", []float32{0, 1})

	// MinRelevance drops weak matches
	results, err := store.SearchVector(ctx, []string{"finance"}, []float32{1, 0}, 10,
		&SearchFilters{MinRelevance: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, exact, results[0].ChunkID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.SimilarityScore, 0.5)
	}

	// FileFilter restricts the candidate set to one file
	results, err = store.SearchVector(ctx, []string{"finance"}, []float32{1, 0}, 10,
		&SearchFilters{FileFilter: "notes.md"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, other, results[0].ChunkID)
}

func TestSearchVector_EmptyPartitions(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	results, err := store.SearchVector(ctx, nil, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Unknown partition behaves the same as an empty one
	results, err = store.SearchVector(ctx, []string{"nonexistent"}, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchVectorFallback_DimensionMismatch(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	seedVectorRecord(t, store, "finance", "report.md", 0, "three dims", []float32{1, 0, 0})
	match := seedVectorRecord(t, store, "finance", "report.md", 1, "two dims", []float32{1, 0})

	// Records whose stored dimension differs from the query are skipped
	results, err := searchVectorFallback(ctx, store.db, []string{"finance"}, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match, results[0].ChunkID)
}

// TestSearchVectorOptimized_MatchesFallback verifies the SQL-side search
// agrees with the Go implementation when the extension is compiled in
func TestSearchVectorOptimized_MatchesFallback(t *testing.T) {
	if !VectorExtensionAvailable {
		t.Skip("Skipping test: sqlite-vec extension not available")
	}

	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		vec := make([]float32, 8)
		for j := range vec {
			vec[j] = float32((i+1)*(j+1)) * 0.01
		}
		seedVectorRecord(t, store, "finance", fmt.Sprintf("doc%d.md", i), 0, "content", vec)
	}

	query := make([]float32, 8)
	for j := range query {
		query[j] = float32(j) * 0.1
	}

	optimized, err := searchVectorOptimized(ctx, store.db, []string{"finance"}, query, 10, nil)
	require.NoError(t, err)
	fallback, err := searchVectorFallback(ctx, store.db, []string{"finance"}, query, 10, nil)
	require.NoError(t, err)

	require.Equal(t, len(fallback), len(optimized))
	for i := range optimized {
		assert.Equal(t, fallback[i].ChunkID, optimized[i].ChunkID)
		// float32 distance in SQL vs float64 in Go
		assert.InDelta(t, fallback[i].SimilarityScore, optimized[i].SimilarityScore, 1e-4)
	}
}

func TestSearchKeyword(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	dense := seedKeywordRecord(t, store, "finance", "report.md", 0,
		"revenue revenue revenue")
	sparse := seedKeywordRecord(t, store, "finance", "report.md", 1,
		"the quarterly report mentions revenue once among many other unrelated words about operations")
	seedKeywordRecord(t, store, "finance", "notes.md", 0,
		"travel expense policy")
	seedKeywordRecord(t, store, "hr", "handbook.md", 0,
		"revenue sharing for employees")

	results, err := store.SearchKeyword(ctx, []string{"finance"}, "revenue", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Best BM25 match comes first; the hr partition is excluded
	assert.Equal(t, dense, results[0].ChunkID)
	assert.Equal(t, sparse, results[1].ChunkID)
	for _, r := range results {
		assert.Greater(t, r.BM25Score, 0.0)
		assert.LessOrEqual(t, r.BM25Score, 1.0)
	}
}

func TestSearchKeyword_MultiTokenOR(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	seedKeywordRecord(t, store, "finance", "a.md", 0, "quarterly revenue summary")
	seedKeywordRecord(t, store, "finance", "b.md", 0, "headcount and hiring")
	seedKeywordRecord(t, store, "finance", "c.md", 0, "office plants watering schedule")

	// Any matching token qualifies a chunk
	results, err := store.SearchKeyword(ctx, []string{"finance"}, "revenue headcount", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchKeyword_OperatorWordsAreLiteral(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	match := seedKeywordRecord(t, store, "finance", "a.md", 0, "bread and butter")
	seedKeywordRecord(t, store, "finance", "b.md", 0, "plain toast")

	// A bare AND would be an FTS5 syntax error; quoting makes it a term
	results, err := store.SearchKeyword(ctx, []string{"finance"}, "AND", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match, results[0].ChunkID)

	// Embedded quotes must not break the MATCH expression either
	results, err = store.SearchKeyword(ctx, []string{"finance"}, `"butter`, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match, results[0].ChunkID)
}

func TestSearchKeyword_EmptyQuery(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	seedKeywordRecord(t, store, "finance", "a.md", 0, "content")

	_, err := store.SearchKeyword(ctx, []string{"finance"}, "   ", 10)
	assert.Error(t, err)

	// Empty partitions short-circuit before query validation
	results, err := store.SearchKeyword(ctx, nil, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchKeyword_DeleteStaysConsistent(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	seedKeywordRecord(t, store, "finance", "report.md", 0, "quarterly revenue")
	seedKeywordRecord(t, store, "finance", "report.md", 1, "annual revenue")

	require.NoError(t, store.DeleteKeywordRecords(ctx, "finance", "report.md"))

	results, err := store.SearchKeyword(ctx, []string{"finance"}, "revenue", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Re-inserting after a delete must hit a clean index
	fresh := seedKeywordRecord(t, store, "finance", "report.md", 0, "revised revenue")
	results, err = store.SearchKeyword(ctx, []string{"finance"}, "revenue", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fresh, results[0].ChunkID)
}

func TestSerializeVector_RoundTrip(t *testing.T) {
	vector := []float32{0.5, -1.25, 3.75, 0}
	blob := SerializeVector(vector)
	assert.Len(t, blob, len(vector)*4)

	decoded := DeserializeVector(blob)
	assert.Equal(t, vector, decoded)

	assert.Empty(t, SerializeVector(nil))
	assert.Empty(t, DeserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Zero vectors and mismatched lengths yield zero
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"single token", "revenue", `"revenue"`},
		{"multiple tokens", "quarterly revenue figures", `"quarterly" OR "revenue" OR "figures"`},
		{"operator words quoted", "cats AND dogs", `"cats" OR "AND" OR "dogs"`},
		{"embedded quotes doubled", `say "hello"`, `"say" OR """hello"""`},
		{"whitespace only", "  \t \n ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFTSQuery(tt.query))
		})
	}
}

func BenchmarkSearchVectorFallback(b *testing.B) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(b, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		vec := make([]float32, 384)
		for j := range vec {
			vec[j] = float32(i*j%97) * 0.01
		}
		rec := &VectorRecord{
			ChunkID:    types.ChunkID(fmt.Sprintf("doc%d.md", i), 0, 0),
			Collection: "bench",
			Filename:   fmt.Sprintf("doc%d.md", i),
			Content:    "content",
			Embedding:  SerializeVector(vec),
			Dimension:  len(vec),
		}
		if err := store.InsertVectorRecord(ctx, rec); err != nil {
			b.Fatal(err)
		}
	}

	query := make([]float32, 384)
	for j := range query {
		query[j] = float32(j) * 0.01
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := searchVectorFallback(ctx, store.db, []string{"bench"}, query, 10, nil)
		if err != nil {
			b.Fatal(err)
		}
	}
}
