package storage

// Search queries over the chunk index. Vector similarity runs inside
// SQLite when the sqlite-vec extension is compiled in and falls back to
// a Go-side scan otherwise; keyword search is FTS5 with BM25 ranking in
// both build modes.

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// searchVector ranks chunks in the given partitions by cosine similarity
// to the query vector. A non-positive limit returns no results.
func searchVector(ctx context.Context, db *sql.DB, collections []string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if len(collections) == 0 || limit <= 0 {
		return []VectorResult{}, nil
	}
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, collections, queryVector, limit, filters)
	}
	return searchVectorFallback(ctx, db, collections, queryVector, limit, filters)
}

// searchVectorOptimized scores candidates with sqlite-vec's
// vec_distance_cosine. The distance d becomes a similarity of 1-d so the
// two implementations rank on the same scale.
func searchVectorOptimized(ctx context.Context, db *sql.DB, collections []string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	scope, scopeArgs := vectorScope(collections, filters)

	query := `SELECT chunk_id, 1.0 - vec_distance_cosine(embedding, ?) AS similarity
		FROM vector_records WHERE ` + scope
	args := append([]interface{}{SerializeVector(queryVector)}, scopeArgs...)

	if filters != nil && filters.MinRelevance > 0 {
		// Wrapping in a subquery lets the threshold reference the computed
		// similarity instead of evaluating the distance a second time.
		query = `SELECT chunk_id, similarity FROM (` + query + `) WHERE similarity >= ?`
		args = append(args, filters.MinRelevance)
	}

	query += ` ORDER BY similarity DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var r VectorResult
		if err := rows.Scan(&r.ChunkID, &r.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan vector result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchVectorFallback loads every candidate embedding in scope and
// scores it in Go. Linear in the partition size, which holds up fine for
// a personal corpus; larger installs want the sqlite_vec build.
func searchVectorFallback(ctx context.Context, db *sql.DB, collections []string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	scope, args := vectorScope(collections, filters)

	rows, err := db.QueryContext(ctx,
		`SELECT chunk_id, embedding FROM vector_records WHERE `+scope, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	minRelevance := 0.0
	if filters != nil {
		minRelevance = filters.MinRelevance
	}

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		stored := DeserializeVector(blob)
		if len(stored) != len(queryVector) {
			// Stale record written by a different embedding model; it
			// cannot be scored against this query.
			continue
		}
		score := CosineSimilarity(queryVector, stored)
		if minRelevance > 0 && score < minRelevance {
			continue
		}
		results = append(results, VectorResult{ChunkID: chunkID, SimilarityScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// searchKeyword runs a BM25-ranked FTS5 match over the given partitions.
func searchKeyword(ctx context.Context, db *sql.DB, collections []string, query string, limit int) ([]KeywordResult, error) {
	if len(collections) == 0 || limit <= 0 {
		return []KeywordResult{}, nil
	}

	match := SanitizeFTSQuery(query)
	if match == "" {
		return nil, fmt.Errorf("empty search query")
	}

	stmt := `SELECT k.chunk_id, bm25(keyword_fts) AS score
		FROM keyword_fts
		JOIN keyword_records k ON k.id = keyword_fts.rowid
		WHERE keyword_fts MATCH ? AND k.collection IN (` + placeholders(len(collections)) + `)
		ORDER BY score LIMIT ?`

	args := make([]interface{}, 0, len(collections)+2)
	args = append(args, match)
	for _, c := range collections {
		args = append(args, c)
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]KeywordResult, 0, limit)
	for rows.Next() {
		var r KeywordResult
		if err := rows.Scan(&r.ChunkID, &r.BM25Score); err != nil {
			return nil, fmt.Errorf("failed to scan keyword result: %w", err)
		}
		// bm25() ranks downward from 0, roughly bottoming out near -50
		// for prose-sized chunks. Fold into (0, 1] so the searcher can
		// mix keyword and vector scores on one scale.
		r.BM25Score = 1.0 / (1.0 + math.Abs(r.BM25Score)/50.0)
		results = append(results, r)
	}
	return results, rows.Err()
}

// vectorScope builds the WHERE fragment that narrows vector_records to
// the requested partitions and, when set, a single file.
func vectorScope(collections []string, filters *SearchFilters) (string, []interface{}) {
	where := `collection IN (` + placeholders(len(collections)) + `)`
	args := make([]interface{}, 0, len(collections)+1)
	for _, c := range collections {
		args = append(args, c)
	}
	if filters != nil && filters.FileFilter != "" {
		where += ` AND filename = ?`
		args = append(args, filters.FileFilter)
	}
	return where, args
}

// placeholders returns n comma-joined SQL parameter markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// SerializeVector packs a vector into the little-endian float32 blob
// stored in vector_records. The format is what sqlite-vec expects, so
// the same blob serves both build modes.
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DeserializeVector unpacks a blob written by SerializeVector.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1, 1]. Zero vectors and mismatched lengths score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

// SanitizeFTSQuery turns free-form text into an FTS5 MATCH expression:
// each whitespace-separated token is double-quoted and the tokens are
// ORed together. Quoting keeps operator words and punctuation literal,
// so user input cannot alter the query structure.
func SanitizeFTSQuery(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		// FTS5 escapes a double quote inside a string by doubling it
		tokens[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(tokens, " OR ")
}
