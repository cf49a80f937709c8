// Package storage provides SQLite-based persistence for ingested documents.
//
// The storage layer manages:
//   - Document metadata and change-detection hashes
//   - Chunk records with stable deterministic IDs
//   - Vector embeddings for semantic search
//   - Keyword records with an FTS5 index for BM25 search
//   - A semantic cache of question/answer pairs
//
// # Database Schema
//
// Tables:
//   - documents: One row per (collection, filename) with hash and mtime
//   - chunks: Chunk bookkeeping keyed by deterministic chunk ID
//   - vector_records: Chunk content plus embedding BLOBs, partitioned by collection
//   - keyword_records: Chunk content mirrored for keyword search
//   - keyword_fts: FTS5 external-content index over keyword_records
//   - semantic_cache: Cached answers keyed by query hash
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStore("~/.docdex/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Record a document
//	err = db.UpsertDocument(ctx, &types.Document{
//	    Collection: "finance",
//	    Filename:   "q3-report.md",
//	    FileHash:   hash,
//	    FileMtime:  mtime,
//	})
//
// # Transactions
//
// Use transactions for atomic replace-on-reingest:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	tx.DeleteChunksByDocument(ctx, doc.ID)
//	tx.UpsertDocument(ctx, doc)
//	tx.DeleteVectorRecords(ctx, doc.Collection, doc.Filename)
//	for _, c := range chunks {
//	    tx.InsertChunk(ctx, c)
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Vector Operations
//
// Embeddings are stored as little-endian float32 BLOBs. Similarity search
// runs against one or more collection partitions:
//
//	results, err := db.SearchVector(ctx, []string{"finance"}, queryVector, limit, nil)
//	for _, r := range results {
//	    fmt.Printf("%s: %.3f\n", r.ChunkID, r.SimilarityScore)
//	}
//
// Vector search uses cosine similarity via the sqlite-vec extension (CGO
// build) or a pure Go implementation (purego build).
//
// # Full-Text Search
//
// Keyword search queries the FTS5 index with BM25 ranking:
//
//	results, err := db.SearchKeyword(ctx, []string{"finance"}, "quarterly revenue", limit)
//	for _, r := range results {
//	    fmt.Printf("%s: %.3f\n", r.ChunkID, r.BM25Score)
//	}
//
// The FTS index is maintained by triggers on keyword_records.
//
// # Build Tags
//
// The default build needs no C compiler. It uses the modernc.org/sqlite
// driver and scores vectors in Go:
//
//	CGO_ENABLED=0 go build ./...
//
// Building with -tags sqlite_vec selects github.com/mattn/go-sqlite3 and
// evaluates cosine distance inside SQLite through the sqlite-vec
// extension, which is the right choice for large indexes:
//
//	CGO_ENABLED=1 go build -tags sqlite_vec ./...
package storage
