// Package types provides shared type definitions for the docdex engine.
//
// This package defines the domain types used across the ingestion pipeline
// and the retrieval path: documents, chunks, write-units, per-file results,
// run summaries, and search results.
//
// # Core Types
//
// Document is the bookkeeping record for one ingested file, keyed by
// (collection, filename):
//
//	doc := &types.Document{
//	    Collection: "Finance",
//	    Filename:   "q3-report.md",
//	    FileHash:   hash,
//	    FileMtime:  mtime.UnixNano(),
//	    Status:     types.DocumentActive,
//	}
//
// Chunk is the smallest retrievable unit of text. Its ID is a deterministic
// function of the file name and the chunk's structural position, so
// re-ingesting unchanged content always reproduces the same IDs:
//
//	id := types.ChunkID("q3-report.md", parentIdx, childIdx)
//
// WriteUnit is the atomic batch a worker hands to the commit writer: all
// chunks and vectors for one document plus the tracking tuple. A write-unit
// is applied completely or not at all.
//
// # Error Sentinels
//
// File-level failures are classified with errors.Is against the sentinel
// values defined here:
//
//	if errors.Is(err, types.ErrUnsupportedContent) {
//	    // skipped, not marked processed
//	}
package types
