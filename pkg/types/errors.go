package types

import "errors"

// File-level error classes. Workers wrap these with the file path; callers
// classify outcomes with errors.Is.
var (
	// ErrTransientIO marks a file that could not be read this run
	// (locked, permissions, disappeared). Safe to retry next run.
	ErrTransientIO = errors.New("transient I/O failure")

	// ErrUnsupportedContent marks binary or empty content. The file is
	// skipped and must not be recorded as processed, so a manual fix is
	// picked up on the next run.
	ErrUnsupportedContent = errors.New("unsupported content")

	// ErrEmbeddingFailed marks an embedding resource error. Fails the
	// file, never the run.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrWriteConsistency marks a partial commit. The document row is
	// intentionally left in place; a stale-but-present document is safer
	// than an orphaned one.
	ErrWriteConsistency = errors.New("write consistency violation")
)

// Validation errors shared by the result types.
var (
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be >= 0")
	ErrEmptyContent          = errors.New("content cannot be empty")
)
