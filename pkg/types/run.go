package types

import "time"

// FileStatus is the outcome class for one file in an ingest run.
type FileStatus string

const (
	FileProcessed FileStatus = "processed"
	FileSkipped   FileStatus = "skipped"
	FileErrored   FileStatus = "errored"
)

// FileResult is the typed per-file outcome aggregated into run counts.
// Errors stay contained here; they never abort sibling workers.
type FileResult struct {
	Path       string
	Collection string
	Filename   string
	Status     FileStatus
	Reason     string // human-readable skip/error reason
	ChunkCount int
	Err        error
}

// WriteUnit is the atomic batch produced by one worker for one document:
// every chunk with its embedding plus the tracking tuple for the document
// row. The commit writer applies a unit completely or not at all.
type WriteUnit struct {
	// Tracking tuple
	Collection string
	Filename   string
	FileHash   string
	FileMtime  int64

	// Payload, index-aligned
	Chunks  []Chunk
	Vectors [][]float32
}

// RunSummary is the terminal message of an ingest run. A run always
// produces a summary, even when every file failed.
type RunSummary struct {
	RunID          string
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int
	ChunksWritten  int
	Elapsed        time.Duration
}
