// Package ingest coordinates the document pipeline: discovery, change
// detection, chunking, embedding, and the single-writer commit.
//
// # Pipeline Shape
//
// A run fans out over a bounded worker pool and fans back in through one
// commit writer:
//
//	discover -> [worker: detect -> extract -> chunk -> embed] -> queue -> writer
//
// Workers share one embedding engine whose inference calls are serialized
// internally; everything before the embed step runs in parallel. The writer
// is the only component that mutates the store.
//
// # Basic Usage
//
//	status := ingest.NewStatusStore()
//	runner := ingest.NewRunner(cfg, store, engine, status)
//
//	summary, err := runner.Run(ctx)
//	if errors.Is(err, ingest.ErrRunActive) {
//	    // another run holds the lock
//	}
//	fmt.Printf("%d processed, %d skipped in %v\n",
//	    summary.FilesProcessed, summary.FilesSkipped, summary.Elapsed)
//
// # Incremental Runs
//
// Change detection keeps re-runs cheap. Equal mtime skips the file without
// reading it; a touched file with identical bytes is caught by the content
// hash and skipped too. Only files whose bytes actually changed are
// re-chunked and re-embedded:
//
//	// First run: processes everything
//	summary1, _ := runner.Run(ctx)
//	// Second run on an unchanged tree: zero writes
//	summary2, _ := runner.Run(ctx)
//
// # Commit Ordering
//
// The writer applies each unit in two phases: the document row (with its
// old chunk bookkeeping removed) commits first, then the vector, chunk,
// and keyword records. A failure between the phases leaves a current
// document with partial indices, repaired by reprocessing on the next run.
// The document row is never rolled back after a content failure.
//
// # Progress
//
// Runs report through an injected StatusStore: a running flag that mirrors
// the single-flight lock, a bounded ring of progress messages, and a
// heartbeat line appended on a fixed interval while work is active. Polling
// never blocks the pipeline.
package ingest
