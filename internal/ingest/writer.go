package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmhartley/docdex/internal/storage"
	"github.com/jmhartley/docdex/pkg/types"
)

// Writer is the single consumer of the commit queue. Workers hand it one
// WriteUnit per changed document; the writer applies each unit's writes in
// a fixed order so a crash can never leave a content index ahead of the
// document row it belongs to. It is the only component that mutates the
// store.
type Writer struct {
	store storage.Store
	queue chan types.WriteUnit
	done  chan struct{}

	unitsCommitted  atomic.Int64
	chunksCommitted atomic.Int64
	unitsFailed     atomic.Int64
}

// NewWriter creates a Writer with a bounded queue. Producers block when the
// queue is full; that blocking is the pipeline's backpressure.
func NewWriter(store storage.Store, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Writer{
		store: store,
		queue: make(chan types.WriteUnit, queueSize),
		done:  make(chan struct{}),
	}
}

// Enqueue hands a unit to the writer, blocking while the queue is full.
func (w *Writer) Enqueue(ctx context.Context, unit types.WriteUnit) error {
	select {
	case w.queue <- unit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until it is closed and empty, then signals Wait. A
// failed unit is logged and counted, never fatal: later units still commit.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	for unit := range w.queue {
		if err := w.commit(ctx, unit); err != nil {
			w.unitsFailed.Add(1)
			slog.ErrorContext(ctx, "commit failed",
				"collection", unit.Collection,
				"filename", unit.Filename,
				"error", err)
			continue
		}
		w.unitsCommitted.Add(1)
		w.chunksCommitted.Add(int64(len(unit.Chunks)))
	}
}

// Close signals no more work. Enqueue must not be called afterwards.
func (w *Writer) Close() {
	close(w.queue)
}

// Wait blocks until the queue has fully drained after Close.
func (w *Writer) Wait() {
	<-w.done
}

// ChunksCommitted reports how many chunk rows reached the store.
func (w *Writer) ChunksCommitted() int { return int(w.chunksCommitted.Load()) }

// UnitsCommitted reports how many units committed completely.
func (w *Writer) UnitsCommitted() int { return int(w.unitsCommitted.Load()) }

// UnitsFailed reports how many units failed mid-commit.
func (w *Writer) UnitsFailed() int { return int(w.unitsFailed.Load()) }

// commit applies one unit. Bookkeeping lands in its own transaction before
// the content indices: a failure between the phases leaves a current
// document row with partial indices, recoverable by reprocessing the file.
// The document row is never rolled back on a content failure. A
// stale-but-present row can be found and repaired; content records without
// a row are orphans that cascading deletes will miss.
func (w *Writer) commit(ctx context.Context, unit types.WriteUnit) error {
	doc, err := w.commitBookkeeping(ctx, unit)
	if err != nil {
		return err
	}
	if err := w.commitContent(ctx, unit, doc); err != nil {
		return fmt.Errorf("%w: %s/%s: %v",
			types.ErrWriteConsistency, unit.Collection, unit.Filename, err)
	}
	return nil
}

// commitBookkeeping invalidates the document's old chunk rows and refreshes
// the document row with the unit's hash and mtime.
func (w *Writer) commitBookkeeping(ctx context.Context, unit types.WriteUnit) (*types.Document, error) {
	tx, err := w.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bookkeeping tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := tx.GetDocument(ctx, unit.Collection, unit.Filename)
	switch {
	case err == nil:
		if err := tx.DeleteChunksByDocument(ctx, prev.ID); err != nil {
			return nil, fmt.Errorf("delete chunk rows: %w", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		// First sighting of this document.
	default:
		return nil, fmt.Errorf("lookup document: %w", err)
	}

	doc := &types.Document{
		Collection: unit.Collection,
		Filename:   unit.Filename,
		FileHash:   unit.FileHash,
		FileMtime:  unit.FileMtime,
		Status:     types.DocumentActive,
	}
	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bookkeeping: %w", err)
	}
	return doc, nil
}

// commitContent writes the unit's vector, chunk, and keyword records. Both
// index sides delete the document's old records before inserting, so a file
// that shrank leaves no stale entries behind.
func (w *Writer) commitContent(ctx context.Context, unit types.WriteUnit, doc *types.Document) error {
	tx, err := w.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin content tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteVectorRecords(ctx, unit.Collection, unit.Filename); err != nil {
		return fmt.Errorf("delete vector records: %w", err)
	}
	for i := range unit.Chunks {
		c := &unit.Chunks[i]
		rec := &storage.VectorRecord{
			ChunkID:    c.ID,
			Collection: unit.Collection,
			Filename:   unit.Filename,
			ChunkIndex: c.Index,
			Section:    c.Section,
			Content:    c.Content,
			Embedding:  storage.SerializeVector(unit.Vectors[i]),
			Dimension:  len(unit.Vectors[i]),
		}
		if err := tx.InsertVectorRecord(ctx, rec); err != nil {
			return fmt.Errorf("insert vector record %s: %w", c.ID, err)
		}
	}

	for i := range unit.Chunks {
		c := &unit.Chunks[i]
		c.DocumentID = doc.ID
		if err := tx.InsertChunk(ctx, c); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.DeleteKeywordRecords(ctx, unit.Collection, unit.Filename); err != nil {
		return fmt.Errorf("delete keyword records: %w", err)
	}
	for i := range unit.Chunks {
		c := &unit.Chunks[i]
		rec := &storage.KeywordRecord{
			ChunkID:    c.ID,
			Collection: unit.Collection,
			Filename:   unit.Filename,
			ChunkIndex: c.Index,
			Content:    c.Content,
		}
		if err := tx.InsertKeywordRecord(ctx, rec); err != nil {
			return fmt.Errorf("insert keyword record %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit content: %w", err)
	}
	return nil
}
