package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmhartley/docdex/internal/chunker"
	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/extractor"
	"github.com/jmhartley/docdex/internal/logging"
	"github.com/jmhartley/docdex/internal/storage"
	"github.com/jmhartley/docdex/pkg/types"
)

// ErrRunActive is returned when an ingest run is already in flight.
var ErrRunActive = errors.New("ingest already running")

// Runner coordinates one ingest run over the document root: discovery,
// change detection, chunking, embedding, and handoff to the commit writer.
type Runner struct {
	cfg       *config.Config
	store     storage.Store
	engine    *embedder.Engine
	extractor *extractor.Extractor
	chunker   *chunker.Chunker
	status    *StatusStore

	lock RunLock
}

// NewRunner creates a Runner. The status store is injected so polling
// surfaces share it with the runner.
func NewRunner(cfg *config.Config, store storage.Store, engine *embedder.Engine, status *StatusStore) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     store,
		engine:    engine,
		extractor: extractor.New(cfg.MaxFileSize),
		chunker:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		status:    status,
	}
}

// Status returns a snapshot of the run state for pollers.
func (r *Runner) Status() Status {
	return r.status.Snapshot()
}

// Run executes one full ingest pass and always produces a summary, even
// when every file failed. A second concurrent call is rejected with
// ErrRunActive. Cancelling the context stops the pipeline between files;
// units already accepted by the commit queue still land.
func (r *Runner) Run(ctx context.Context) (*types.RunSummary, error) {
	if !r.lock.TryAcquire() {
		return nil, ErrRunActive
	}
	defer r.lock.Release()

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}

	r.status.SetRunning(true)
	defer r.status.SetRunning(false)

	start := time.Now()
	summary := &types.RunSummary{RunID: runID}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go r.heartbeat(hbCtx)

	r.status.Track("scanning files", "", 0)
	r.say(ctx, "ingest started")

	tasks, err := extractor.Discover(r.cfg.Root)
	if err != nil {
		summary.Elapsed = time.Since(start)
		r.say(ctx, fmt.Sprintf("ingest failed: %v", err))
		return summary, err
	}
	if len(tasks) == 0 {
		summary.Elapsed = time.Since(start)
		r.say(ctx, "nothing to ingest")
		return summary, nil
	}
	r.say(ctx, fmt.Sprintf("processing %d files", len(tasks)))

	known, err := r.knownDocuments(ctx)
	if err != nil {
		summary.Elapsed = time.Since(start)
		return summary, fmt.Errorf("load document index: %w", err)
	}

	// The writer ignores cancellation so that every unit accepted into the
	// queue commits; workers stop feeding it through gctx instead.
	writer := NewWriter(r.store, r.cfg.QueueSize)
	go writer.Run(context.WithoutCancel(ctx))

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan types.FileResult, len(tasks))
	var embedded atomic.Int64

	sem := make(chan struct{}, workers)
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			// Shutdown check before starting the file; in-flight work is
			// allowed to finish, the next file is not started.
			if err := gctx.Err(); err != nil {
				return err
			}

			results <- r.processFile(gctx, writer, task, known[docKey{task.Collection, task.Filename}], &embedded)
			return nil
		})
	}

	runErr := g.Wait()
	close(results)

	r.status.Track("flushing commit queue", "", int(embedded.Load()))
	writer.Close()
	writer.Wait()

	for res := range results {
		switch res.Status {
		case types.FileProcessed:
			summary.FilesProcessed++
		case types.FileSkipped:
			summary.FilesSkipped++
		case types.FileErrored:
			summary.FilesErrored++
		}
	}
	summary.ChunksWritten = writer.ChunksCommitted()
	summary.Elapsed = time.Since(start)

	r.say(ctx, fmt.Sprintf("ingest complete: %d processed, %d skipped, %d errored, %d chunks written in %s",
		summary.FilesProcessed, summary.FilesSkipped, summary.FilesErrored,
		summary.ChunksWritten, summary.Elapsed.Round(time.Millisecond)))

	return summary, runErr
}

// docKey identifies a document within the index.
type docKey struct {
	collection string
	filename   string
}

// knownDocuments loads the document rows once so workers compare mtime and
// hash against memory instead of issuing a query per file.
func (r *Runner) knownDocuments(ctx context.Context) (map[docKey]*types.Document, error) {
	docs, err := r.store.ListDocuments(ctx, "")
	if err != nil {
		return nil, err
	}
	known := make(map[docKey]*types.Document, len(docs))
	for _, d := range docs {
		known[docKey{d.Collection, d.Filename}] = d
	}
	return known, nil
}

// processFile runs the per-file pipeline: detect, extract, chunk, embed,
// enqueue. Failures are contained in the returned result; they never abort
// sibling workers.
func (r *Runner) processFile(ctx context.Context, w *Writer, task extractor.FileTask, known *types.Document, embedded *atomic.Int64) types.FileResult {
	res := types.FileResult{
		Path:       task.Path,
		Collection: task.Collection,
		Filename:   task.Filename,
	}

	decision, err := Detect(task.Path, known)
	if err != nil {
		return r.errored(ctx, res, err)
	}
	if decision.State == Unchanged {
		res.Status = types.FileSkipped
		res.Reason = "unchanged"
		return res
	}

	text, err := r.extractor.Extract(task.Path)
	if err != nil {
		if errors.Is(err, types.ErrUnsupportedContent) {
			return r.skipped(ctx, res, err)
		}
		return r.errored(ctx, res, err)
	}

	chunks := r.chunker.Chunk(task.Filename, text)
	for i := range chunks {
		chunks[i].Collection = task.Collection
	}
	if len(chunks) == 0 {
		res.Status = types.FileSkipped
		res.Reason = "no indexable text"
		return res
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := r.embedTexts(ctx, texts)
	if err != nil {
		return r.errored(ctx, res, fmt.Errorf("%w: %v", types.ErrEmbeddingFailed, err))
	}

	unit := types.WriteUnit{
		Collection: task.Collection,
		Filename:   task.Filename,
		FileHash:   decision.FileHash,
		FileMtime:  decision.FileMtime,
		Chunks:     chunks,
		Vectors:    vectors,
	}
	if err := w.Enqueue(ctx, unit); err != nil {
		return r.errored(ctx, res, err)
	}

	r.status.Track("embedding", task.Filename, int(embedded.Add(int64(len(chunks)))))
	res.Status = types.FileProcessed
	res.ChunkCount = len(chunks)
	return res
}

// embedTexts embeds a file's chunk texts in configured batch steps. Each
// step takes the engine lock once, so concurrent workers interleave at
// batch granularity instead of serializing whole files.
func (r *Runner) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := start + batch
		if end > len(texts) {
			end = len(texts)
		}
		vs, err := r.engine.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vs...)
	}
	return vectors, nil
}

// skipped marks the result skipped, keeping the error for classification.
func (r *Runner) skipped(ctx context.Context, res types.FileResult, err error) types.FileResult {
	res.Status = types.FileSkipped
	res.Reason = err.Error()
	res.Err = err
	slog.DebugContext(ctx, "file skipped", "path", res.Path, "reason", res.Reason)
	return res
}

// errored marks the result errored; the error stays in the result.
func (r *Runner) errored(ctx context.Context, res types.FileResult, err error) types.FileResult {
	res.Status = types.FileErrored
	res.Reason = err.Error()
	res.Err = err
	slog.WarnContext(ctx, "file errored", "path", res.Path, "error", err)
	return res
}

// heartbeat appends a progress line at a fixed interval while the run is
// active, so pollers see liveness during long embed phases.
func (r *Runner) heartbeat(ctx context.Context) {
	interval := r.cfg.Heartbeat
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if line := r.status.ProgressLine(); line != "" {
				r.status.Append(line)
				slog.DebugContext(ctx, "ingest progress", "status", line)
			}
		}
	}
}

// say records a progress message in the status store and the log.
func (r *Runner) say(ctx context.Context, msg string) {
	r.status.Append(msg)
	slog.InfoContext(ctx, msg)
}
