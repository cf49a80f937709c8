package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/storage"
	"github.com/jmhartley/docdex/pkg/types"
)

func testConfig(root string) *config.Config {
	return &config.Config{
		Root:         root,
		Workers:      2,
		QueueSize:    8,
		BatchSize:    4,
		ChunkSize:    200,
		ChunkOverlap: 20,
		MaxEmbedRune: 6000,
		MaxFileSize:  1 << 20,
		Heartbeat:    time.Minute, // out of the way unless a test shortens it
	}
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *storage.SQLiteStore) {
	t.Helper()
	provider, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	return newTestRunnerWith(t, cfg, provider)
}

func newTestRunnerWith(t *testing.T, cfg *config.Config, e embedder.Embedder) (*Runner, *storage.SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	engine := embedder.NewEngine(e, cfg.MaxEmbedRune)
	t.Cleanup(func() { _ = engine.Close() })
	return NewRunner(cfg, store, engine, NewStatusStore()), store
}

// writeDoc drops a document into root under the given collection directory.
func writeDoc(t *testing.T, root, collection, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, collection)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunner_FirstIngest(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "finance", "report.md", "# Report\n\nRevenue grew twelve percent quarter over quarter.\n")
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, store := newTestRunner(t, testConfig(root))
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 0, summary.FilesSkipped)
	assert.Equal(t, 0, summary.FilesErrored)
	assert.Equal(t, 2, summary.ChunksWritten)
	assert.NotEmpty(t, summary.RunID)
	assert.Greater(t, summary.Elapsed, time.Duration(0))

	ctx := context.Background()
	doc, err := store.GetDocument(ctx, "finance", "report.md")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentActive, doc.Status)
	assert.NotEmpty(t, doc.FileHash)
	assert.NotZero(t, doc.FileMtime)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Vectors)
	assert.Equal(t, 2, stats.Keywords)
	assert.Equal(t, 2, stats.Collections)
}

func TestRunner_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "finance", "report.md", "# Report\n\nRevenue grew twelve percent quarter over quarter.\n")

	r, store := newTestRunner(t, testConfig(root))
	ctx := context.Background()

	first, err := r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.FilesProcessed)

	doc, err := store.GetDocument(ctx, "finance", "report.md")
	require.NoError(t, err)
	before, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	second, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 1, second.FilesSkipped)
	assert.Equal(t, 0, second.ChunksWritten)

	after, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
	}
}

func TestRunner_TouchWithoutEdit(t *testing.T) {
	root := t.TempDir()
	path := writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, _ := newTestRunner(t, testConfig(root))
	ctx := context.Background()
	_, err := r.Run(ctx)
	require.NoError(t, err)

	touched := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, touched, touched))

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, 0, summary.ChunksWritten)
}

func TestRunner_ReprocessOnContentChange(t *testing.T) {
	root := t.TempDir()
	path := writeDoc(t, root, "finance", "report.md", "# Report\n\nRevenue grew twelve percent quarter over quarter.\n")
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, store := newTestRunner(t, testConfig(root))
	ctx := context.Background()
	_, err := r.Run(ctx)
	require.NoError(t, err)

	writeDoc(t, root, "finance", "report.md", "# Report\n\nCosts fell sharply in the third quarter.\n")
	bumped := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, bumped, bumped))

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesSkipped)

	content, err := store.GetDocumentContent(ctx, "finance", "report.md")
	require.NoError(t, err)
	assert.Contains(t, content, "Costs fell sharply")
	assert.NotContains(t, content, "Revenue grew")

	// Replaced, not accumulated.
	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Vectors)
	assert.Equal(t, 2, stats.Keywords)
}

func TestRunner_BinaryFileSkipped(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "finance")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.md"), []byte("PK\x03\x04\x00\x00stray zip bytes"), 0o644))

	r, store := newTestRunner(t, testConfig(root))
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, 0, summary.ChunksWritten)

	// Not marked processed, so a fixed file is picked up next run.
	_, err = store.GetDocument(context.Background(), "finance", "data.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunner_SingleFlight(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, _ := newTestRunner(t, testConfig(root))

	require.True(t, r.lock.TryAcquire())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunActive)
	r.lock.Release()

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesProcessed)
}

// failEmbedder fails every inference call.
type failEmbedder struct{}

func (failEmbedder) GenerateEmbedding(context.Context, embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, errors.New("model unavailable")
}

func (failEmbedder) GenerateBatch(context.Context, embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, errors.New("model unavailable")
}

func (failEmbedder) Dimension() int   { return 4 }
func (failEmbedder) Provider() string { return "failing" }
func (failEmbedder) Model() string    { return "failing" }
func (failEmbedder) Close() error     { return nil }

func TestRunner_EmbeddingFailureContained(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "finance", "report.md", "# Report\n\nRevenue grew twelve percent quarter over quarter.\n")
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, store := newTestRunnerWith(t, testConfig(root), failEmbedder{})
	summary, err := r.Run(context.Background())

	// File-level failures surface in counts, never as a run error.
	require.NoError(t, err)
	assert.Equal(t, 0, summary.FilesProcessed)
	assert.Equal(t, 2, summary.FilesErrored)
	assert.Equal(t, 0, summary.ChunksWritten)

	docs, err := store.ListDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRunner_CanceledBeforeStart(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, store := newTestRunner(t, testConfig(root))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := r.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.FilesProcessed)

	_, err = store.GetDocument(context.Background(), "notes", "ideas.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The lock was released on the way out; a later run succeeds.
	summary, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesProcessed)
}

func TestRunner_StatusMessages(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	r, _ := newTestRunner(t, testConfig(root))
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	status := r.Status()
	assert.False(t, status.Running)
	assert.Contains(t, status.RecentMessages, "ingest started")
	assert.Contains(t, status.RecentMessages, "processing 1 files")

	var complete bool
	for _, m := range status.RecentMessages {
		if strings.HasPrefix(m, "ingest complete: 1 processed, 0 skipped, 0 errored, 1 chunks written") {
			complete = true
		}
	}
	assert.True(t, complete, "missing completion summary, got %v", status.RecentMessages)
}

// slowEmbedder delays every batch long enough for heartbeats to fire.
type slowEmbedder struct {
	embedder.Embedder
	delay time.Duration
}

func (s slowEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	time.Sleep(s.delay)
	return s.Embedder.GenerateBatch(ctx, req)
}

func TestRunner_HeartbeatDuringRun(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "ideas.md", "Remember to water the plants.\n")

	cfg := testConfig(root)
	cfg.Heartbeat = 10 * time.Millisecond

	provider, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	r, _ := newTestRunnerWith(t, cfg, slowEmbedder{Embedder: provider, delay: 150 * time.Millisecond})

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	// "scanning files" reaches the message ring only through the heartbeat.
	assert.Contains(t, r.Status().RecentMessages, "scanning files")
}

func TestRunner_EmptyRoot(t *testing.T) {
	r, _ := newTestRunner(t, testConfig(t.TempDir()))
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.FilesProcessed)
	assert.Zero(t, summary.ChunksWritten)
	assert.Contains(t, r.Status().RecentMessages, "nothing to ingest")
}

func TestRunner_MissingRoot(t *testing.T) {
	r, _ := newTestRunner(t, testConfig(filepath.Join(t.TempDir(), "missing")))
	summary, err := r.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.False(t, r.Status().Running)
}

func TestRunner_HeaderAwareChunking(t *testing.T) {
	root := t.TempDir()
	body := strings.Repeat("pen and paper daily ", 6)
	content := "## Morning Pages\n" + body + "\n## Evening Review\n" + body + "\n"
	writeDoc(t, root, "Journal", "journal.md", content)

	cfg := testConfig(root)
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 20

	r, store := newTestRunner(t, cfg)
	ctx := context.Background()
	summary, err := r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesProcessed)
	assert.Equal(t, 4, summary.ChunksWritten)

	doc, err := store.GetDocument(ctx, "Journal", "journal.md")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentActive, doc.Status)

	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	// Two children per header section, ids fixed by structural position.
	assert.Equal(t, types.ChunkID("journal.md", 0, 0), chunks[0].ID)
	assert.Equal(t, types.ChunkID("journal.md", 0, 1), chunks[1].ID)
	assert.Equal(t, types.ChunkID("journal.md", 1, 0), chunks[2].ID)
	assert.Equal(t, types.ChunkID("journal.md", 1, 1), chunks[3].ID)
	assert.Equal(t, "Morning Pages", chunks[0].Section)
	assert.Equal(t, "Evening Review", chunks[2].Section)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 4, stats.Chunks)
	assert.Equal(t, 4, stats.Vectors)
	assert.Equal(t, 4, stats.Keywords)
}
