package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/ingest"
	"github.com/jmhartley/docdex/internal/searcher"
	"github.com/jmhartley/docdex/internal/storage"
)

// LifecycleTestSuite exercises a file-backed index across store reopens,
// the way the binary actually runs: one process ingests and exits, the
// next one searches what the first left behind.
type LifecycleTestSuite struct {
	suite.Suite
	ctx    context.Context
	root   string
	dbPath string
	cfg    *config.Config
	engine *embedder.Engine
}

func (s *LifecycleTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.root = s.T().TempDir()
	s.dbPath = filepath.Join(s.T().TempDir(), "docdex.db")
	s.cfg = testConfig(s.root)
	s.cfg.DBPath = s.dbPath
	s.engine = embedder.NewEngine(NewMockEmbedder(mockDimension), s.cfg.MaxEmbedRune)
}

// openStore opens the suite's database file.
func (s *LifecycleTestSuite) openStore() storage.Store {
	store, err := storage.NewSQLiteStore(s.dbPath)
	s.Require().NoError(err)
	return store
}

func (s *LifecycleTestSuite) ingestWith(store storage.Store) {
	runner := ingest.NewRunner(s.cfg, store, s.engine, ingest.NewStatusStore())
	_, err := runner.Run(s.ctx)
	s.Require().NoError(err)
}

func (s *LifecycleTestSuite) TestIndexSurvivesReopen() {
	writeCorpusFile(s.T(), s.root, "notes", "garden.md", "Water the plants every Tuesday evening.")
	writeCorpusFile(s.T(), s.root, "finance", "q3.md", "Quarterly revenue grew twelve percent year over year.")

	first := s.openStore()
	s.ingestWith(first)
	s.Require().NoError(first.Close())

	second := s.openStore()
	defer func() { _ = second.Close() }()

	stats, err := second.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Documents)

	found := searcher.New(s.cfg, second, s.engine, nil)
	resp, err := found.Search(s.ctx, searcher.Request{Query: "quarterly revenue", K: 5})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)
	s.Equal("q3.md", resp.Results[0].Metadata.Filename)
}

func (s *LifecycleTestSuite) TestChangeDetectionSurvivesReopen() {
	writeCorpusFile(s.T(), s.root, "notes", "garden.md", "Water the plants every Tuesday evening.")

	first := s.openStore()
	s.ingestWith(first)
	s.Require().NoError(first.Close())

	// The persisted hashes drive detection in the next process.
	second := s.openStore()
	defer func() { _ = second.Close() }()

	runner := ingest.NewRunner(s.cfg, second, s.engine, ingest.NewStatusStore())
	summary, err := runner.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, summary.FilesProcessed)
	s.Equal(1, summary.FilesSkipped)
}

func (s *LifecycleTestSuite) TestCachedAnswersSurviveReopen() {
	first := s.openStore()
	cache, err := searcher.NewAnswerCache(first, 8, time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(cache.Put(s.ctx, "What day are the plants watered?", "Tuesday evening."))
	s.Require().NoError(first.Close())

	second := s.openStore()
	defer func() { _ = second.Close() }()

	reopened, err := searcher.NewAnswerCache(second, 8, time.Hour)
	s.Require().NoError(err)
	answer, ok := reopened.Get(s.ctx, "what day are the plants watered?")
	s.True(ok)
	s.Equal("Tuesday evening.", answer)
}

func (s *LifecycleTestSuite) TestFullSession() {
	writeCorpusFile(s.T(), s.root, "notes", "garden.md", "Water the plants every Tuesday evening.")
	writeCorpusFile(s.T(), s.root, "notes", "ideas.md", "A reading app that syncs highlights across devices.")
	writeCorpusFile(s.T(), s.root, "finance", "q3.md", "Quarterly revenue grew twelve percent year over year.")

	store := s.openStore()
	defer func() { _ = store.Close() }()
	s.ingestWith(store)

	collections, err := store.ListCollections(s.ctx)
	s.Require().NoError(err)
	s.Len(collections, 2)

	content, err := store.GetDocumentContent(s.ctx, "notes", "garden.md")
	s.Require().NoError(err)
	s.Contains(content, "Water the plants")

	s.Require().NoError(store.RemoveDocument(s.ctx, "notes", "garden.md"))

	found := searcher.New(s.cfg, store, s.engine, nil)
	resp, err := found.Search(s.ctx, searcher.Request{Query: "water the plants tuesday", K: 5})
	s.Require().NoError(err)
	for _, r := range resp.Results {
		s.NotEqual("garden.md", r.Metadata.Filename, "removed documents must not surface")
	}

	stats, err := store.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Documents)
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}
