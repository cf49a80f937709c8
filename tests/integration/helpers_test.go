package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmhartley/docdex/internal/config"
)

// mockDimension keeps every suite on the same vector width.
const mockDimension = 384

// testConfig mirrors the production defaults, scaled to test corpora.
func testConfig(root string) *config.Config {
	return &config.Config{
		Root:              root,
		Workers:           2,
		QueueSize:         16,
		BatchSize:         8,
		ChunkSize:         400,
		ChunkOverlap:      40,
		MaxEmbedRune:      6000,
		MaxFileSize:       1 << 20,
		DefaultK:          10,
		Oversample:        5,
		RerankCandidates:  100,
		SearchTimeout:     10 * time.Second,
		CacheSize:         64,
		CacheTTL:          time.Hour,
		Heartbeat:         time.Minute,
		EmbeddingProvider: "local",
		LogLevel:          "error",
		LogFormat:         "text",
	}
}

func writeCorpusFile(t *testing.T, root, collection, name, content string) {
	t.Helper()
	dir := filepath.Join(root, collection)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
