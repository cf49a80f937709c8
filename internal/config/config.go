package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the single settings struct for the engine. Every field has a
// default; it is validated once at startup and passed into components.
type Config struct {
	// Filesystem layout
	Root   string `envconfig:"ROOT" default:"./documents"`
	DBPath string `envconfig:"DB_PATH" default:""`

	// Ingestion pipeline
	Workers      int   `envconfig:"WORKERS" default:"0"` // 0 = NumCPU
	QueueSize    int   `envconfig:"QUEUE_SIZE" default:"100"`
	BatchSize    int   `envconfig:"BATCH_SIZE" default:"16"`
	ChunkSize    int   `envconfig:"CHUNK_SIZE" default:"2000"`
	ChunkOverlap int   `envconfig:"CHUNK_OVERLAP" default:"150"`
	MaxEmbedRune int   `envconfig:"MAX_EMBED_CHARS" default:"6000"`
	MaxFileSize  int64 `envconfig:"MAX_FILE_SIZE" default:"10485760"` // 10MB

	// Retrieval
	DefaultK         int           `envconfig:"DEFAULT_K" default:"10"`
	Oversample       int           `envconfig:"OVERSAMPLE" default:"5"`
	RerankEnabled    bool          `envconfig:"RERANK_ENABLED" default:"false"`
	RerankCandidates int           `envconfig:"RERANK_CANDIDATES" default:"100"`
	RerankProvider   string        `envconfig:"RERANK_PROVIDER" default:""`
	SearchTimeout    time.Duration `envconfig:"SEARCH_TIMEOUT" default:"15s"`

	// Response cache
	CacheSize int           `envconfig:"CACHE_SIZE" default:"1024"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	// Progress reporting
	Heartbeat time.Duration `envconfig:"HEARTBEAT" default:"5s"`

	// Embedding
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"local"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL" default:""`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads .env if present, then the DOCDEX_* environment, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	// Env vars may be set in the shell; a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("docdex", &cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".docdex", "docdex.db")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: ROOT must not be empty", ErrInvalid)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalid)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalid)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BATCH_SIZE must be positive", ErrInvalid)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: QUEUE_SIZE must be positive", ErrInvalid)
	}
	if c.MaxEmbedRune <= 0 {
		return fmt.Errorf("%w: MAX_EMBED_CHARS must be positive", ErrInvalid)
	}
	if c.DefaultK <= 0 {
		return fmt.Errorf("%w: DEFAULT_K must be positive", ErrInvalid)
	}
	if c.Oversample < 1 {
		return fmt.Errorf("%w: OVERSAMPLE must be >= 1", ErrInvalid)
	}
	if c.RerankCandidates <= 0 {
		return fmt.Errorf("%w: RERANK_CANDIDATES must be positive", ErrInvalid)
	}
	if c.RerankEnabled && c.RerankProvider == "" {
		return fmt.Errorf("%w: RERANK_PROVIDER required when reranking is enabled", ErrInvalid)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be text or json", ErrInvalid)
	}
	return nil
}
