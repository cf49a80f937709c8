// Package cli wires the docdex commands. Each command loads configuration
// from the environment on its own, so the binary behaves the same whether a
// subcommand runs once or the process stays up serving MCP.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/ingest"
	"github.com/jmhartley/docdex/internal/logging"
	"github.com/jmhartley/docdex/internal/storage"
)

// Set at build time via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Index personal documents and search them",
	Long: `Docdex indexes a folder of personal documents into a local SQLite
database and answers hybrid searches over it, combining semantic (vector)
and keyword (full-text) retrieval.

The index lives entirely on this machine. Point DOCDEX_ROOT at a directory
whose first-level folders become collections, run 'docdex ingest', and
search from the command line or through the MCP server ('docdex serve').`,
	SilenceUsage: true,
}

// Execute runs the CLI with the given context. The context reaches every
// RunE through cmd.Context, so signal cancellation stops long-running
// commands like serve and watch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the environment configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openStore opens the index database, creating its directory on first use.
func openStore(cfg *config.Config) (storage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", cfg.DBPath, err)
	}
	return store, nil
}

// newEngine returns the process-wide embedding engine for the configured
// provider.
func newEngine(cfg *config.Config) (*embedder.Engine, error) {
	engine, err := embedder.Shared(embedder.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
	}, cfg.MaxEmbedRune)
	if err != nil {
		return nil, fmt.Errorf("create embedding engine: %w", err)
	}
	return engine, nil
}

// newRunner assembles an ingest runner over an open store.
func newRunner(cfg *config.Config, store storage.Store) (*ingest.Runner, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	return ingest.NewRunner(cfg, store, engine, ingest.NewStatusStore()), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
