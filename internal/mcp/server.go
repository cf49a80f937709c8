package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jmhartley/docdex/internal/config"
	"github.com/jmhartley/docdex/internal/embedder"
	"github.com/jmhartley/docdex/internal/ingest"
	"github.com/jmhartley/docdex/internal/reranker"
	"github.com/jmhartley/docdex/internal/searcher"
	"github.com/jmhartley/docdex/internal/storage"
)

// Name and version reported to MCP clients during the handshake.
const (
	ServerName    = "docdex"
	ServerVersion = "1.0.0"
)

// Server owns the MCP transport plus everything the tool handlers touch.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	store    storage.Store
	runner   *ingest.Runner
	searcher *searcher.Searcher
	answers  *searcher.AnswerCache
}

// NewServer wires the engine behind an MCP stdio server. The ingest runner
// and the searcher share one embedding engine so query vectors come from
// the same model that produced the index.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine, err := embedder.Shared(embedder.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
	}, cfg.MaxEmbedRune)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	runner := ingest.NewRunner(cfg, store, engine, ingest.NewStatusStore())

	// The reranker key comes from the provider's environment variable.
	var rr *reranker.Client
	if cfg.RerankProvider != "" {
		rr = reranker.NewClient(cfg.RerankProvider, "")
	}
	srch := searcher.New(cfg, store, engine, rr)

	answers, err := searcher.NewAnswerCache(store, cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize answer cache: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		cfg:      cfg,
		store:    store,
		runner:   runner,
		searcher: srch,
		answers:  answers,
	}

	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve answers MCP requests on stdin/stdout until the stream closes.
func (s *Server) Serve(ctx context.Context) error {
	// Expired cached answers accumulate between sessions; sweep them once
	// at startup rather than on every lookup.
	if pruned, err := s.answers.Prune(ctx); err != nil {
		slog.Warn("failed to prune cached answers", "error", err)
	} else if pruned > 0 {
		slog.Info("pruned expired cached answers", "count", pruned)
	}

	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools binds each tool schema to its handler.
func (s *Server) registerTools() error {
	s.mcp.AddTool(ingestDocumentsTool(), s.handleIngestDocuments)
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(getIngestStatusTool(), s.handleGetIngestStatus)
	s.mcp.AddTool(listCollectionsTool(), s.handleListCollections)
	s.mcp.AddTool(getDocumentContentTool(), s.handleGetDocumentContent)
	s.mcp.AddTool(removeDocumentTool(), s.handleRemoveDocument)
	s.mcp.AddTool(getCachedAnswerTool(), s.handleGetCachedAnswer)
	s.mcp.AddTool(saveCachedAnswerTool(), s.handleSaveCachedAnswer)
	return nil
}
