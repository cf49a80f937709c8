package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jmhartley/docdex/internal/ingest"
	"github.com/jmhartley/docdex/internal/searcher"
	"github.com/jmhartley/docdex/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeIngestInProgress = -32002 // Another ingest run is already in flight
	ErrorCodeNotFound         = -32003 // Document or collection not indexed
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

// handleIngestDocuments handles the ingest_documents tool invocation
func (s *Server) handleIngestDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.runner.Run(ctx)
	if errors.Is(err, ingest.ErrRunActive) {
		return nil, newMCPError(ErrorCodeIngestInProgress, "an ingest run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingest failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run_id":          summary.RunID,
		"files_processed": summary.FilesProcessed,
		"files_skipped":   summary.FilesSkipped,
		"files_errored":   summary.FilesErrored,
		"chunks_written":  summary.ChunksWritten,
		"duration_ms":     summary.Elapsed.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	k := getIntDefault(args, "k", s.cfg.DefaultK)
	if k < 1 || k > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "k must be between 1 and 100", map[string]interface{}{
			"param": "k",
			"value": k,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Scope:      getStringDefault(args, "collection", ""),
		Query:      query,
		FileFilter: getStringDefault(args, "filename", ""),
		K:          k,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"chunk_id":    r.ChunkID,
			"rank":        r.Rank,
			"score":       r.Score,
			"content":     r.Content,
			"collection":  r.Metadata.Collection,
			"filename":    r.Metadata.Filename,
			"chunk_index": r.Metadata.ChunkIndex,
			"section":     r.Metadata.Section,
		})
	}

	response := map[string]interface{}{
		"results":       results,
		"total":         len(results),
		"collections":   resp.Partitions,
		"reranked":      resp.Reranked,
		"scope_widened": resp.ScopeWidened,
		"duration_ms":   resp.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIngestStatus handles the get_ingest_status tool invocation
func (s *Server) handleGetIngestStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.runner.Status()

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read index statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"running":         status.Running,
		"recent_messages": status.RecentMessages,
		"statistics": map[string]interface{}{
			"documents":     stats.Documents,
			"chunks":        stats.Chunks,
			"vectors":       stats.Vectors,
			"keywords":      stats.Keywords,
			"collections":   stats.Collections,
			"index_size_mb": fmt.Sprintf("%.2f", stats.SizeMB),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListCollections handles the list_collections tool invocation
func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list collections", map[string]interface{}{
			"error": err.Error(),
		})
	}

	collections := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		collections = append(collections, map[string]interface{}{
			"name":      info.Name,
			"documents": info.Documents,
			"chunks":    info.Chunks,
		})
	}

	response := map[string]interface{}{
		"collections": collections,
		"total":       len(collections),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDocumentContent handles the get_document_content tool invocation
func (s *Server) handleGetDocumentContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	collection, filename, mcpErr := documentParams(args)
	if mcpErr != nil {
		return nil, mcpErr
	}

	content, err := s.store.GetDocumentContent(ctx, collection, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "document not indexed", map[string]interface{}{
			"collection": collection,
			"filename":   filename,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load document content", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"collection": collection,
		"filename":   filename,
		"content":    content,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveDocument handles the remove_document tool invocation
func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	collection, filename, mcpErr := documentParams(args)
	if mcpErr != nil {
		return nil, mcpErr
	}

	err := s.store.RemoveDocument(ctx, collection, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "document not indexed", map[string]interface{}{
			"collection": collection,
			"filename":   filename,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to remove document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"removed":    true,
		"collection": collection,
		"filename":   filename,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetCachedAnswer handles the get_cached_answer tool invocation
func (s *Server) handleGetCachedAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	// Answers are only valid to replay when the query stood alone.
	if getBoolDefault(args, "has_context", false) || getBoolDefault(args, "has_history", false) {
		response := map[string]interface{}{
			"cached": false,
			"reason": "context-dependent queries are not cached",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	answer, found := s.answers.Get(ctx, query)
	if !found {
		response := map[string]interface{}{
			"cached": false,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"cached": true,
		"answer": answer,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSaveCachedAnswer handles the save_cached_answer tool invocation
func (s *Server) handleSaveCachedAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	answer, ok := args["answer"].(string)
	if !ok || answer == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "answer parameter is required and cannot be empty", map[string]interface{}{
			"param":  "answer",
			"reason": "missing or empty",
		})
	}

	if getBoolDefault(args, "has_context", false) || getBoolDefault(args, "has_history", false) {
		response := map[string]interface{}{
			"saved":  false,
			"reason": "context-dependent queries are not cached",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	if err := s.answers.Put(ctx, query, answer); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save answer", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"saved": true,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// documentParams extracts the required collection and filename parameters.
func documentParams(args map[string]interface{}) (collection, filename string, err error) {
	collection, ok := args["collection"].(string)
	if !ok || collection == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "collection parameter is required", map[string]interface{}{
			"param":  "collection",
			"reason": "missing or empty",
		})
	}

	filename, ok = args["filename"].(string)
	if !ok || filename == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "filename parameter is required", map[string]interface{}{
			"param":  "filename",
			"reason": "missing or empty",
		})
	}

	return collection, filename, nil
}

// MCPError is a JSON-RPC tool error. Handlers return it as a plain
// error value; the framework handles the encoding.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// formatJSON renders a tool response as indented JSON.
func formatJSON(data map[string]interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}

// Argument readers with fallbacks. JSON numbers decode as float64, so
// the int reader accepts both forms.

func getBoolDefault(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func getIntDefault(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func getStringDefault(args map[string]interface{}, key string, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}
