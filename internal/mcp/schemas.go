package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDocumentsTool returns the tool definition for ingest_documents
func ingestDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_documents",
		Description: "Scan the document root and index new or changed files; unchanged files are skipped",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search indexed documents with combined semantic and keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to search, or 'all' for the whole corpus",
					"default":     "all",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to a single file within the scope",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getIngestStatusTool returns the tool definition for get_ingest_status
func getIngestStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_ingest_status",
		Description: "Report whether an ingest run is active, recent progress messages, and index statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// listCollectionsTool returns the tool definition for list_collections
func listCollectionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_collections",
		Description: "List indexed collections with document and chunk counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getDocumentContentTool returns the tool definition for get_document_content
func getDocumentContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_document_content",
		Description: "Return the full indexed text of one document, reassembled from its chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection holding the document",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Document filename within the collection",
				},
			},
			Required: []string{"collection", "filename"},
		},
	}
}

// removeDocumentTool returns the tool definition for remove_document
func removeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_document",
		Description: "Remove one document and all of its index entries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection holding the document",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Document filename within the collection",
				},
			},
			Required: []string{"collection", "filename"},
		},
	}
}

// getCachedAnswerTool returns the tool definition for get_cached_answer
func getCachedAnswerTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_cached_answer",
		Description: "Look up a previously saved answer for a context-free query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The user query, verbatim",
				},
				"has_context": map[string]interface{}{
					"type":        "boolean",
					"description": "True when the query depends on documents or data supplied in the conversation",
					"default":     false,
				},
				"has_history": map[string]interface{}{
					"type":        "boolean",
					"description": "True when the query depends on earlier turns of the conversation",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// saveCachedAnswerTool returns the tool definition for save_cached_answer
func saveCachedAnswerTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_cached_answer",
		Description: "Save an answer for a context-free query so identical queries can be served from cache",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The user query, verbatim",
				},
				"answer": map[string]interface{}{
					"type":        "string",
					"description": "The answer to cache",
				},
				"has_context": map[string]interface{}{
					"type":        "boolean",
					"description": "True when the query depends on documents or data supplied in the conversation",
					"default":     false,
				},
				"has_history": map[string]interface{}{
					"type":        "boolean",
					"description": "True when the query depends on earlier turns of the conversation",
					"default":     false,
				},
			},
			Required: []string{"query", "answer"},
		},
	}
}
