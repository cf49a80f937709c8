// Package mcp implements the Model Context Protocol (MCP) server for docdex.
//
// The MCP server exposes the document index to AI assistants as a set of
// tools:
//   - ingest_documents: Index new or changed files under the document root
//   - search_documents: Hybrid semantic plus keyword retrieval
//   - get_ingest_status: Run state, progress messages, and index statistics
//   - list_collections: Collections with document and chunk counts
//   - get_document_content: Full text of one indexed document
//   - remove_document: Drop a document and its index entries
//   - get_cached_answer / save_cached_answer: Answer reuse for context-free queries
//
// # Protocol Overview
//
// MCP runs JSON-RPC 2.0 over a stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads MCP messages from standard input and writes responses to
// standard output, so logs must go to stderr.
//
// # Basic Usage
//
// The server normally starts through the serve command:
//
//	docdex serve
//
// # Tool: ingest_documents
//
// Walk the document root and index whatever changed:
//
//	Request:
//	{
//	  "name": "ingest_documents",
//	  "arguments": {}
//	}
//
//	Response:
//	{
//	  "run_id": "f3a91c2e",
//	  "files_processed": 12,
//	  "files_skipped": 240,
//	  "files_errored": 0,
//	  "chunks_written": 87,
//	  "duration_ms": 4210
//	}
//
// A second call while a run is active fails with code -32002.
//
// # Tool: search_documents
//
// Search one collection or the whole corpus:
//
//	Request:
//	{
//	  "name": "search_documents",
//	  "arguments": {
//	    "query": "vacation policy for contractors",
//	    "collection": "hr",
//	    "k": 5
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "chunk_id": "8f14e45f...",
//	      "rank": 1,
//	      "score": 0.0322,
//	      "content": "## Contractors\n\nContractors accrue...",
//	      "collection": "hr",
//	      "filename": "policies.md",
//	      "chunk_index": 4,
//	      "section": "Contractors"
//	    }
//	  ],
//	  "total": 1,
//	  "collections": ["hr"],
//	  "reranked": false,
//	  "scope_widened": false,
//	  "duration_ms": 38
//	}
//
// scope_widened reports that the named collection produced nothing and the
// results came from a corpus-wide retry.
//
// # Tool: get_cached_answer / save_cached_answer
//
// Answers are keyed by the normalized query text, so they are only safe to
// replay when the query stood alone. Callers must set has_context or
// has_history when the query leaned on conversation state; the server then
// declines the cache rather than serving a stale answer:
//
//	Request:
//	{
//	  "name": "get_cached_answer",
//	  "arguments": {"query": "What is our parental leave policy?"}
//	}
//
//	Response (hit):  {"cached": true, "answer": "..."}
//	Response (miss): {"cached": false}
//
// # MCP Client Configuration
//
// Configure in the client's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "docdex": {
//	      "command": "/usr/local/bin/docdex",
//	      "args": ["serve"],
//	      "env": {
//	        "DOCDEX_ROOT": "/home/user/documents"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "collection",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, embedder, etc.)
//   - -32002: Ingest run already in progress
//   - -32003: Document or collection not indexed
//   - -32004: Query parameter is empty
package mcp
