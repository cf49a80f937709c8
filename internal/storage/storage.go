package storage

import (
	"context"
	"time"

	"github.com/jmhartley/docdex/pkg/types"
)

// Store defines the interface for persisting and querying ingested documents
type Store interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, collection, filename string) (*types.Document, error)
	GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error)
	DeleteDocument(ctx context.Context, collection, filename string) error
	RemoveDocument(ctx context.Context, collection, filename string) error
	ListDocuments(ctx context.Context, collection string) ([]*types.Document, error)

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Vector operations
	InsertVectorRecord(ctx context.Context, rec *VectorRecord) error
	DeleteVectorRecords(ctx context.Context, collection, filename string) error
	GetVectorRecords(ctx context.Context, chunkIDs []string) (map[string]*VectorRecord, error)

	// Keyword operations
	InsertKeywordRecord(ctx context.Context, rec *KeywordRecord) error
	DeleteKeywordRecords(ctx context.Context, collection, filename string) error

	// Search operations
	SearchVector(ctx context.Context, collections []string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchKeyword(ctx context.Context, collections []string, query string, limit int) ([]KeywordResult, error)

	// Collection operations
	ListPartitions(ctx context.Context) ([]string, error)
	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// Document content reassembly
	GetDocumentContent(ctx context.Context, collection, filename string) (string, error)

	// Semantic cache operations
	GetCachedResponse(ctx context.Context, queryHash string) (*CachedResponse, error)
	PutCachedResponse(ctx context.Context, queryHash, response string) error
	PruneCachedResponses(ctx context.Context, olderThan time.Time) (int, error)

	// Status operations
	GetStats(ctx context.Context) (*IndexStats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// VectorRecord is a denormalized chunk with its embedding, partitioned by
// collection so scoped searches never scan foreign partitions.
type VectorRecord struct {
	ChunkID    string
	Collection string
	Filename   string
	ChunkIndex int
	Section    string
	Content    string
	Embedding  []byte // Serialized float32 array, little-endian
	Dimension  int
	CreatedAt  time.Time
}

// KeywordRecord is one row of the corpus-wide keyword index. The FTS5 table
// shadows the content column through triggers.
type KeywordRecord struct {
	ID         int64
	ChunkID    string
	Collection string
	Filename   string
	ChunkIndex int
	Content    string
	CreatedAt  time.Time
}

// SearchFilters contains filters for narrowing vector search results
type SearchFilters struct {
	FileFilter   string  // Restrict to a single filename within the scope
	MinRelevance float64 // Minimum similarity score
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         string
	SimilarityScore float64
}

// KeywordResult represents a result from full-text search
type KeywordResult struct {
	ChunkID   string
	BM25Score float64
}

// CollectionInfo summarizes one partition for listings
type CollectionInfo struct {
	Name      string
	Documents int
	Chunks    int
}

// CachedResponse is a persisted semantic cache entry
type CachedResponse struct {
	QueryHash string
	Response  string
	CreatedAt time.Time
}

// IndexStats contains corpus-wide statistics
type IndexStats struct {
	Documents   int
	Chunks      int
	Vectors     int
	Keywords    int
	Collections int
	SizeMB      float64
}
