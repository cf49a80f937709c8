package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmhartley/docdex/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// chunkMetadata is the JSON payload of the chunks.metadata column. The chunk
// row carries only ordering fields; the owning partition is recorded here so
// a chunk can be traced back without a join.
type chunkMetadata struct {
	Collection string `json:"collection"`
	Filename   string `json:"filename"`
}

// Document operations

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if doc.Status == "" {
		doc.Status = types.DocumentActive
	}
	query := `
		INSERT INTO documents (collection, filename, file_hash, file_mtime, last_processed, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, filename) DO UPDATE SET
			file_hash = excluded.file_hash,
			file_mtime = excluded.file_mtime,
			last_processed = excluded.last_processed,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.Collection, doc.Filename, doc.FileHash, doc.FileMtime,
		now, string(doc.Status), now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.LastProcessed = now
	return nil
}

func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *types.Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

// scanDocument scans one documents row into a types.Document
func scanDocument(row interface{ Scan(dest ...interface{}) error }) (*types.Document, error) {
	var doc types.Document
	var status string
	var lastProcessed sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.Collection, &doc.Filename, &doc.FileHash,
		&doc.FileMtime, &lastProcessed, &status,
	)
	if err != nil {
		return nil, err
	}
	if lastProcessed.Valid {
		doc.LastProcessed = lastProcessed.Time
	}
	doc.Status = types.DocumentStatus(status)
	return &doc, nil
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getDocumentWithQuerier(ctx context.Context, q querier, collection, filename string) (*types.Document, error) {
	query := `
		SELECT id, collection, filename, file_hash, file_mtime, last_processed, status
		FROM documents
		WHERE collection = ? AND filename = ?
	`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, collection, filename))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, collection, filename string) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), collection, filename)
}

// getDocumentByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getDocumentByIDWithQuerier(ctx context.Context, q querier, documentID int64) (*types.Document, error) {
	query := `
		SELECT id, collection, filename, file_hash, file_mtime, last_processed, status
		FROM documents
		WHERE id = ?
	`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error) {
	return s.getDocumentByIDWithQuerier(ctx, s.querier(), documentID)
}

// deleteDocumentWithQuerier is the internal implementation that uses a querier.
// Chunk rows cascade through the foreign key.
func (s *SQLiteStore) deleteDocumentWithQuerier(ctx context.Context, q querier, collection, filename string) error {
	query := `DELETE FROM documents WHERE collection = ? AND filename = ?`
	_, err := q.ExecContext(ctx, query, collection, filename)
	return err
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, collection, filename string) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), collection, filename)
}

// removeDocumentWithQuerier deletes a document together with its search
// records. The document row goes last so a failure partway leaves the
// bookkeeping intact and a later ingest run can repair the index.
func (s *SQLiteStore) removeDocumentWithQuerier(ctx context.Context, q querier, collection, filename string) error {
	if _, err := s.getDocumentWithQuerier(ctx, q, collection, filename); err != nil {
		return err
	}
	if err := s.deleteVectorRecordsWithQuerier(ctx, q, collection, filename); err != nil {
		return fmt.Errorf("failed to delete vector records: %w", err)
	}
	if err := s.deleteKeywordRecordsWithQuerier(ctx, q, collection, filename); err != nil {
		return fmt.Errorf("failed to delete keyword records: %w", err)
	}
	if err := s.deleteDocumentWithQuerier(ctx, q, collection, filename); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// RemoveDocument drops one document and all index entries derived from it.
// Returns ErrNotFound when the document is not indexed.
func (s *SQLiteStore) RemoveDocument(ctx context.Context, collection, filename string) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.RemoveDocument(ctx, collection, filename); err != nil {
		return err
	}
	return tx.Commit()
}

// listDocumentsWithQuerier is the internal implementation that uses a querier.
// An empty collection lists every document.
func (s *SQLiteStore) listDocumentsWithQuerier(ctx context.Context, q querier, collection string) ([]*types.Document, error) {
	query := `
		SELECT id, collection, filename, file_hash, file_mtime, last_processed, status
		FROM documents
	`
	args := []interface{}{}
	if collection != "" {
		query += " WHERE collection = ?"
		args = append(args, collection)
	}
	query += " ORDER BY collection, filename"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*types.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, collection string) ([]*types.Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), collection)
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertChunkWithQuerier(ctx context.Context, q querier, chunk *types.Chunk) error {
	meta, err := json.Marshal(chunkMetadata{
		Collection: chunk.Collection,
		Filename:   chunk.Filename,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	// Chunk ids are deterministic over (filename, parent, child), so a
	// reprocessed file reuses its ids. Conflicts reassign the row to the
	// current document.
	query := `
		INSERT INTO chunks (id, document_id, vector_ref, content_hash, chunk_index, section, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			vector_ref = excluded.vector_ref,
			content_hash = excluded.content_hash,
			chunk_index = excluded.chunk_index,
			section = excluded.section,
			metadata = excluded.metadata
	`
	now := time.Now()
	_, err = q.ExecContext(ctx, query,
		chunk.ID, chunk.DocumentID, chunk.ID, hex.EncodeToString(chunk.ContentHash[:]),
		chunk.Index, chunk.Section, string(meta), now)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

// scanChunk scans one chunks row into a types.Chunk
func scanChunk(row interface{ Scan(dest ...interface{}) error }) (*types.Chunk, error) {
	var chunk types.Chunk
	var hashHex string
	var section sql.NullString
	var meta sql.NullString
	err := row.Scan(&chunk.ID, &chunk.DocumentID, &hashHex, &chunk.Index, &section, &meta)
	if err != nil {
		return nil, err
	}
	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk content hash: %w", err)
	}
	copy(chunk.ContentHash[:], hash)
	if section.Valid {
		chunk.Section = section.String
	}
	if meta.Valid && meta.String != "" {
		var cm chunkMetadata
		if err := json.Unmarshal([]byte(meta.String), &cm); err != nil {
			return nil, fmt.Errorf("invalid chunk metadata: %w", err)
		}
		chunk.Collection = cm.Collection
		chunk.Filename = cm.Filename
	}
	return &chunk, nil
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getChunkWithQuerier(ctx context.Context, q querier, chunkID string) (*types.Chunk, error) {
	query := `
		SELECT id, document_id, content_hash, chunk_index, section, metadata
		FROM chunks
		WHERE id = ?
	`
	chunk, err := scanChunk(q.QueryRowContext(ctx, query, chunkID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*types.Chunk, error) {
	query := `
		SELECT id, document_id, content_hash, chunk_index, section, metadata
		FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// deleteChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	query := `DELETE FROM chunks WHERE document_id = ?`
	_, err := q.ExecContext(ctx, query, documentID)
	return err
}

func (s *SQLiteStore) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return s.deleteChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Vector operations

// insertVectorRecordWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertVectorRecordWithQuerier(ctx context.Context, q querier, rec *VectorRecord) error {
	query := `
		INSERT INTO vector_records (chunk_id, collection, filename, chunk_index, section, content, embedding, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			collection = excluded.collection,
			filename = excluded.filename,
			chunk_index = excluded.chunk_index,
			section = excluded.section,
			content = excluded.content,
			embedding = excluded.embedding,
			dimension = excluded.dimension
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		rec.ChunkID, rec.Collection, rec.Filename, rec.ChunkIndex,
		rec.Section, rec.Content, rec.Embedding, rec.Dimension, now)
	if err != nil {
		return fmt.Errorf("failed to insert vector record: %w", err)
	}
	rec.CreatedAt = now
	return nil
}

func (s *SQLiteStore) InsertVectorRecord(ctx context.Context, rec *VectorRecord) error {
	return s.insertVectorRecordWithQuerier(ctx, s.querier(), rec)
}

// deleteVectorRecordsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteVectorRecordsWithQuerier(ctx context.Context, q querier, collection, filename string) error {
	query := `DELETE FROM vector_records WHERE collection = ? AND filename = ?`
	_, err := q.ExecContext(ctx, query, collection, filename)
	return err
}

func (s *SQLiteStore) DeleteVectorRecords(ctx context.Context, collection, filename string) error {
	return s.deleteVectorRecordsWithQuerier(ctx, s.querier(), collection, filename)
}

// getVectorRecordsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getVectorRecordsWithQuerier(ctx context.Context, q querier, chunkIDs []string) (map[string]*VectorRecord, error) {
	if len(chunkIDs) == 0 {
		return map[string]*VectorRecord{}, nil
	}

	// Build parameterized IN clause
	placeholders := make([]string, len(chunkIDs))
	args := make([]interface{}, len(chunkIDs))
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT chunk_id, collection, filename, chunk_index, section, content, embedding, dimension, created_at
		FROM vector_records
		WHERE chunk_id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]*VectorRecord, len(chunkIDs))
	for rows.Next() {
		var rec VectorRecord
		var section sql.NullString
		err := rows.Scan(&rec.ChunkID, &rec.Collection, &rec.Filename, &rec.ChunkIndex,
			&section, &rec.Content, &rec.Embedding, &rec.Dimension, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		if section.Valid {
			rec.Section = section.String
		}
		records[rec.ChunkID] = &rec
	}
	return records, rows.Err()
}

func (s *SQLiteStore) GetVectorRecords(ctx context.Context, chunkIDs []string) (map[string]*VectorRecord, error) {
	return s.getVectorRecordsWithQuerier(ctx, s.querier(), chunkIDs)
}

// Keyword operations

// insertKeywordRecordWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertKeywordRecordWithQuerier(ctx context.Context, q querier, rec *KeywordRecord) error {
	query := `
		INSERT INTO keyword_records (chunk_id, collection, filename, chunk_index, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		rec.ChunkID, rec.Collection, rec.Filename, rec.ChunkIndex, rec.Content, now)
	if err != nil {
		return fmt.Errorf("failed to insert keyword record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

func (s *SQLiteStore) InsertKeywordRecord(ctx context.Context, rec *KeywordRecord) error {
	return s.insertKeywordRecordWithQuerier(ctx, s.querier(), rec)
}

// deleteKeywordRecordsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteKeywordRecordsWithQuerier(ctx context.Context, q querier, collection, filename string) error {
	query := `DELETE FROM keyword_records WHERE collection = ? AND filename = ?`
	_, err := q.ExecContext(ctx, query, collection, filename)
	return err
}

func (s *SQLiteStore) DeleteKeywordRecords(ctx context.Context, collection, filename string) error {
	return s.deleteKeywordRecordsWithQuerier(ctx, s.querier(), collection, filename)
}

// Search operations

func (s *SQLiteStore) SearchVector(ctx context.Context, collections []string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.db, collections, vector, limit, filters)
}

func (s *SQLiteStore) SearchKeyword(ctx context.Context, collections []string, query string, limit int) ([]KeywordResult, error) {
	return searchKeyword(ctx, s.db, collections, query, limit)
}

// Collection operations

// listPartitionsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listPartitionsWithQuerier(ctx context.Context, q querier) ([]string, error) {
	query := `SELECT DISTINCT collection FROM vector_records ORDER BY collection`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	partitions := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		partitions = append(partitions, name)
	}
	return partitions, rows.Err()
}

func (s *SQLiteStore) ListPartitions(ctx context.Context) ([]string, error) {
	return s.listPartitionsWithQuerier(ctx, s.querier())
}

// listCollectionsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listCollectionsWithQuerier(ctx context.Context, q querier) ([]CollectionInfo, error) {
	query := `
		SELECT d.collection, COUNT(DISTINCT d.id), COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.collection
		ORDER BY d.collection
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	infos := make([]CollectionInfo, 0)
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Documents, &info.Chunks); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	return s.listCollectionsWithQuerier(ctx, s.querier())
}

// Document content reassembly

// getDocumentContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getDocumentContentWithQuerier(ctx context.Context, q querier, collection, filename string) (string, error) {
	query := `
		SELECT content FROM vector_records
		WHERE collection = ? AND filename = ?
		ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, collection, filename)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	parts := make([]string, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", ErrNotFound
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *SQLiteStore) GetDocumentContent(ctx context.Context, collection, filename string) (string, error) {
	return s.getDocumentContentWithQuerier(ctx, s.querier(), collection, filename)
}

// Semantic cache operations

// getCachedResponseWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getCachedResponseWithQuerier(ctx context.Context, q querier, queryHash string) (*CachedResponse, error) {
	query := `SELECT query_hash, response, created_at FROM semantic_cache WHERE query_hash = ?`
	var cached CachedResponse
	err := q.QueryRowContext(ctx, query, queryHash).Scan(&cached.QueryHash, &cached.Response, &cached.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cached, nil
}

func (s *SQLiteStore) GetCachedResponse(ctx context.Context, queryHash string) (*CachedResponse, error) {
	return s.getCachedResponseWithQuerier(ctx, s.querier(), queryHash)
}

// putCachedResponseWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) putCachedResponseWithQuerier(ctx context.Context, q querier, queryHash, response string) error {
	query := `
		INSERT INTO semantic_cache (query_hash, response, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			response = excluded.response,
			created_at = excluded.created_at
	`
	_, err := q.ExecContext(ctx, query, queryHash, response, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PutCachedResponse(ctx context.Context, queryHash, response string) error {
	return s.putCachedResponseWithQuerier(ctx, s.querier(), queryHash, response)
}

// pruneCachedResponsesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) pruneCachedResponsesWithQuerier(ctx context.Context, q querier, olderThan time.Time) (int, error) {
	query := `DELETE FROM semantic_cache WHERE created_at < ?`
	result, err := q.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (s *SQLiteStore) PruneCachedResponses(ctx context.Context, olderThan time.Time) (int, error) {
	return s.pruneCachedResponsesWithQuerier(ctx, s.querier(), olderThan)
}

// Status operations

func (s *SQLiteStore) GetStats(ctx context.Context) (*IndexStats, error) {
	stats := &IndexStats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM chunks", &stats.Chunks},
		{"SELECT COUNT(*) FROM vector_records", &stats.Vectors},
		{"SELECT COUNT(*) FROM keyword_records", &stats.Keywords},
		{"SELECT COUNT(DISTINCT collection) FROM documents", &stats.Collections},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	// Calculate database size
	var pageCount, pageSize int
	err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return stats, nil
}

// Transaction implementations

// Write operations use the internal helper that uses querier();
// search operations delegate to the store since they are read-only.

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *types.Document) error {
	return t.store.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, collection, filename string) (*types.Document, error) {
	return t.store.getDocumentWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error) {
	return t.store.getDocumentByIDWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, collection, filename string) error {
	return t.store.deleteDocumentWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) RemoveDocument(ctx context.Context, collection, filename string) error {
	return t.store.removeDocumentWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, collection string) ([]*types.Document, error) {
	return t.store.listDocumentsWithQuerier(ctx, t.querier(), collection)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return t.store.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error) {
	return t.store.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return t.store.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return t.store.deleteChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) InsertVectorRecord(ctx context.Context, rec *VectorRecord) error {
	return t.store.insertVectorRecordWithQuerier(ctx, t.querier(), rec)
}

func (t *sqliteTx) DeleteVectorRecords(ctx context.Context, collection, filename string) error {
	return t.store.deleteVectorRecordsWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) GetVectorRecords(ctx context.Context, chunkIDs []string) (map[string]*VectorRecord, error) {
	return t.store.getVectorRecordsWithQuerier(ctx, t.querier(), chunkIDs)
}

func (t *sqliteTx) InsertKeywordRecord(ctx context.Context, rec *KeywordRecord) error {
	return t.store.insertKeywordRecordWithQuerier(ctx, t.querier(), rec)
}

func (t *sqliteTx) DeleteKeywordRecords(ctx context.Context, collection, filename string) error {
	return t.store.deleteKeywordRecordsWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) SearchVector(ctx context.Context, collections []string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return t.store.SearchVector(ctx, collections, vector, limit, filters)
}

func (t *sqliteTx) SearchKeyword(ctx context.Context, collections []string, query string, limit int) ([]KeywordResult, error) {
	return t.store.SearchKeyword(ctx, collections, query, limit)
}

func (t *sqliteTx) ListPartitions(ctx context.Context) ([]string, error) {
	return t.store.listPartitionsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	return t.store.listCollectionsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetDocumentContent(ctx context.Context, collection, filename string) (string, error) {
	return t.store.getDocumentContentWithQuerier(ctx, t.querier(), collection, filename)
}

func (t *sqliteTx) GetCachedResponse(ctx context.Context, queryHash string) (*CachedResponse, error) {
	return t.store.getCachedResponseWithQuerier(ctx, t.querier(), queryHash)
}

func (t *sqliteTx) PutCachedResponse(ctx context.Context, queryHash, response string) error {
	return t.store.putCachedResponseWithQuerier(ctx, t.querier(), queryHash, response)
}

func (t *sqliteTx) PruneCachedResponses(ctx context.Context, olderThan time.Time) (int, error) {
	return t.store.pruneCachedResponsesWithQuerier(ctx, t.querier(), olderThan)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*IndexStats, error) {
	return t.store.GetStats(ctx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	// We return an error to prevent accidental misuse
	// If savepoints are needed in the future, implement here
	return nil, errors.New("nested transactions not supported")
}
