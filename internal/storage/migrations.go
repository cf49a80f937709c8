package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion is the version the newest migration leaves
	// the schema at.
	CurrentSchemaVersion = "0.3.0"
)

// Migration pairs the SQL that applies a schema change with the SQL
// that undoes it.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations lists every migration in apply order.
var AllMigrations = []Migration{
	{
		Version: "0.1.0",
		Up:      migrationCoreUp,
		Down:    migrationCoreDown,
	},
	{
		Version: "0.2.0",
		Up:      migrationKeywordUp,
		Down:    migrationKeywordDown,
	},
	{
		Version: "0.3.0",
		Up:      migrationCacheUp,
		Down:    migrationCacheDown,
	},
}

const migrationCoreUp = `
-- Applied migration versions
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Documents table: one row per (collection, filename)
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL,
    filename TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    file_mtime INTEGER NOT NULL,
    last_processed TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'active',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(collection, filename)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

-- Chunks table: stable text ids, cascade-deleted with their document
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    document_id INTEGER NOT NULL,
    vector_ref TEXT,
    content_hash TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    section TEXT,
    metadata TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_order ON chunks(document_id, chunk_index);

-- Vector records: denormalized content + embedding, partitioned by collection
CREATE TABLE IF NOT EXISTS vector_records (
    chunk_id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    filename TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    section TEXT,
    content TEXT NOT NULL,
    embedding BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vectors_collection ON vector_records(collection);
CREATE INDEX IF NOT EXISTS idx_vectors_file ON vector_records(collection, filename);
`

const migrationCoreDown = `
DROP TABLE IF EXISTS vector_records;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS documents;
DROP TABLE IF EXISTS schema_version;
`

const migrationKeywordUp = `
-- Keyword records: single corpus-wide index with filter columns
CREATE TABLE IF NOT EXISTS keyword_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_id TEXT NOT NULL,
    collection TEXT NOT NULL,
    filename TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_keywords_file ON keyword_records(collection, filename);
CREATE INDEX IF NOT EXISTS idx_keywords_chunk ON keyword_records(chunk_id);

-- Full-text search over keyword record content
CREATE VIRTUAL TABLE IF NOT EXISTS keyword_fts USING fts5(
    content,
    content='keyword_records',
    content_rowid='id'
);

-- Triggers keep FTS in sync; external-content tables require the
-- 'delete' command form, a plain DELETE corrupts the index.
CREATE TRIGGER IF NOT EXISTS keyword_records_ai AFTER INSERT ON keyword_records BEGIN
    INSERT INTO keyword_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS keyword_records_ad AFTER DELETE ON keyword_records BEGIN
    INSERT INTO keyword_fts(keyword_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS keyword_records_au AFTER UPDATE ON keyword_records BEGIN
    INSERT INTO keyword_fts(keyword_fts, rowid, content) VALUES ('delete', old.id, old.content);
    INSERT INTO keyword_fts(rowid, content) VALUES (new.id, new.content);
END;
`

const migrationKeywordDown = `
DROP TRIGGER IF EXISTS keyword_records_au;
DROP TRIGGER IF EXISTS keyword_records_ad;
DROP TRIGGER IF EXISTS keyword_records_ai;

DROP TABLE IF EXISTS keyword_fts;
DROP TABLE IF EXISTS keyword_records;
`

const migrationCacheUp = `
-- Persisted semantic cache for context-free query responses
CREATE TABLE IF NOT EXISTS semantic_cache (
    query_hash TEXT PRIMARY KEY,
    response TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cache_created ON semantic_cache(created_at);
`

const migrationCacheDown = `
DROP TABLE IF EXISTS semantic_cache;
`

// ApplyMigrations brings the schema up to CurrentSchemaVersion, running
// every migration newer than the highest version already on record.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range AllMigrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", m.Version, err)
		}
		if !current.LessThan(v) {
			continue
		}

		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		current = v
	}
	return nil
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	current, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}
	if current.Equal(versionZero) {
		return fmt.Errorf("no migrations to rollback")
	}

	var target *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == current.String() {
			target = &AllMigrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %s not found", current)
	}

	if _, err := db.ExecContext(ctx, target.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", current, err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", current.String()); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", current, err)
	}
	return nil
}

var versionZero = semver.MustParse("0.0.0")

// appliedVersion reports the highest schema version on record, or 0.0.0
// for a database with no schema_version table yet. Several rows can land
// within the same applied_at second, so versions compare as semver
// rather than by timestamp.
func appliedVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	if err == sql.ErrNoRows {
		return versionZero, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer func() { _ = rows.Close() }()

	highest := versionZero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan schema_version: %w", err)
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded schema version %s: %w", raw, err)
		}
		if v.GreaterThan(highest) {
			highest = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return highest, nil
}
