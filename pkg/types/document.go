package types

import (
	"errors"
	"time"
)

// DocumentStatus marks whether a document's indexed content is current.
type DocumentStatus string

const (
	DocumentActive DocumentStatus = "active"
	DocumentStale  DocumentStatus = "stale"
)

// Document is the bookkeeping record for one ingested file. At most one
// active Document exists per (collection, filename) pair; reprocessing
// updates the row in place after its old chunks have been invalidated.
type Document struct {
	// Identification
	ID         int64
	Collection string
	Filename   string

	// Change detection
	FileHash  string // hex SHA-256 of file content
	FileMtime int64  // modification time, Unix nanoseconds

	// Bookkeeping
	LastProcessed time.Time
	Status        DocumentStatus
}

// Validate checks the document's required fields.
func (d *Document) Validate() error {
	if d.Collection == "" {
		return errors.New("document collection cannot be empty")
	}
	if d.Filename == "" {
		return errors.New("document filename cannot be empty")
	}
	if d.FileHash == "" {
		return errors.New("document file hash must be computed")
	}
	switch d.Status {
	case DocumentActive, DocumentStale:
		return nil
	default:
		return errors.New("invalid document status")
	}
}
