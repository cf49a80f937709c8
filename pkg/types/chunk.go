package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Chunk represents one retrievable span of document text.
type Chunk struct {
	// Identification
	ID         string // deterministic, see ChunkID
	DocumentID int64
	Collection string
	Filename   string

	// Content
	Content     string
	ContentHash [32]byte // SHA-256 of Content

	// Position
	Index   int    // sequence index within the document
	Section string // nearest enclosing header text, may be empty
}

// ChunkID derives the stable identifier for the chunk at the given
// structural position. The ID depends only on the file name and the
// (parent, child) indices, never on timing or content, so re-ingesting a
// file yields the same IDs and delete-then-reinsert stays idempotent.
func ChunkID(filename string, parentIdx, childIdx int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s::%d::%d", filename, parentIdx, childIdx)))
	return hex.EncodeToString(sum[:])
}

// ComputeContentHash computes the SHA-256 hash of the chunk content.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// Validate performs comprehensive validation of the chunk.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrInvalidChunkID
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.Index < 0 {
		return errors.New("chunk index must be >= 0")
	}
	if c.Filename == "" || c.Collection == "" {
		return errors.New("chunk must carry filename and collection")
	}

	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
