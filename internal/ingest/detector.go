package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/jmhartley/docdex/pkg/types"
)

// hashBufSize is the read size for streamed hashing. Files are hashed in
// fixed-size reads so large documents never load fully into memory.
const hashBufSize = 128 * 1024

// State classifies one file against its recorded document row.
type State int

const (
	// Unchanged means the indexed content is current; the file is skipped.
	Unchanged State = iota
	// Changed means the file is new or its bytes differ; it is reprocessed.
	Changed
)

// Decision is the outcome of change detection for one file.
type Decision struct {
	State State

	// FileHash is the hex SHA-256 of the current content. Carried over from
	// the document row when the mtime fast path decided without reading.
	FileHash string

	// FileMtime is the current modification time in Unix nanoseconds.
	FileMtime int64
}

// Detect compares a file against its recorded document row. Equal mtime
// decides Unchanged without reading the file; otherwise the content is
// hashed and compared, so a touch without an edit still skips. known is
// nil for files never seen before.
func Detect(path string, known *types.Document) (Decision, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: stat %s: %v", types.ErrTransientIO, path, err)
	}
	mtime := info.ModTime().UnixNano()

	if known != nil && known.FileMtime == mtime {
		return Decision{State: Unchanged, FileHash: known.FileHash, FileMtime: mtime}, nil
	}

	hash, err := HashFile(path)
	if err != nil {
		return Decision{}, err
	}

	if known != nil && known.FileHash == hash {
		return Decision{State: Unchanged, FileHash: hash, FileMtime: mtime}, nil
	}
	return Decision{State: Changed, FileHash: hash, FileMtime: mtime}, nil
}

// HashFile computes the hex SHA-256 of the file content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrTransientIO, path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashBufSize)); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", types.ErrTransientIO, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
