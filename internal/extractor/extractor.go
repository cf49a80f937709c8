package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmhartley/docdex/internal/collection"
	"github.com/jmhartley/docdex/pkg/types"
)

// sniffWindow is how many leading bytes are inspected for binary content.
const sniffWindow = 1024

// textExtensions are the file types read natively as plain text. Formats
// that need an external converter (PDF, audio, images) are never picked up
// by discovery.
var textExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".json":     {},
	".csv":      {},
	".log":      {},
	".yaml":     {},
	".yml":      {},
	".ics":      {},
}

// ignoredDirs are directory names never descended into during discovery.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"venv":         {},
	"__pycache__":  {},
	".trash":       {},
	"models":       {},
}

// FileTask is one discovered file pending ingestion. Collection is the
// sanitized partition name of the file's top-level folder; Filename is the
// base name, which together with Collection identifies the document.
type FileTask struct {
	Path       string
	Collection string
	Filename   string
}

// Supported reports whether the path's extension is readable as text.
func Supported(path string) bool {
	_, ok := textExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IgnoredDir reports whether a directory name is pruned during discovery.
func IgnoredDir(name string) bool {
	_, skip := ignoredDirs[name]
	return skip
}

// Discover walks the ingest root and returns the pending file tasks. The
// root holds one subdirectory per collection; hidden and ignored
// directories are pruned, hidden files and unsupported extensions are
// passed over. Order is deterministic (lexical walk).
func Discover(root string) ([]FileTask, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read ingest root: %w", err)
	}

	var tasks []FileTask
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || IgnoredDir(name) {
			continue
		}

		col := collection.Sanitize(name)
		base := filepath.Join(root, name)

		err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == base {
					return nil
				}
				if strings.HasPrefix(d.Name(), ".") || IgnoredDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || !Supported(path) {
				return nil
			}
			tasks = append(tasks, FileTask{
				Path:       path,
				Collection: col,
				Filename:   d.Name(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk collection %s: %w", name, err)
		}
	}
	return tasks, nil
}

// Extractor turns a filesystem entry into a plain-text payload.
type Extractor struct {
	maxFileSize int64
}

// New creates an Extractor. Files larger than maxFileSize are rejected;
// zero means no limit.
func New(maxFileSize int64) *Extractor {
	return &Extractor{maxFileSize: maxFileSize}
}

// Extract reads the file and returns its text. Unreadable files map to
// ErrTransientIO; binary (null byte in the first window), empty, and
// oversized files map to ErrUnsupportedContent so they are skipped without
// being recorded as processed.
func (e *Extractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrTransientIO, path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", types.ErrTransientIO, path, err)
	}
	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", types.ErrUnsupportedContent, path, e.maxFileSize)
	}

	head := make([]byte, sniffWindow)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%w: read %s: %v", types.ErrTransientIO, path, err)
	}
	head = head[:n]
	if bytes.IndexByte(head, 0) >= 0 {
		return "", fmt.Errorf("%w: binary file %s", types.ErrUnsupportedContent, path)
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", types.ErrTransientIO, path, err)
	}

	text := string(head) + string(rest)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty file %s", types.ErrUnsupportedContent, path)
	}
	return text, nil
}
