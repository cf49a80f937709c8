package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhartley/docdex/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetect_NewFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md", "hello\n")

	d, err := Detect(path, nil)

	require.NoError(t, err)
	assert.Equal(t, Changed, d.State)
	assert.Len(t, d.FileHash, 64)
	assert.NotZero(t, d.FileMtime)
}

func TestDetect_MtimeFastPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md", "hello\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	known := &types.Document{
		FileHash:  "recorded-hash",
		FileMtime: info.ModTime().UnixNano(),
	}

	d, err := Detect(path, known)

	require.NoError(t, err)
	assert.Equal(t, Unchanged, d.State)
	// The fast path never reads the file; the recorded hash is carried over.
	assert.Equal(t, "recorded-hash", d.FileHash)
}

func TestDetect_TouchWithoutEdit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md", "hello\n")

	hash, err := HashFile(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	known := &types.Document{FileHash: hash, FileMtime: info.ModTime().UnixNano()}

	// Bump the mtime without changing the bytes.
	touched := info.ModTime().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, touched, touched))

	d, err := Detect(path, known)

	require.NoError(t, err)
	assert.Equal(t, Unchanged, d.State)
	assert.Equal(t, hash, d.FileHash)
	assert.Equal(t, touched.UnixNano(), d.FileMtime)
}

func TestDetect_ContentChanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.md", "hello\n")

	oldHash, err := HashFile(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	known := &types.Document{FileHash: oldHash, FileMtime: info.ModTime().UnixNano()}

	writeFile(t, dir, "note.md", "hello!\n")
	// Force the mtime past the fast path in case the writes land within
	// the filesystem's timestamp resolution.
	bumped := info.ModTime().Add(time.Second)
	require.NoError(t, os.Chtimes(path, bumped, bumped))

	d, err := Detect(path, known)

	require.NoError(t, err)
	assert.Equal(t, Changed, d.State)
	assert.NotEqual(t, oldHash, d.FileHash)
}

func TestDetect_MissingFile(t *testing.T) {
	_, err := Detect(filepath.Join(t.TempDir(), "gone.md"), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTransientIO))
}

func TestHashFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md", "hello\n")

	hash, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03", hash)

	again, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "gone.md"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTransientIO))
}
