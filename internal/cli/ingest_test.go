package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd(t *testing.T) {
	root := setupIndex(t)
	writeDoc(t, root, "notes", "garden.md", "# Garden\n\nWater the plants every Tuesday evening.")

	out, err := execute(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "processed: 1")
	assert.Contains(t, out, "errored:   0")

	// Unchanged files are skipped on the next run.
	out, err = execute(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "processed: 0")
	assert.Contains(t, out, "skipped:   1")
}

func TestIngestCmd_JSON(t *testing.T) {
	root := setupIndex(t)
	writeDoc(t, root, "notes", "garden.md", "Water the plants every Tuesday evening.")
	t.Cleanup(func() { ingestJSON = false })

	out, err := execute(t, "ingest", "--json")
	require.NoError(t, err)

	summary := executeJSON(t, out)
	assert.EqualValues(t, 1, summary["files_processed"])
	assert.EqualValues(t, 0, summary["files_errored"])
	assert.NotEmpty(t, summary["run_id"])
}

func TestIngestCmd_EmptyRoot(t *testing.T) {
	setupIndex(t)

	out, err := execute(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "processed: 0")
}
