package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path...]", ingestCmd.Use)
	assert.Contains(t, ingestCmd.Long, "Supported formats")
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	_, err := executeCommand(t, "ingest")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_Directory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.md"))
	writeTestFile(t, filepath.Join(dir, "image.png"))
	writeTestFile(t, filepath.Join(dir, ".hidden.md"))
	writeTestFile(t, filepath.Join(dir, "sub", "b.txt"))

	out, err := executeCommand(t, "ingest", dir)

	require.NoError(t, err)
	require.Len(t, ts.ingest.batches, 1)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "sub", "b.txt"),
	}, ts.ingest.batches[0])
	assert.Contains(t, out, "Ingesting 2 file(s)")
	assert.Contains(t, out, "✓ Test Document 1 (2 chunks, id doc-1)")
	assert.Contains(t, out, "Ingested 2 of 2 file(s)")
}

func TestIngestCmd_NonRecursive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { ingestRecursive = true }()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.md"))
	writeTestFile(t, filepath.Join(dir, "sub", "b.txt"))

	_, err := executeCommand(t, "ingest", "--recursive=false", dir)

	require.NoError(t, err)
	require.Len(t, ts.ingest.batches, 1)
	assert.Equal(t, []string{filepath.Join(dir, "a.md")}, ts.ingest.batches[0])
}

func TestIngestCmd_ExplicitFileAndURI(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	file := filepath.Join(dir, "notes.md")
	writeTestFile(t, file)

	_, err := executeCommand(t, "ingest", "file://"+file)

	require.NoError(t, err)
	require.Len(t, ts.ingest.batches, 1)
	assert.Equal(t, []string{file}, ts.ingest.batches[0])
}

func TestIngestCmd_EmptyDirectory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "ingest", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "No supported files found.")
	assert.Empty(t, ts.ingest.batches)
}

func TestIngestCmd_MissingPath(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "ingest", "/non/existent/file.md")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read /non/existent/file.md")
}

func TestIngestCmd_PartialFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.IngestBatchFunc = func(_ context.Context, paths []string) []driving.IngestResult {
		return []driving.IngestResult{
			{Path: paths[0], Document: testDocument(), Chunks: 1},
			{Path: paths[1], Err: errors.Join(domain.ErrCorruptFile, errors.New("bad xref table"))},
		}
	}

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.md"))
	writeTestFile(t, filepath.Join(dir, "b.pdf"))

	out, err := executeCommand(t, "ingest", dir)

	require.Error(t, err)
	assert.Equal(t, "1 file(s) failed to ingest", err.Error())
	assert.Contains(t, out, "✗ b.pdf:")
	assert.Contains(t, out, "Ingested 1 of 2 file(s)")
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	ingestService = nil

	_, err := executeCommand(t, "ingest", "x.md")

	assert.EqualError(t, err, "ingest service not configured")
}
