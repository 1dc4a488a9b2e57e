package loaders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestForFileByExtension(t *testing.T) {
	loader, err := ForFile("/data/notes.txt")
	require.NoError(t, err)
	assert.IsType(t, &TxtLoader{}, loader)

	loader, err = ForFile("/data/server.LOG")
	require.NoError(t, err)
	assert.IsType(t, &TxtLoader{}, loader)

	loader, err = ForFile("/data/readme.md")
	require.NoError(t, err)
	assert.IsType(t, &MarkdownLoader{}, loader)

	loader, err = ForFile("/data/paper.pdf")
	require.NoError(t, err)
	assert.IsType(t, &PdfLoader{}, loader)
}

func TestForFileSniffsUnknownExtension(t *testing.T) {
	path := writeTempFile(t, "notes.dat", "just plain text content here")

	loader, err := ForFile(path)
	require.NoError(t, err)
	assert.IsType(t, &TxtLoader{}, loader)
}

func TestForFileRejectsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, 0o644))

	_, err := ForFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestTxtLoader(t *testing.T) {
	path := writeTempFile(t, "note.txt", "line one\nline two\n")

	doc, err := NewTxtLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.SourceID, "the path is the stable source identity")
	assert.Equal(t, "line one\nline two\n", doc.Text)
	assert.Equal(t, "document", doc.SourceType)
	assert.Equal(t, "note.txt", doc.Metadata[schema.MetadataKeyFileName])
}

func TestMarkdownLoaderUsesHeadingAsTitle(t *testing.T) {
	path := writeTempFile(t, "plan.md", "intro paragraph\n\n# Quarterly Plan\n\ncontent\n")

	doc, err := NewMarkdownLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "note", doc.SourceType)
	assert.Equal(t, "Quarterly Plan", doc.Metadata[schema.MetadataKeyFileName])
}

func TestMarkdownLoaderFallsBackToFileName(t *testing.T) {
	path := writeTempFile(t, "untitled.md", "no heading here\n## only a subheading\n")

	doc, err := NewMarkdownLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "untitled.md", doc.Metadata[schema.MetadataKeyFileName])
}

func TestTxtLoaderMissingFile(t *testing.T) {
	_, err := NewTxtLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
