package rendering

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF_ProducesPDF(t *testing.T) {
	data, err := RenderPDF("# Jane Doe\n\n## Experience\n- Built things – fast\nBody text")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderPDF_ManyLinesPaginates(t *testing.T) {
	md := strings.Repeat("- a bullet that repeats on every line\n", 200)
	data, err := RenderPDF(md)
	require.NoError(t, err)
	// One "/Type /Pages" node plus a "/Type /Page" per page
	assert.Greater(t, bytes.Count(data, []byte("/Type /Page")), 2)
}

func TestRenderPDF_LongTokenAndUnicode(t *testing.T) {
	md := "Portfolio: https://example.com/" + strings.Repeat("z", 300) + "\nCafé ✓ résumé"
	_, err := RenderPDF(md)
	assert.NoError(t, err)
}

func TestRenderPDFFile_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cv.pdf")

	err := RenderPDFFile("# CV", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderPDFFile_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := RenderPDFFile("# CV", filepath.Join(blocker, "cv.pdf"))
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, renderErr.Error(), "render error")
	assert.NotNil(t, renderErr.Unwrap())
}
