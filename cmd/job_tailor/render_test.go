package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPdfPathFor(t *testing.T) {
	assert.Equal(t, "out/acme_quant_cv.pdf", pdfPathFor("out/acme_quant_cv.md"))
	assert.Equal(t, "notes.pdf", pdfPathFor("notes"))
	assert.Equal(t, "a.b/c.pdf", pdfPathFor("a.b/c.txt"))
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cv.md")
	require.NoError(t, os.WriteFile(input, []byte("# Jane Doe\n\n## Experience\n- Built pricing engines\n"), 0644))

	t.Run("default output path", func(t *testing.T) {
		renderOutput = ""
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)

		require.NoError(t, runRender(cmd, []string{input}))

		want := filepath.Join(dir, "cv.pdf")
		assert.Equal(t, "Created: "+want+"\n", out.String())
		data, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	})

	t.Run("explicit output path", func(t *testing.T) {
		want := filepath.Join(dir, "custom.pdf")
		renderOutput = want
		t.Cleanup(func() { renderOutput = "" })
		cmd := &cobra.Command{}
		cmd.SetOut(&bytes.Buffer{})

		require.NoError(t, runRender(cmd, []string{input}))
		assert.FileExists(t, want)
	})

	t.Run("missing input", func(t *testing.T) {
		renderOutput = ""
		cmd := &cobra.Command{}
		err := runRender(cmd, []string{filepath.Join(dir, "missing.md")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})
}
