package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-tailor/internal/rendering"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render <markdown-file>",
	Short: "Render a Markdown file to PDF",
	Long:  `Lays out a Markdown CV or cover letter with the same renderer the pipeline uses.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output PDF path (defaults to the input path with a .pdf extension)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	markdown, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	output := renderOutput
	if output == "" {
		output = pdfPathFor(input)
	}
	if err := rendering.RenderPDFFile(string(markdown), output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", output) //nolint:errcheck
	return nil
}

// pdfPathFor swaps the extension of path for .pdf
func pdfPathFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
}
