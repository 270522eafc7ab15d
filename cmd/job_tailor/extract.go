package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-tailor/internal/llm"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Extract the JSON object from a model response",
	Long: `Recovers the first JSON object from free-form model output (fenced code blocks,
leading prose or trailing commentary) and prints it as indented JSON. Use - for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	record, err := llm.ExtractObject(string(data))
	if err != nil {
		return err
	}
	out, err := record.Indent()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out)) //nolint:errcheck
	return nil
}
