// Package main provides the job_tailor command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_tailor",
	Short: "Tailor a CV and cover letter to job postings",
	Long: `job_tailor turns a base CV and one or more job postings into a tailored,
ATS-friendly CV (and optionally a cover letter) as Markdown and PDF.

Examples:
  job_tailor tailor --cv-file base_cv.pdf --job-url https://... --job-url https://...
  job_tailor tailor --cv-file base_cv.md --job-text-file job.txt
  job_tailor tailor --cv-file base_cv.md --job-url https://... --cv-only
  job_tailor serve --port 8000`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
