// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jonathan/job-tailor/internal/llm"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func clip(line string, width int) string {
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width-3]) + "..."
}

// writeList appends up to limit items under a heading
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintJobTarget outputs a summary of the parsed job posting.
func (p *Printer) PrintJobTarget(job *llm.Record) {
	if job == nil || job.Len() == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", job.Label("company", "unknown")))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", job.Label("title", "unknown")))
	if location := job.String("location"); location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", location))
	}
	sb.WriteString("\n")

	writeList(&sb, "Must have", job.StringSlice("must_have"), maxItemsToShow)
	writeList(&sb, "Nice to have", job.StringSlice("nice_to_have"), 3)
	writeList(&sb, "Top keywords", job.StringSlice("keywords_ranked"), maxItemsToShow)

	p.printBox("PARSED JOB TARGET", strings.TrimRight(sb.String(), "\n"))
}

// PrintAudit outputs the findings of an ATS audit.
func (p *Printer) PrintAudit(audit *llm.Record) {
	if audit == nil {
		return
	}

	var sb strings.Builder
	writeList(&sb, "Missing keywords", audit.StringSlice("missing_keywords"), maxItemsToShow)
	writeList(&sb, "Formatting risks", audit.StringSlice("formatting_risks"), maxItemsToShow)
	writeList(&sb, "Proposed edits", audit.StringSlice("proposed_edits"), maxItemsToShow)
	if sb.Len() == 0 {
		sb.WriteString("No findings\n")
	}

	p.printBox("ATS AUDIT", strings.TrimRight(sb.String(), "\n"))
}

// PrintCreated lists the files written for a job.
func (p *Printer) PrintCreated(paths []string) {
	if len(paths) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Directory: %s\n\n", filepath.Dir(paths[0])))
	for _, path := range paths {
		sb.WriteString(fmt.Sprintf("  ✓ %s\n", filepath.Base(path)))
	}

	p.printBox(fmt.Sprintf("CREATED FILES (%d)", len(paths)), strings.TrimRight(sb.String(), "\n"))
}
