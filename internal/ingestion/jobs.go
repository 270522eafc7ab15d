package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"

	"github.com/jonathan/job-tailor/internal/fetch"
	"golang.org/x/sync/errgroup"
)

// ErrNoJobInput is returned when neither job URLs nor a job text file were given
var ErrNoJobInput = errors.New("provide job URLs or a job text file")

// JobTextSource labels a job posting read from a file
const JobTextSource = "job"

// Job is one posting to tailor against. Source is the URL, or "job" for a text file.
type Job struct {
	Source string
	Text   string
}

// Options configures job loading
type Options struct {
	Fetch       *fetch.Options
	UseBrowser  bool
	Verbose     bool
	Concurrency int
}

// LoadJobTexts returns the postings to process. A job text file takes
// precedence over URLs. URLs are fetched concurrently and returned in the
// order given.
func LoadJobTexts(ctx context.Context, urls []string, jobTextFile string, opts Options) ([]Job, error) {
	if jobTextFile != "" {
		data, err := os.ReadFile(jobTextFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read job text file: %w", err)
		}
		return []Job{{Source: JobTextSource, Text: string(data)}}, nil
	}
	if len(urls) == 0 {
		return nil, ErrNoJobInput
	}

	jobs := make([]Job, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, raw := range urls {
		url := CleanURL(raw)
		if url != raw {
			log.Printf("[WARN] job URL contained whitespace; cleaned it before fetching: %s", url)
		}
		g.Go(func() error {
			text, err := fetch.PageText(gctx, url, opts.Fetch, opts.UseBrowser, opts.Verbose)
			if err != nil {
				return err
			}
			if opts.Verbose {
				log.Printf("[VERBOSE] Fetched %s: %d chars", url, len(text))
			}
			jobs[i] = Job{Source: url, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CleanURL removes all whitespace from a URL, which copy-pasted links often contain
func CleanURL(url string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, url)
}
