package server

import (
	"context"
	"fmt"

	"github.com/jonathan/job-tailor/internal/ingestion"
	"github.com/jonathan/job-tailor/internal/llm"
	"github.com/jonathan/job-tailor/internal/pipeline"
)

// ClientFactory builds a generation client for a model
type ClientFactory func(ctx context.Context, model string) (llm.Client, error)

// GeminiClientFactory returns a factory for Gemini clients using apiKey
func GeminiClientFactory(apiKey string) ClientFactory {
	return func(ctx context.Context, model string) (llm.Client, error) {
		return llm.NewClient(ctx, llm.DefaultConfig().WithModel(model), apiKey)
	}
}

// PipelineTailorer loads the uploaded inputs and runs the tailoring pipeline
type PipelineTailorer struct {
	NewClient  ClientFactory
	Recorder   pipeline.Recorder
	Publisher  pipeline.Publisher
	UseBrowser bool
}

// Tailor implements Tailorer
func (t *PipelineTailorer) Tailor(ctx context.Context, req RunRequest, onProgress pipeline.ProgressCallback) ([]string, error) {
	cvText, err := ingestion.LoadCVText(req.CVPath)
	if err != nil {
		return nil, err
	}

	var urls []string
	if req.JobURL != "" {
		urls = []string{req.JobURL}
	}
	jobs, err := ingestion.LoadJobTexts(ctx, urls, req.JobTextFile, ingestion.Options{
		UseBrowser: t.UseBrowser,
		Verbose:    !req.Quiet,
	})
	if err != nil {
		return nil, err
	}

	runner := &pipeline.Runner{Recorder: t.Recorder, Publisher: t.Publisher}
	if !req.DryRun {
		if t.NewClient == nil {
			return nil, pipeline.ErrNoClient
		}
		client, err := t.NewClient(ctx, req.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close() //nolint:errcheck
		runner.Client = client
	}

	return runner.Tailor(ctx, pipeline.Options{
		CVText:             cvText,
		Jobs:               jobs,
		OutDir:             req.OutDir,
		Temperature:        req.Temperature,
		DryRun:             req.DryRun,
		MakePDF:            req.MakePDF,
		Verbose:            !req.Quiet,
		DebugArtifacts:     req.DebugArtifacts,
		IncludeCoverLetter: req.IncludeCoverLetter,
		OnProgress:         onProgress,
	})
}
