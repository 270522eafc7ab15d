// Package pipeline orchestrates tailoring a CV (and cover letter) to job postings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-tailor/internal/ingestion"
	"github.com/jonathan/job-tailor/internal/llm"
	"github.com/jonathan/job-tailor/internal/observability"
	"github.com/jonathan/job-tailor/internal/outputs"
	"github.com/jonathan/job-tailor/internal/prompts"
	"github.com/jonathan/job-tailor/internal/rendering"
)

// Step names reported in logs and progress events
const (
	StepDryRun         = "Generate output (dry run)"
	StepParseCandidate = "Parse candidate CV"
	StepParseJob       = "Parse job description"
	StepMapping        = "Build mapping table"
	StepDraftCV        = "Draft CV"
	StepATSAudit       = "ATS audit"
	StepCoverLetter    = "Draft cover letter"
	StepWriteOutputs   = "Write outputs"
	StepRenderPDFs     = "Render PDFs"
	StepJobComplete    = "Job complete"
)

const (
	dryRunPreviewLines  = 40
	unknownCompanyLabel = "unknown-company"
	unknownRoleLabel    = "unknown-role"
)

// ErrNoClient is returned when a non-dry run has no generation client
var ErrNoClient = errors.New("generation client is required unless dry run is enabled")

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Job     string `json:"job"`
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Recorder persists a finished job. db.DB implements it.
type Recorder interface {
	RecordJob(ctx context.Context, source, company, roleTitle, outputDir string, artifacts map[string]string) (uuid.UUID, error)
}

// Publisher uploads created files. publish.S3Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, paths []string) ([]string, error)
}

// Options holds configuration for a tailoring run
type Options struct {
	CVText string
	Jobs   []ingestion.Job
	OutDir string
	// Temperature is used for the free-text stages; parsing and auditing run at 0
	Temperature        float64
	DryRun             bool
	MakePDF            bool
	Verbose            bool
	DebugArtifacts     bool
	IncludeCoverLetter bool
	OnProgress         ProgressCallback
}

// Runner executes the tailoring stages. Recorder, Publisher and Printer are optional.
type Runner struct {
	Client    llm.Client
	Recorder  Recorder
	Publisher Publisher
	Printer   *observability.Printer
}

// Tailor processes every job in order and returns all created paths.
func (r *Runner) Tailor(ctx context.Context, opts Options) ([]string, error) {
	if len(opts.Jobs) == 0 {
		return nil, ingestion.ErrNoJobInput
	}
	if !opts.DryRun {
		if r.Client == nil {
			return nil, ErrNoClient
		}
		if err := llm.ValidateTemperature(opts.Temperature); err != nil {
			return nil, err
		}
	}

	var created []string
	for _, job := range opts.Jobs {
		paths, err := r.ProcessJob(ctx, opts.CVText, job, opts)
		created = append(created, paths...)
		if err != nil {
			return created, fmt.Errorf("job %s: %w", job.Source, err)
		}
	}
	return created, nil
}

// jobRun carries the state of one job through the stages
type jobRun struct {
	slug    string
	opts    Options
	files   outputs.Files
	created []string
}

func (j *jobRun) step(name string) {
	if j.opts.Verbose {
		log.Printf("[job:%s] %s", j.slug, name)
	}
	if j.opts.OnProgress != nil {
		j.opts.OnProgress(ProgressEvent{Job: j.slug, Step: name})
	}
}

func (j *jobRun) write(suffix, content string) error {
	path := j.files.Path(suffix)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	j.created = append(j.created, path)
	return nil
}

func (j *jobRun) render(mdSuffix, pdfSuffix string) error {
	markdown, err := os.ReadFile(j.files.Path(mdSuffix))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", j.files.Base+mdSuffix, err)
	}
	path := j.files.Path(pdfSuffix)
	if err := rendering.RenderPDFFile(string(markdown), path); err != nil {
		return err
	}
	j.created = append(j.created, path)
	return nil
}

// ProcessJob runs all stages for a single posting and returns the created
// paths in creation order. On error the paths written so far are returned.
func (r *Runner) ProcessJob(ctx context.Context, cvText string, job ingestion.Job, opts Options) ([]string, error) {
	j := &jobRun{slug: outputs.SourceSlug(job.Source), opts: opts}

	if opts.DryRun {
		return r.dryRun(j, cvText, job.Text)
	}

	j.step(StepParseCandidate)
	j.step(StepParseJob)
	candidate, jobTarget, err := r.parseInputs(ctx, cvText, job.Text)
	if err != nil {
		return nil, err
	}
	candidateJSON, err := candidate.Indent()
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidate: %w", err)
	}
	jobJSON, err := jobTarget.Indent()
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	if opts.Verbose && r.Printer != nil {
		r.Printer.PrintJobTarget(jobTarget)
	}

	j.step(StepMapping)
	mapping, err := r.generate(ctx, prompts.KeyMapping, map[string]string{
		"JobJSON":       string(jobJSON),
		"CandidateJSON": string(candidateJSON),
	}, opts.Temperature, false)
	if err != nil {
		return nil, fmt.Errorf("mapping failed: %w", err)
	}

	company := jobTarget.Label("company", unknownCompanyLabel)
	role := jobTarget.Label("title", unknownRoleLabel)
	outDir := outputs.Resolve(opts.OutDir, company, role, outputs.Exists)
	j.files = outputs.Files{Dir: outDir, Base: filepath.Base(outDir)}

	j.step(StepDraftCV)
	cvDraft, err := r.generate(ctx, prompts.KeyCV, map[string]string{
		"Mapping":       mapping,
		"JobJSON":       string(jobJSON),
		"CandidateJSON": string(candidateJSON),
	}, opts.Temperature, false)
	if err != nil {
		return nil, fmt.Errorf("CV draft failed: %w", err)
	}

	j.step(StepATSAudit)
	audit, err := r.generateObject(ctx, prompts.KeyATSAudit, map[string]string{
		"JobJSON": string(jobJSON),
		"CV":      cvDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("ATS audit failed: %w", err)
	}
	finalCV := cvDraft
	if revised := audit.String("revised_cv"); strings.TrimSpace(revised) != "" {
		finalCV = revised
	}
	if opts.Verbose && r.Printer != nil {
		r.Printer.PrintAudit(audit)
	}

	var coverLetter string
	if opts.IncludeCoverLetter {
		j.step(StepCoverLetter)
		coverLetter, err = r.generate(ctx, prompts.KeyCoverLetter, map[string]string{
			"JobJSON":       string(jobJSON),
			"CandidateJSON": string(candidateJSON),
			"Mapping":       mapping,
		}, opts.Temperature, false)
		if err != nil {
			return nil, fmt.Errorf("cover letter failed: %w", err)
		}
	}

	j.step(StepWriteOutputs)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := map[string]string{outputs.SuffixCV: finalCV}
	if err := j.write(outputs.SuffixCV, finalCV); err != nil {
		return j.created, err
	}
	if opts.IncludeCoverLetter {
		artifacts[outputs.SuffixCoverLetter] = coverLetter
		if err := j.write(outputs.SuffixCoverLetter, coverLetter); err != nil {
			return j.created, err
		}
	}

	auditJSON, err := audit.Indent()
	if err != nil {
		return j.created, fmt.Errorf("failed to encode audit: %w", err)
	}
	debug := []struct{ suffix, content string }{
		{outputs.SuffixCandidate, string(candidateJSON)},
		{outputs.SuffixJob, string(jobJSON)},
		{outputs.SuffixMapping, mapping},
		{outputs.SuffixCVDraft, cvDraft},
		{outputs.SuffixATSAudit, string(auditJSON)},
	}
	for _, d := range debug {
		artifacts[d.suffix] = d.content
		if !opts.DebugArtifacts {
			continue
		}
		if err := j.write(d.suffix, d.content); err != nil {
			return j.created, err
		}
	}

	if err := r.renderPDFs(j); err != nil {
		return j.created, err
	}

	r.record(ctx, j, job.Source, company, role, artifacts)
	r.publish(ctx, j)
	j.step(StepJobComplete)
	return j.created, nil
}

// dryRun writes a preview of the inputs without calling the generation service
func (r *Runner) dryRun(j *jobRun, cvText, jobText string) ([]string, error) {
	j.step(StepDryRun)
	preview, err := prompts.Tailor(prompts.KeyDryRun, map[string]string{
		"CVPreview":  firstLines(cvText, dryRunPreviewLines),
		"JobPreview": firstLines(jobText, dryRunPreviewLines),
	})
	if err != nil {
		return nil, err
	}
	preview = strings.TrimSpace(preview)

	j.files = outputs.Files{
		Dir:  j.opts.OutDir,
		Base: outputs.BaseName(unknownCompanyLabel, unknownRoleLabel),
	}

	j.step(StepWriteOutputs)
	if err := os.MkdirAll(j.files.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := j.write(outputs.SuffixCV, preview); err != nil {
		return j.created, err
	}
	if j.opts.IncludeCoverLetter {
		if err := j.write(outputs.SuffixCoverLetter, preview); err != nil {
			return j.created, err
		}
	}

	if err := r.renderPDFs(j); err != nil {
		return j.created, err
	}
	j.step(StepJobComplete)
	return j.created, nil
}

func (r *Runner) renderPDFs(j *jobRun) error {
	if !j.opts.MakePDF {
		return nil
	}
	j.step(StepRenderPDFs)
	if err := j.render(outputs.SuffixCV, outputs.SuffixCVPDF); err != nil {
		return err
	}
	if j.opts.IncludeCoverLetter {
		return j.render(outputs.SuffixCoverLetter, outputs.SuffixCoverPDF)
	}
	return nil
}

// parseInputs structures the CV and the posting concurrently
func (r *Runner) parseInputs(ctx context.Context, cvText, jobText string) (*llm.Record, *llm.Record, error) {
	var candidate, job *llm.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := r.generateObject(gctx, prompts.KeyParseCandidate, map[string]string{"CVText": cvText})
		if err != nil {
			return fmt.Errorf("candidate parse failed: %w", err)
		}
		candidate = rec
		return nil
	})
	g.Go(func() error {
		rec, err := r.generateObject(gctx, prompts.KeyParseJob, map[string]string{"JobText": jobText})
		if err != nil {
			return fmt.Errorf("job parse failed: %w", err)
		}
		job = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candidate, job, nil
}

// generate formats a prompt and runs it with the system instruction
func (r *Runner) generate(ctx context.Context, key string, data map[string]string, temperature float64, jsonMode bool) (string, error) {
	prompt, err := prompts.Tailor(key, data)
	if err != nil {
		return "", err
	}
	system, err := prompts.Get(prompts.TailorFile, prompts.KeySystem)
	if err != nil {
		return "", err
	}
	return r.Client.Generate(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: llm.Temperature(temperature),
		JSON:        jsonMode,
	})
}

// generateObject runs a JSON stage at temperature 0 and extracts the object
func (r *Runner) generateObject(ctx context.Context, key string, data map[string]string) (*llm.Record, error) {
	raw, err := r.generate(ctx, key, data, 0, true)
	if err != nil {
		return nil, err
	}
	return llm.ExtractObject(raw)
}

func (r *Runner) record(ctx context.Context, j *jobRun, source, company, role string, artifacts map[string]string) {
	if r.Recorder == nil {
		return
	}
	named := make(map[string]string, len(artifacts))
	for suffix, content := range artifacts {
		named[strings.TrimPrefix(suffix, "_")] = content
	}
	runID, err := r.Recorder.RecordJob(ctx, source, company, role, j.files.Dir, named)
	if err != nil {
		log.Printf("[WARN] failed to record job %s: %v", j.slug, err)
		return
	}
	if j.opts.Verbose {
		log.Printf("[job:%s] recorded run %s", j.slug, runID)
	}
}

func (r *Runner) publish(ctx context.Context, j *jobRun) {
	if r.Publisher == nil {
		return
	}
	keys, err := r.Publisher.Publish(ctx, j.created)
	if err != nil {
		log.Printf("[WARN] failed to publish outputs for %s: %v", j.slug, err)
		return
	}
	if j.opts.Verbose {
		log.Printf("[job:%s] published %d files", j.slug, len(keys))
	}
}

// firstLines returns the first n lines of text, trimmed
func firstLines(text string, n int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
