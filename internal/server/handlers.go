package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-tailor/internal/config"
	"github.com/jonathan/job-tailor/internal/formdata"
	"github.com/jonathan/job-tailor/internal/llm"
	"github.com/jonathan/job-tailor/internal/outputs"
	"github.com/jonathan/job-tailor/internal/pipeline"
	"github.com/jonathan/job-tailor/internal/rendering"
)

// Job sources accepted by the run endpoints
const (
	JobSourceURL  = "url"
	JobSourceText = "text"
)

// maxAuditItems caps each list in the audit preview
const maxAuditItems = 12

// RunRequest is a decoded and validated run form
type RunRequest struct {
	JobSource          string  `validate:"oneof=url text"`
	JobURL             string  `validate:"required_if=JobSource url"`
	OutDir             string  `validate:"required"`
	Model              string  `validate:"required"`
	Temperature        float64 `validate:"gte=0,lte=2"`
	IncludeCoverLetter bool
	MakePDF            bool
	DebugArtifacts     bool
	DryRun             bool
	Quiet              bool

	// Set once the uploads are saved
	CVPath      string
	JobTextFile string
}

// Preview holds the text shown in the UI tabs
type Preview struct {
	CV    string `json:"cv"`
	Cover string `json:"cover"`
	Audit string `json:"audit"`
}

// RunResponse is the result of a successful run
type RunResponse struct {
	Status       string   `json:"status"`
	CreatedFiles []string `json:"created_files"`
	OutputDir    string   `json:"output_dir"`
	Preview      Preview  `json:"preview"`
}

var validate = validator.New()

// handleRun runs the pipeline for a multipart form and returns the created files
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRunForm(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.tailorer.Tailor(r.Context(), *req, nil)
	if err != nil {
		log.Printf("[ERROR] run failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp, err := s.buildResponse(created)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRunStream runs the pipeline and streams progress as Server-Sent Events
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRunForm(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		sse.WriteEvent("progress", event) //nolint:errcheck
	}
	created, err := s.tailorer.Tailor(r.Context(), *req, onProgress)
	if err != nil {
		log.Printf("[ERROR] streamed run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}

	resp, err := s.buildResponse(created)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(resp)
}

// handlePreview renders a Markdown artifact under the outputs directory as HTML
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		s.writeError(w, &ErrValidation{Field: "path", Message: "Provide an artifact path."})
		return
	}
	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		s.writeError(w, &ErrValidation{Field: "path", Message: "Only Markdown artifacts can be previewed."})
		return
	}

	path, ok := s.resolveOutputPath(rel)
	if !ok {
		s.writeError(w, &ErrValidation{Field: "path", Message: "Path is outside the outputs directory."})
		return
	}
	markdown, err := os.ReadFile(path)
	if err != nil {
		s.writeError(w, &ErrNotFound{Path: rel})
		return
	}

	html, err := rendering.PreviewHTML(string(markdown))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "path": rel, "html": html})
}

// resolveOutputPath maps a root-relative path to a file inside the outputs directory
func (s *Server) resolveOutputPath(rel string) (string, bool) {
	path := filepath.Join(s.cfg.Root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(s.outputsRoot(), path)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// parseRunForm decodes the multipart body, saves the uploads and validates the request
func (s *Server) parseRunForm(w http.ResponseWriter, r *http.Request) (*RunRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		return nil, &ErrValidation{Field: "content_type", Message: "Expected multipart form data."}
	}
	boundary, err := formdata.BoundaryFromContentType(contentType)
	if err != nil {
		return nil, &ErrValidation{Field: "content_type", Message: "Expected multipart form data."}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	form, diagnostics := formdata.DecodeWithDiagnostics(body, boundary)
	for _, d := range diagnostics {
		log.Printf("[WARN] form: %s", d)
	}

	cv := form.File("cv_file")
	if cv == nil || cv.Filename == "" {
		return nil, &ErrValidation{Field: "cv_file", Message: "Upload a CV file."}
	}

	jobSource := strings.ToLower(strings.TrimSpace(form.TextOr("job_source", JobSourceURL)))
	jobURL := strings.TrimSpace(form.Text("job_url"))
	jobText := strings.TrimSpace(form.Text("job_text"))
	if jobSource == JobSourceURL && jobURL == "" {
		return nil, &ErrValidation{Field: "job_url", Message: "Provide a job URL."}
	}
	if jobSource == JobSourceText && jobText == "" {
		return nil, &ErrValidation{Field: "job_text", Message: "Provide job description text."}
	}

	model := strings.TrimSpace(form.Text("model"))
	if model == "" {
		model = s.cfg.DefaultModel
	}

	req := &RunRequest{
		JobSource:          jobSource,
		OutDir:             s.runsDir(),
		Model:              model,
		Temperature:        parseTemperature(form.Text("temperature")),
		IncludeCoverLetter: form.Bool("include_cover_letter", true),
		MakePDF:            form.Bool("make_pdf", true),
		DebugArtifacts:     form.Bool("debug_artifacts", false),
		DryRun:             form.Bool("dry_run", false),
		Quiet:              form.Bool("quiet", false),
	}
	if jobSource == JobSourceURL {
		req.JobURL = jobURL
	}
	if err := validate.Struct(req); err != nil {
		return nil, requestError(err)
	}

	if err := os.MkdirAll(s.uploadsDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	timestamp := s.now().Format("20060102_150405")

	req.CVPath = filepath.Join(s.uploadsDir(), timestamp+"_"+outputs.SafeFilename(cv.Filename))
	if err := os.WriteFile(req.CVPath, cv.Content, 0644); err != nil {
		return nil, fmt.Errorf("failed to save CV upload: %w", err)
	}
	if jobSource == JobSourceText {
		req.JobTextFile = filepath.Join(s.uploadsDir(), timestamp+"_job.txt")
		if err := os.WriteFile(req.JobTextFile, []byte(jobText), 0644); err != nil {
			return nil, fmt.Errorf("failed to save job text: %w", err)
		}
	}
	return req, nil
}

// requestError converts validator errors into a client-facing validation error
func requestError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return &ErrValidation{Field: "request", Message: err.Error()}
	}
	fe := errs[0]
	switch fe.Field() {
	case "JobSource":
		return &ErrValidation{Field: "job_source", Message: "Job source must be url or text."}
	case "Temperature":
		return &ErrValidation{Field: "temperature", Message: "Temperature must be between 0 and 2."}
	default:
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("Invalid %s.", fe.Field())}
	}
}

// parseTemperature falls back to the default on empty or malformed input
func parseTemperature(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return config.DefaultTemperature
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return config.DefaultTemperature
	}
	return t
}

// buildResponse collects previews from the created files
func (s *Server) buildResponse(created []string) (*RunResponse, error) {
	resp := &RunResponse{Status: "ok", CreatedFiles: make([]string, 0, len(created))}

	outputDir := s.runsDir()
	if len(created) > 0 {
		outputDir = filepath.Dir(created[0])
	}
	resp.OutputDir = s.relative(outputDir)

	for _, path := range created {
		resp.CreatedFiles = append(resp.CreatedFiles, s.relative(path))

		name := filepath.Base(path)
		switch {
		case strings.HasSuffix(name, outputs.SuffixCV):
			text, err := readTrimmed(path)
			if err != nil {
				return nil, err
			}
			resp.Preview.CV = text
		case strings.HasSuffix(name, outputs.SuffixCoverLetter):
			text, err := readTrimmed(path)
			if err != nil {
				return nil, err
			}
			resp.Preview.Cover = text
		case strings.HasSuffix(name, outputs.SuffixATSAudit):
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read audit: %w", err)
			}
			audit := llm.NewRecord()
			if err := json.Unmarshal(data, audit); err != nil {
				return nil, fmt.Errorf("failed to parse audit: %w", err)
			}
			resp.Preview.Audit = FormatAuditPreview(audit)
		}
	}
	return resp, nil
}

// relative reports path relative to the server root, with forward slashes
func (s *Server) relative(path string) string {
	rel, err := filepath.Rel(s.cfg.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(data)), nil
}

// FormatAuditPreview summarises an ATS audit as plain text, listing at most
// twelve items per section and omitting empty sections.
func FormatAuditPreview(audit *llm.Record) string {
	lines := []string{"ATS AUDIT"}
	sections := []struct{ key, title string }{
		{"missing_keywords", "Missing keywords:"},
		{"formatting_risks", "Formatting risks:"},
		{"proposed_edits", "Proposed edits:"},
	}
	for _, section := range sections {
		items := audit.StringSlice(section.key)
		if len(items) == 0 {
			continue
		}
		lines = append(lines, "\n"+section.title)
		for _, item := range items[:min(len(items), maxAuditItems)] {
			lines = append(lines, "- "+item)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Tailorer runs the pipeline for a validated request
type Tailorer interface {
	Tailor(ctx context.Context, req RunRequest, onProgress pipeline.ProgressCallback) ([]string, error)
}
