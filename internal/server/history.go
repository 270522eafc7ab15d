package server

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/job-tailor/internal/db"
)

// HistoryReader reads recorded runs. *db.DB satisfies it.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, name string) (string, error)
}

// RunSummary is a recorded run as returned by the history endpoints
type RunSummary struct {
	db.Run
	Finished bool `json:"finished"`
}

func summarize(run db.Run) RunSummary {
	return RunSummary{Run: run, Finished: run.IsFinished()}
}

// handleListRuns returns the most recent runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, &ErrValidation{Field: "limit", Message: "Limit must be a positive integer."})
			return
		}
		limit = n
	}

	runs, err := s.cfg.History.ListRuns(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] failed to list runs: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs.")
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarize(run))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   summaries,
		"count":  len(summaries),
	})
}

// handleGetRun returns a single run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.cfg.History.GetRun(r.Context(), runID)
	if err != nil {
		log.Printf("[ERROR] failed to get run %s: %v", runID, err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run.")
		return
	}
	if run == nil {
		s.writeError(w, &ErrNotFound{Path: runID.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"run":    summarize(*run),
	})
}

// handleRunArtifact returns a stored text artifact of a run
func (s *Server) handleRunArtifact(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")

	content, err := s.cfg.History.GetTextArtifact(r.Context(), runID, name)
	if err != nil {
		log.Printf("[ERROR] failed to get artifact %s of run %s: %v", name, runID, err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get artifact.")
		return
	}
	if content == "" {
		s.writeError(w, &ErrNotFound{Path: runID.String() + "/" + name})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"run_id":  runID.String(),
		"name":    name,
		"content": content,
	})
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.cfg.History == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run history is not enabled.")
		return false
	}
	return true
}

func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "Invalid run ID."})
		return uuid.Nil, false
	}
	return runID, true
}
