// Package server provides the local web UI and HTTP API for tailoring runs.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonathan/job-tailor/internal/config"
	"github.com/jonathan/job-tailor/internal/server/ratelimit"
)

//go:embed static/index.html
var staticFiles embed.FS

// DefaultMaxBodyBytes bounds multipart uploads
const DefaultMaxBodyBytes = 20 << 20

// Directories under Root
const (
	OutputsDir = "outputs"
	RunsDir    = "ui_runs"
	UploadsDir = "uploads"
)

// Config holds server configuration
type Config struct {
	Host string
	Port int
	// Root is the directory created_files paths are reported relative to
	Root         string
	DefaultModel string
	MaxBodyBytes int64
	RateLimit    *ratelimit.Config
	// History serves the /api/runs endpoints when run history is enabled
	History HistoryReader
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         Config
	tailorer    Tailorer
	rateLimiter *ratelimit.Limiter
	now         func() time.Time
}

// New creates a new server instance
func New(cfg Config, tailorer Tailorer) (*Server, error) {
	if tailorer == nil {
		return nil, fmt.Errorf("tailorer is required")
	}
	if cfg.Root == "" {
		cfg.Root = config.DefaultRoot
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	cfg.Root = root
	if cfg.Host == "" {
		cfg.Host = config.DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = config.DefaultModel
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		cfg:         cfg,
		tailorer:    tailorer,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		now:         time.Now,
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 600 * time.Second, // Long timeout for pipeline runs
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui", s.handleIndex)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("POST /api/run/stream", s.handleRunStream)
	mux.HandleFunc("GET /api/preview", s.handlePreview)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/artifacts/{name}", s.handleRunArtifact)
	mux.Handle("GET /outputs/", http.StripPrefix("/outputs/", http.FileServer(http.Dir(s.outputsRoot()))))

	return s.withLogging(s.withCORS(s.withRateLimit(mux)))
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for requests and blocks until interrupted
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Job tailor UI running at http://%s/", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

func (s *Server) outputsRoot() string {
	return filepath.Join(s.cfg.Root, OutputsDir)
}

// runsDir is where UI runs write their job directories
func (s *Server) runsDir() string {
	return filepath.Join(s.outputsRoot(), RunsDir)
}

func (s *Server) uploadsDir() string {
	return filepath.Join(s.runsDir(), UploadsDir)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed the pipeline endpoint limits
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		}
		if !info.Allowed {
			retry := int(info.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
			log.Printf("[rate-limit] %s exceeded %d requests on %s", clientID(r), info.Limit, r.URL.Path)
			s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// clientID is the remote IP without the port
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page) //nolint:errcheck
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"status": "error", "message": message}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody(message))
}

// writeError maps err to a status and client message
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), clientMessage(err))
}
