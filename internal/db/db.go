// Package db provides optional PostgreSQL run history for tailoring jobs.
package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultListLimit caps ListRuns when no positive limit is given.
const DefaultListLimit = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tailor_runs (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	company      TEXT NOT NULL DEFAULT '',
	role_title   TEXT NOT NULL DEFAULT '',
	output_dir   TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS tailor_artifacts (
	run_id     UUID NOT NULL REFERENCES tailor_runs(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, name)
);`

// Run is one job processed by the tailoring pipeline.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Source      string     `json:"source"`
	Company     string     `json:"company"`
	RoleTitle   string     `json:"role_title"`
	OutputDir   string     `json:"output_dir"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsFinished reports whether the run reached a terminal status.
func (r Run) IsFinished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the run history tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate run history: %w", err)
	}
	return nil
}

// CreateRun records the start of a job and returns its ID.
func (db *DB) CreateRun(ctx context.Context, source, company, roleTitle, outputDir string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO tailor_runs (id, source, company, role_title, output_dir, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source, company, roleTitle, outputDir, StatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE tailor_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveTextArtifact stores a named text artifact, replacing any previous content.
func (db *DB) SaveTextArtifact(ctx context.Context, runID uuid.UUID, name, content string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO tailor_artifacts (run_id, name, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, name) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, name, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", name, err)
	}
	return nil
}

// RecordJob stores a finished job with its artifacts in one call. Artifacts are
// written in name order; the run is marked failed if any write fails.
func (db *DB) RecordJob(ctx context.Context, source, company, roleTitle, outputDir string, artifacts map[string]string) (uuid.UUID, error) {
	runID, err := db.CreateRun(ctx, source, company, roleTitle, outputDir)
	if err != nil {
		return uuid.Nil, err
	}

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := db.SaveTextArtifact(ctx, runID, name, artifacts[name]); err != nil {
			_ = db.CompleteRun(ctx, runID, StatusFailed)
			return runID, err
		}
	}
	return runID, db.CompleteRun(ctx, runID, StatusCompleted)
}

// GetTextArtifact retrieves a named artifact. Missing artifacts return "" and no error.
func (db *DB) GetTextArtifact(ctx context.Context, runID uuid.UUID, name string) (string, error) {
	var content string
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM tailor_artifacts WHERE run_id = $1 AND name = $2`,
		runID, name,
	).Scan(&content)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get artifact %s: %w", name, err)
	}
	return content, nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, source, company, role_title, output_dir, status, created_at, completed_at
		 FROM tailor_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Source, &run.Company, &run.RoleTitle, &run.OutputDir,
		&run.Status, &run.CreatedAt, &run.CompletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source, company, role_title, output_dir, status, created_at, completed_at
		 FROM tailor_runs ORDER BY created_at DESC LIMIT $1`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Source, &run.Company, &run.RoleTitle, &run.OutputDir,
			&run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
