package main

import (
	"context"
	"log"

	"github.com/jonathan/job-tailor/internal/config"
	"github.com/jonathan/job-tailor/internal/db"
	"github.com/jonathan/job-tailor/internal/pipeline"
	"github.com/jonathan/job-tailor/internal/publish"
)

// services holds the optional run history and artifact publishing backends
type services struct {
	database  *db.DB
	publisher *publish.S3Publisher
}

// openServices connects the optional backends. Failures are logged and the
// backend is skipped.
func openServices(ctx context.Context, cfg config.Config, outRoot string, verbose bool) *services {
	s := &services{}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("[WARN] run history disabled: %v", err)
		} else if err := database.Migrate(ctx); err != nil {
			log.Printf("[WARN] run history disabled: %v", err)
			database.Close()
		} else {
			s.database = database
			if verbose {
				log.Printf("[VERBOSE] Connected to database")
			}
		}
	}

	if cfg.Publish.Bucket != "" {
		publisher, err := publish.New(ctx, publish.Options{
			Bucket:   cfg.Publish.Bucket,
			Prefix:   cfg.Publish.Prefix,
			Endpoint: cfg.Publish.Endpoint,
			Root:     outRoot,
		})
		if err != nil {
			log.Printf("[WARN] artifact publishing disabled: %v", err)
		} else {
			s.publisher = publisher
		}
	}

	return s
}

// apply wires the connected backends into a runner
func (s *services) apply(runner *pipeline.Runner) {
	if s.database != nil {
		runner.Recorder = s.database
	}
	if s.publisher != nil {
		runner.Publisher = s.publisher
	}
}

func (s *services) Close() {
	if s.database != nil {
		s.database.Close()
	}
}
