package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-tailor/internal/config"
	"github.com/jonathan/job-tailor/internal/server"
	"github.com/jonathan/job-tailor/internal/server/ratelimit"
)

var (
	serveHost       string
	servePort       int
	serveRoot       string
	serveConfigPath string
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web UI and API server",
	Long:  `Start an HTTP server with a form for uploading a CV and a job posting, backed by /api/run endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", config.DefaultHost, "Host to bind")
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveRoot, "root", config.DefaultRoot, "Directory that holds the outputs/ folder")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON or YAML config file")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for SPA job pages (requires Chrome)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("root") {
		cfg.Server.Root = serveRoot
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}
	cfg = cfg.Resolve(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The API key is checked per run so dry runs work without one
	ctx := context.Background()
	svc := openServices(ctx, cfg, filepath.Join(cfg.Server.Root, server.OutputsDir), true)
	defer svc.Close()

	tailorer := &server.PipelineTailorer{
		NewClient:  server.GeminiClientFactory(cfg.APIKey),
		UseBrowser: cfg.UseBrowser,
	}
	var history server.HistoryReader
	if svc.database != nil {
		tailorer.Recorder = svc.database
		history = svc.database
	}
	if svc.publisher != nil {
		tailorer.Publisher = svc.publisher
	}

	srv, err := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Root:         cfg.Server.Root,
		DefaultModel: cfg.Model,
		RateLimit:    ratelimit.LoadConfig(os.Getenv),
		History:      history,
	}, tailorer)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
