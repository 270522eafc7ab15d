package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-tailor/internal/config"
	"github.com/jonathan/job-tailor/internal/ingestion"
	"github.com/jonathan/job-tailor/internal/llm"
	"github.com/jonathan/job-tailor/internal/observability"
	"github.com/jonathan/job-tailor/internal/pipeline"
)

// tailorFlags holds the raw flag values of the tailor command
type tailorFlags struct {
	configPath       string
	cvFile           string
	jobURLs          []string
	jobTextFile      string
	outDir           string
	model            string
	temperature      float64
	dryRun           bool
	noPDF            bool
	quiet            bool
	noDebugArtifacts bool
	cvOnly           bool
	useBrowser       bool
	apiKey           string
	databaseURL      string
}

func init() {
	rootCmd.AddCommand(newTailorCmd())
}

func newTailorCmd() *cobra.Command {
	flags := &tailorFlags{}
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Generate a tailored CV and cover letter for job postings",
		Long: `Parses the base CV and each job posting, maps requirements to evidence, drafts
the CV, audits it for ATS keyword coverage and optionally drafts a cover letter.

Configuration can be loaded from a JSON or YAML file using --config.
Command-line flags override config file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveTailorConfig(cmd, flags, os.Getenv)
			if err != nil {
				return err
			}
			return runTailor(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	bindTailorFlags(cmd, flags)
	return cmd
}

func bindTailorFlags(cmd *cobra.Command, flags *tailorFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")
	f.StringVar(&flags.cvFile, "cv-file", "", "Path to the base CV (PDF, DOCX, Markdown or text)")
	f.StringArrayVar(&flags.jobURLs, "job-url", nil, "Job posting URL (repeatable)")
	f.StringVar(&flags.jobTextFile, "job-text-file", "", "Job posting text file (skips URL fetch)")
	f.StringVar(&flags.outDir, "out-dir", config.DefaultOutDir, "Output directory for generated files")
	f.StringVar(&flags.model, "model", config.DefaultModel, "Gemini model")
	f.Float64Var(&flags.temperature, "temperature", config.DefaultTemperature, "Sampling temperature for drafting stages (0-2)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Skip generation calls and write preview outputs")
	f.BoolVar(&flags.noPDF, "no-pdf", false, "Skip PDF generation (write Markdown outputs only)")
	f.BoolVar(&flags.quiet, "quiet", false, "Suppress progress output (only print created files)")
	f.BoolVar(&flags.noDebugArtifacts, "no-debug-artifacts", false, "Skip writing intermediate JSON and drafts")
	f.BoolVar(&flags.cvOnly, "cv-only", false, "Generate only the CV (skip cover letter outputs)")
	f.BoolVar(&flags.useBrowser, "use-browser", false, "Use headless browser for SPA job pages (requires Chrome)")
	f.StringVar(&flags.apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY env var)")
	f.StringVar(&flags.databaseURL, "db-url", "", "PostgreSQL URL for run history (defaults to DATABASE_URL env var)")
}

// resolveTailorConfig layers the config file, explicitly set flags, the
// environment and the defaults, then validates the result.
func resolveTailorConfig(cmd *cobra.Command, flags *tailorFlags, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	changed := cmd.Flags().Changed
	if changed("cv-file") {
		cfg.CVFile = flags.cvFile
	}
	if changed("job-url") || changed("job-text-file") {
		// Job inputs are replaced as a unit
		cfg.JobURLs = flags.jobURLs
		cfg.JobTextFile = flags.jobTextFile
	}
	if changed("out-dir") {
		cfg.OutDir = flags.outDir
	}
	if changed("model") {
		cfg.Model = flags.model
	}
	if changed("temperature") {
		t := flags.temperature
		cfg.Temperature = &t
	}
	if changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if changed("no-pdf") {
		cfg.NoPDF = flags.noPDF
	}
	if changed("quiet") {
		cfg.Quiet = flags.quiet
	}
	if changed("no-debug-artifacts") {
		cfg.NoDebugArtifacts = flags.noDebugArtifacts
	}
	if changed("cv-only") {
		cfg.CVOnly = flags.cvOnly
	}
	if changed("use-browser") {
		cfg.UseBrowser = flags.useBrowser
	}
	if changed("api-key") {
		cfg.APIKey = flags.apiKey
	}
	if changed("db-url") {
		cfg.DatabaseURL = flags.databaseURL
	}

	cfg = cfg.Resolve(getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.CVFile == "" {
		return cfg, fmt.Errorf("--cv-file must be provided (via flag or config)")
	}
	if len(cfg.JobURLs) == 0 && cfg.JobTextFile == "" {
		return cfg, fmt.Errorf("either --job-url or --job-text-file must be provided (via flag or config)")
	}
	if !cfg.DryRun && cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	return cfg, nil
}

// runTailor loads the inputs, runs the pipeline and prints the created paths
func runTailor(ctx context.Context, cfg config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	verbose := !cfg.Quiet

	cvText, err := ingestion.LoadCVText(cfg.CVFile)
	if err != nil {
		return err
	}
	jobs, err := ingestion.LoadJobTexts(ctx, cfg.JobURLs, cfg.JobTextFile, ingestion.Options{
		UseBrowser: cfg.UseBrowser,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(out)
	runner := &pipeline.Runner{Printer: printer}
	if !cfg.DryRun {
		client, err := llm.NewClient(ctx, llm.DefaultConfig().WithModel(cfg.Model), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close() //nolint:errcheck
		runner.Client = client

		svc := openServices(ctx, cfg, cfg.OutDir, verbose)
		defer svc.Close()
		svc.apply(runner)
	}

	created, err := runner.Tailor(ctx, pipeline.Options{
		CVText:             cvText,
		Jobs:               jobs,
		OutDir:             cfg.OutDir,
		Temperature:        cfg.TemperatureValue(),
		DryRun:             cfg.DryRun,
		MakePDF:            !cfg.NoPDF,
		Verbose:            verbose,
		DebugArtifacts:     !cfg.NoDebugArtifacts,
		IncludeCoverLetter: !cfg.CVOnly,
	})
	for _, path := range created {
		fmt.Fprintf(out, "Created: %s\n", path) //nolint:errcheck
	}
	if err != nil {
		return err
	}

	if verbose {
		printer.PrintCreated(created)
	}
	return nil
}
