package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// boundFlags parses args into a fresh tailor command
func boundFlags(t *testing.T, args ...string) (*cobra.Command, *tailorFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "tailor"}
	flags := &tailorFlags{}
	bindTailorFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestResolveTailorConfig(t *testing.T) {
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", "# Jane Doe")
	job := writeFile(t, dir, "job.txt", "Senior Quant")

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"missing cv", []string{"--job-text-file", job, "--dry-run"}, nil, "--cv-file must be provided"},
		{"missing jobs", []string{"--cv-file", cv, "--dry-run"}, nil, "either --job-url or --job-text-file must be provided"},
		{"missing api key", []string{"--cv-file", cv, "--job-text-file", job}, nil, "GEMINI_API_KEY environment variable or --api-key flag is required"},
		{"both job inputs", []string{"--cv-file", cv, "--job-text-file", job, "--job-url", "https://example.com", "--dry-run"}, nil, "mutually exclusive"},
		{"cv not found", []string{"--cv-file", filepath.Join(dir, "nope.md"), "--job-text-file", job, "--dry-run"}, nil, "CV file not found"},
		{"temperature out of range", []string{"--cv-file", cv, "--job-text-file", job, "--dry-run", "--temperature", "3"}, nil, "must be between 0 and 2"},
		{"api key from env", []string{"--cv-file", cv, "--job-text-file", job}, map[string]string{"GEMINI_API_KEY": "k"}, ""},
		{"dry run needs no key", []string{"--cv-file", cv, "--job-url", "https://a.example.com", "--job-url", "https://b.example.com", "--dry-run"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, flags := boundFlags(t, tt.args...)
			cfg, err := resolveTailorConfig(cmd, flags, func(k string) string { return tt.env[k] })
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "outputs", cfg.OutDir)
			assert.Equal(t, 0.2, cfg.TemperatureValue())
		})
	}
}

func TestResolveTailorConfig_FlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", "# Jane Doe")
	job := writeFile(t, dir, "job.txt", "Senior Quant")
	cfgPath := writeFile(t, dir, "tailor.yaml", strings.Join([]string{
		"cv_file: " + cv,
		"job_urls:",
		"  - https://jobs.example.com/1",
		"out_dir: " + filepath.Join(dir, "from-config"),
		"model: gemini-config",
		"temperature: 0.5",
		"no_pdf: true",
	}, "\n"))

	cmd, flags := boundFlags(t, "--config", cfgPath, "--job-text-file", job, "--model", "gemini-flag", "--api-key", "flag-key")
	cfg, err := resolveTailorConfig(cmd, flags, func(k string) string {
		if k == "GEMINI_API_KEY" {
			return "env-key"
		}
		return ""
	})
	require.NoError(t, err)

	assert.Equal(t, cv, cfg.CVFile)
	assert.Empty(t, cfg.JobURLs)
	assert.Equal(t, job, cfg.JobTextFile)
	assert.Equal(t, filepath.Join(dir, "from-config"), cfg.OutDir)
	assert.Equal(t, "gemini-flag", cfg.Model)
	assert.Equal(t, 0.5, cfg.TemperatureValue())
	assert.True(t, cfg.NoPDF)
	assert.Equal(t, "flag-key", cfg.APIKey)
}

func TestResolveTailorConfig_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tailor.json", `{"temperature": "hot"}`)

	cmd, flags := boundFlags(t, "--config", cfgPath)
	_, err := resolveTailorConfig(cmd, flags, noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunTailor_DryRun(t *testing.T) {
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", "# Jane Doe\nQuant Developer")
	job := writeFile(t, dir, "job.txt", "Senior Quant at Acme")
	outDir := filepath.Join(dir, "out")

	cmd, flags := boundFlags(t, "--cv-file", cv, "--job-text-file", job, "--out-dir", outDir, "--dry-run", "--no-pdf", "--quiet")
	cfg, err := resolveTailorConfig(cmd, flags, noEnv)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runTailor(context.Background(), cfg, &out))

	cvPath := filepath.Join(outDir, "unknown_company_unknown_role_cv.md")
	coverPath := filepath.Join(outDir, "unknown_company_unknown_role_cover_letter.md")
	assert.Equal(t, "Created: "+cvPath+"\nCreated: "+coverPath+"\n", out.String())

	content, err := os.ReadFile(cvPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Dry Run Output")
	assert.Contains(t, string(content), "Senior Quant at Acme")
}

func TestRunTailor_DryRunVerboseCVOnly(t *testing.T) {
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.md", "# Jane Doe")
	job := writeFile(t, dir, "job.txt", "Senior Quant")
	outDir := filepath.Join(dir, "out")

	cmd, flags := boundFlags(t, "--cv-file", cv, "--job-text-file", job, "--out-dir", outDir, "--dry-run", "--cv-only")
	cfg, err := resolveTailorConfig(cmd, flags, noEnv)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runTailor(context.Background(), cfg, &out))

	assert.Contains(t, out.String(), "Created: "+filepath.Join(outDir, "unknown_company_unknown_role_cv.md"))
	assert.Contains(t, out.String(), "Created: "+filepath.Join(outDir, "unknown_company_unknown_role_cv.pdf"))
	assert.NotContains(t, out.String(), "cover_letter")
	assert.Contains(t, out.String(), "CREATED FILES (2)")
}

func TestRunTailor_MissingCV(t *testing.T) {
	dir := t.TempDir()
	cmd, flags := boundFlags(t, "--cv-file", filepath.Join(dir, "cv.md"), "--job-text-file", writeFile(t, dir, "job.txt", "x"), "--dry-run")
	cfg, err := resolveTailorConfig(cmd, flags, noEnv)
	require.Error(t, err)

	cfg.CVFile = filepath.Join(dir, "cv.md")
	err = runTailor(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CV file not found")
}
