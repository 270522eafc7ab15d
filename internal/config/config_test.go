package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/job-tailor/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"cv_file": "cv.pdf",
		"job_urls": ["https://example.com/job"],
		"model": "gemini-2.5-pro",
		"temperature": 0,
		"quiet": true,
		"server": {"port": 9000}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "cv.pdf", cfg.CVFile)
	assert.Equal(t, []string{"https://example.com/job"}, cfg.JobURLs)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.0, *cfg.Temperature)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
cv_file: cv.docx
job_text_file: job.txt
temperature: 0.7
no_pdf: true
publish:
  bucket: artifacts
  prefix: runs/
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cv.docx", cfg.CVFile)
	assert.Equal(t, "job.txt", cfg.JobTextFile)
	assert.Equal(t, 0.7, cfg.TemperatureValue())
	assert.True(t, cfg.NoPDF)
	assert.Equal(t, "artifacts", cfg.Publish.Bucket)
	assert.Equal(t, "runs/", cfg.Publish.Prefix)
}

func TestLoadConfig_EmptyYAML(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, *cfg)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.yaml", "model: [unclosed"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", `{"temperature": 5, "unknown": 1}`))
	assert.Nil(t, cfg)
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_MutuallyExclusive(t *testing.T) {
	cfg := &Config{
		JobTextFile: "job.txt",
		JobURLs:     []string{"https://example.com/job"},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_TemperatureRange(t *testing.T) {
	tooHigh := 2.5
	cfg := &Config{Temperature: &tooHigh}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "'temperature' must be between 0 and 2")

	zero := 0.0
	cfg.Temperature = &zero
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Port(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 70000}}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
}

func TestValidate_EmptyJobURL(t *testing.T) {
	cfg := &Config{JobURLs: []string{"https://ok", ""}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingFiles(t *testing.T) {
	cfg := &Config{CVFile: "/nonexistent/cv.pdf"}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CV file not found")

	cfg = &Config{JobTextFile: "/nonexistent/job.txt"}
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "job text file not found")
}

func TestValidate_ValidConfig(t *testing.T) {
	cv := writeFile(t, "cv.txt", "cv")
	cfg := &Config{CVFile: cv, JobURLs: []string{"https://example.com"}}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	temp := 0.9
	defaults := Config{
		CVFile:      "default.pdf",
		OutDir:      "out",
		Model:       "default-model",
		Temperature: &temp,
		JobURLs:     []string{"https://default"},
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8080},
	}

	partial := Config{
		Model:       "custom-model",
		JobTextFile: "job.txt",
		Server:      ServerConfig{Port: 9000},
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "custom-model", merged.Model)
	assert.Equal(t, 9000, merged.Server.Port)
	assert.Equal(t, "job.txt", merged.JobTextFile)

	// Job inputs are taken as a unit
	assert.Empty(t, merged.JobURLs)

	// Default values should fill in empty fields
	assert.Equal(t, "default.pdf", merged.CVFile)
	assert.Equal(t, "out", merged.OutDir)
	assert.Equal(t, 0.9, merged.TemperatureValue())
	assert.Equal(t, "0.0.0.0", merged.Server.Host)
}

func TestResolve_LayersEnvAndDefaults(t *testing.T) {
	env := map[string]string{
		EnvAPIKey:     "env-key",
		EnvS3Bucket:   "bucket",
		EnvS3Endpoint: "https://r2.example.com",
	}
	cfg := Config{APIKey: "file-key"}

	resolved := cfg.Resolve(func(k string) string { return env[k] })

	assert.Equal(t, "file-key", resolved.APIKey)
	assert.Equal(t, "bucket", resolved.Publish.Bucket)
	assert.Equal(t, "https://r2.example.com", resolved.Publish.Endpoint)
	assert.Equal(t, DefaultOutDir, resolved.OutDir)
	assert.Equal(t, DefaultModel, resolved.Model)
	assert.Equal(t, DefaultTemperature, resolved.TemperatureValue())
	assert.Equal(t, DefaultPort, resolved.Server.Port)
	assert.Equal(t, DefaultHost, resolved.Server.Host)
}

func TestTemperatureValue_Default(t *testing.T) {
	assert.Equal(t, DefaultTemperature, (&Config{}).TemperatureValue())
}
