// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/job-tailor/internal/schemas"
	"gopkg.in/yaml.v3"
)

// Defaults for unset values
const (
	DefaultOutDir      = "outputs"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8000
	DefaultRoot        = "."
)

// Environment variables read by FromEnv
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvS3Bucket    = "JOB_TAILOR_S3_BUCKET"
	EnvS3Prefix    = "JOB_TAILOR_S3_PREFIX"
	EnvS3Endpoint  = "JOB_TAILOR_S3_ENDPOINT"
)

// Config is the tool configuration. It can be loaded from a JSON or YAML
// file; every field is optional and CLI flags override file values.
type Config struct {
	// Inputs
	CVFile      string   `json:"cv_file,omitempty" yaml:"cv_file"`
	JobURLs     []string `json:"job_urls,omitempty" yaml:"job_urls" validate:"omitempty,dive,required"`
	JobTextFile string   `json:"job_text_file,omitempty" yaml:"job_text_file" validate:"excluded_with=JobURLs"`

	// Generation
	OutDir      string   `json:"out_dir,omitempty" yaml:"out_dir"`
	Model       string   `json:"model,omitempty" yaml:"model"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature" validate:"omitempty,gte=0,lte=2"`

	// Behavior
	DryRun           bool `json:"dry_run,omitempty" yaml:"dry_run"`
	NoPDF            bool `json:"no_pdf,omitempty" yaml:"no_pdf"`
	Quiet            bool `json:"quiet,omitempty" yaml:"quiet"`
	NoDebugArtifacts bool `json:"no_debug_artifacts,omitempty" yaml:"no_debug_artifacts"`
	CVOnly           bool `json:"cv_only,omitempty" yaml:"cv_only"`
	UseBrowser       bool `json:"use_browser,omitempty" yaml:"use_browser"`

	// Services
	APIKey      string `json:"api_key,omitempty" yaml:"api_key"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url"`

	Server  ServerConfig  `json:"server,omitempty" yaml:"server"`
	Publish PublishConfig `json:"publish,omitempty" yaml:"publish"`
}

// ServerConfig configures the UI/API server
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host"`
	Port int    `json:"port,omitempty" yaml:"port" validate:"omitempty,min=1,max=65535"`
	Root string `json:"root,omitempty" yaml:"root"`
}

// PublishConfig configures optional artifact upload to S3-compatible storage
type PublishConfig struct {
	Bucket   string `json:"bucket,omitempty" yaml:"bucket"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint" validate:"omitempty,url"`
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// The document is checked against the embedded config schema before decoding.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("failed to parse config JSON: invalid syntax in %s", path)
		}
	}

	if err := schemas.Validate(schemas.ConfigSchema, data); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// yamlToJSON converts a YAML document to JSON so both formats share one schema
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}

// Validate checks field ranges, mutually exclusive inputs and that referenced files exist.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("config error: %s", describe(errs[0]))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.CVFile != "" {
		if _, err := os.Stat(c.CVFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: CV file not found: %s", c.CVFile)
		}
	}
	if c.JobTextFile != "" {
		if _, err := os.Stat(c.JobTextFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: job text file not found: %s", c.JobTextFile)
		}
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "excluded_with":
		return "'job_text_file' and 'job_urls' are mutually exclusive"
	case "gte", "lte":
		return fmt.Sprintf("'%s' must be between 0 and 2", strings.ToLower(fe.Field()))
	case "min", "max":
		return fmt.Sprintf("'%s' is out of range", fe.Namespace())
	default:
		return fmt.Sprintf("'%s' failed '%s' check", fe.Namespace(), fe.Tag())
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bool fields cannot distinguish unset from false, so they are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.CVFile == "" {
		result.CVFile = defaults.CVFile
	}
	if len(result.JobURLs) == 0 && result.JobTextFile == "" {
		result.JobURLs = defaults.JobURLs
		result.JobTextFile = defaults.JobTextFile
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Server.Host == "" {
		result.Server.Host = defaults.Server.Host
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.Root == "" {
		result.Server.Root = defaults.Server.Root
	}

	if result.Publish.Bucket == "" {
		result.Publish.Bucket = defaults.Publish.Bucket
	}
	if result.Publish.Prefix == "" {
		result.Publish.Prefix = defaults.Publish.Prefix
	}
	if result.Publish.Endpoint == "" {
		result.Publish.Endpoint = defaults.Publish.Endpoint
	}

	return result
}

// Defaults returns the built-in defaults
func Defaults() Config {
	temperature := DefaultTemperature
	return Config{
		OutDir:      DefaultOutDir,
		Model:       DefaultModel,
		Temperature: &temperature,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
			Root: DefaultRoot,
		},
	}
}

// FromEnv returns the values supplied through environment variables
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return Config{
		APIKey:      getenv(EnvAPIKey),
		DatabaseURL: getenv(EnvDatabaseURL),
		Publish: PublishConfig{
			Bucket:   getenv(EnvS3Bucket),
			Prefix:   getenv(EnvS3Prefix),
			Endpoint: getenv(EnvS3Endpoint),
		},
	}
}

// Resolve layers c over the environment and then the built-in defaults
func (c *Config) Resolve(getenv func(string) string) Config {
	withEnv := c.MergeWithDefaults(FromEnv(getenv))
	return withEnv.MergeWithDefaults(Defaults())
}

// TemperatureValue returns the temperature or the default
func (c *Config) TemperatureValue() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}
