// Package llm provides the text generation client and helpers for recovering
// structured data from generated text.
package llm

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// DefaultTemperature is the sampling temperature for free-form drafting stages
const DefaultTemperature = 0.2

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Model       string
	Temperature float64
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
	}
}

// WithModel returns a copy of the config using model. An empty model keeps the current one.
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	if model != "" {
		newConfig.Model = model
	}
	return &newConfig
}

// ModelName returns the configured model, falling back to DefaultModel
func (c *Config) ModelName() string {
	if c == nil || c.Model == "" {
		return DefaultModel
	}
	return c.Model
}
