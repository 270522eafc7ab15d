package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash", config.ModelName())
	assert.Equal(t, 0.2, config.Temperature)
}

func TestModelName_Fallback(t *testing.T) {
	var nilConfig *Config
	assert.Equal(t, DefaultModel, nilConfig.ModelName())
	assert.Equal(t, DefaultModel, (&Config{}).ModelName())
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel("custom-model")

	// Original should be unchanged
	assert.Equal(t, DefaultModel, config.ModelName())
	assert.Equal(t, "custom-model", newConfig.ModelName())
	assert.Equal(t, config.Temperature, newConfig.Temperature)

	// Empty model keeps the current one
	assert.Equal(t, DefaultModel, config.WithModel("").ModelName())
}
