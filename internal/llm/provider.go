// Package llm talks to the external narrative generator. The generator is
// an untrusted collaborator: it must answer in a strict JSON contract that
// maps every generated sentence to the token ids it is grounded in, and a
// response without that map is rejected before it reaches anyone.
package llm

import (
	"context"

	"github.com/ppiankov/evidentia/internal/model"
)

// Provider is one text-generation backend.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw model output
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt for the backend.
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user-turn content
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Completion is the raw backend output before contract validation.
type Completion struct {
	// Text is the raw model output
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// RequestsPerMinute caps the request rate to the backend
	RequestsPerMinute float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:          "", // Disabled by default
		Model:             "",
		Timeout:           60,
		MaxTokens:         4000,
		RequestsPerMinute: 20,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:          modelConfig.Provider,
		Model:             modelConfig.Model,
		APIKey:            modelConfig.APIKey,
		BaseURL:           modelConfig.BaseURL,
		Timeout:           modelConfig.TimeoutSeconds,
		MaxTokens:         modelConfig.MaxTokens,
		RequestsPerMinute: modelConfig.RequestsPerMinute,
	}
}
