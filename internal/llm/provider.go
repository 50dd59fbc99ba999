// Package llm answers structured questions about transcripts through chat
// models or a transcript-native QA service.
package llm

import (
	"context"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Provider defines the interface for chat completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete returns the model's reply to a single prompt
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one chat completion
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // Overrides Config.Model when set
	MaxTokens   int
	Temperature float32
}

// CompletionResponse contains the model's output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "lemur"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/AssemblyAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	Temperature float32

	// HTTPAttempts bounds wire requests per call for the HTTP adapters; <= 1 means no retries
	HTTPAttempts int

	Proxy model.ProxyConfig
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   120,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig, proxy model.ProxyConfig) Config {
	return Config{
		Provider:     c.Provider,
		Model:        c.Model,
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		Timeout:      c.Timeout,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		HTTPAttempts: c.HTTPAttempts,
		Proxy:        proxy,
	}
}

func (c Config) maxTokens(req int) int {
	if req > 0 {
		return req
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2000
}

func (c Config) attempts() int {
	if c.HTTPAttempts < 1 {
		return 1
	}
	return c.HTTPAttempts
}
