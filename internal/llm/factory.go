package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/transcript"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// NewProvider creates a chat provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// NewQAClient creates the structured QA client for a provider. LeMUR resolves
// transcripts itself; chat providers read them from source.
func NewQAClient(config Config, source transcript.Source) (QAClient, error) {
	switch strings.ToLower(config.Provider) {
	case "lemur", "assemblyai":
		return NewLemurQA(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured")
	}

	if source == nil {
		return nil, fmt.Errorf("%s QA needs a transcript source", config.Provider)
	}

	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return NewChatQA(provider, source, config.MaxTokens, config.Temperature), nil
}

// Build wires the configured QA client with its rate limit. limiter may be nil.
func Build(cfg *model.Config, source transcript.Source, limiter *worker.Limiter) (QAClient, error) {
	client, err := NewQAClient(ConfigFromModel(cfg.LLM, cfg.Proxy), source)
	if err != nil {
		return nil, err
	}

	if limiter != nil {
		client = NewRateLimitedQA(client, limiter, strings.ToLower(cfg.LLM.Provider))
	}
	return client, nil
}
