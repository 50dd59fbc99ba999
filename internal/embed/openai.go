package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider embeds text with the OpenAI embeddings API
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Embed embeds a single text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.DebugContext(ctx, "embedding content", "provider", "openai", "model", p.config.Model, "length", len(text))

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.config.Model),
	})
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "provider", "openai", "error", err)
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("OpenAI returned %d embeddings, expected 1", len(resp.Data))
	}

	return resp.Data[0].Embedding, nil
}
