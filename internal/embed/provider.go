// Package embed computes text embeddings through pluggable providers.
package embed

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/groundcheck/internal/cache"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Embed returns the embedding of text. Callers must not mutate the result.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds embedding provider configuration
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	Normalize bool
	Proxy     model.ProxyConfig
}

// ConfigFromModel converts model.EmbeddingConfig to embed.Config
func ConfigFromModel(c model.EmbeddingConfig, proxy model.ProxyConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		Normalize: c.Normalize,
		Proxy:     proxy,
	}
}

// NewProvider creates an embedding provider based on configuration
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err = NewOpenAIProvider(config)
	case "ollama":
		p, err = NewOllamaProvider(config)
	case "gemini", "google":
		p, err = NewGeminiProvider(ctx, config)
	case "":
		return nil, fmt.Errorf("no embedding provider configured")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama, gemini)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.Normalize {
		p = &normalizing{next: p}
	}
	return p, nil
}

// Build wires a configured provider with its memo cache and rate limit.
// c and limiter may be nil.
func Build(ctx context.Context, cfg *model.Config, c cache.Cache, limiter *worker.Limiter) (Provider, error) {
	p, err := NewProvider(ctx, ConfigFromModel(cfg.Embedding, cfg.Proxy))
	if err != nil {
		return nil, err
	}

	if limiter != nil {
		p = NewRateLimited(p, limiter)
	}
	if c != nil {
		p = NewCached(p, c, cfg.Embedding.Model)
	}
	return p, nil
}

// Normalize returns v scaled to unit L2 norm; zero vectors are returned as a copy
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

type normalizing struct {
	next Provider
}

func (n *normalizing) Name() string { return n.next.Name() }

func (n *normalizing) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := n.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(v), nil
}
