package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Secrets are provider credentials and endpoints read from the environment
type Secrets struct {
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	AssemblyAIAPIKey string `envconfig:"ASSEMBLYAI_API_KEY"`
	OllamaBaseURL    string `envconfig:"OLLAMA_BASE_URL"`

	HTTPProxy  string `envconfig:"HTTP_PROXY"`
	HTTPSProxy string `envconfig:"HTTPS_PROXY"`
	NoProxy    string `envconfig:"NO_PROXY"`
}

// LoadSecrets reads .env files, if present, then the process environment.
// Variables already set in the environment win over .env values.
func LoadSecrets(envFiles ...string) (*Secrets, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine; the shell may provide everything
		_ = godotenv.Load(f)
	}

	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Apply fills credentials the configuration does not already carry
func (s *Secrets) Apply(cfg *model.Config) {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = s.keyFor(cfg.Embedding.Provider)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = s.keyFor(cfg.LLM.Provider)
	}
	if cfg.Transcript.APIKey == "" && strings.EqualFold(cfg.Transcript.Source, "assemblyai") {
		cfg.Transcript.APIKey = s.AssemblyAIAPIKey
	}

	if s.OllamaBaseURL != "" {
		if strings.EqualFold(cfg.Embedding.Provider, "ollama") && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = s.OllamaBaseURL
		}
		if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = s.OllamaBaseURL
		}
	}

	if cfg.Proxy.HTTPProxy == "" {
		cfg.Proxy.HTTPProxy = s.HTTPProxy
	}
	if cfg.Proxy.HTTPSProxy == "" {
		cfg.Proxy.HTTPSProxy = s.HTTPSProxy
	}
	if cfg.Proxy.NoProxy == "" {
		cfg.Proxy.NoProxy = s.NoProxy
	}
}

func (s *Secrets) keyFor(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return s.OpenAIAPIKey
	case "anthropic", "claude":
		return s.AnthropicAPIKey
	case "gemini", "google":
		return s.GeminiAPIKey
	case "lemur", "assemblyai":
		return s.AssemblyAIAPIKey
	}
	return ""
}
