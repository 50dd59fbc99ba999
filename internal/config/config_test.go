package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/groundcheck/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Bind(v))

	cfg, err := Load(v)
	require.NoError(t, err)

	def := model.DefaultConfig()
	assert.Equal(t, def.LLM.Model, cfg.LLM.Model)
	assert.Equal(t, def.Thresholds, cfg.Thresholds)
	assert.Equal(t, time.Hour, cfg.Cache.MemoryTTL)
	assert.Equal(t, 1, cfg.LLM.HTTPAttempts)
	assert.Equal(t, def.LLM.SummaryPrompt, cfg.LLM.SummaryPrompt)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROUNDCHECK_LLM_MODEL", "gpt-4o")
	t.Setenv("GROUNDCHECK_THRESHOLDS_SENTENCE", "0.8")
	t.Setenv("GROUNDCHECK_TRANSCRIPT_BASE_URL", "http://transcripts.local")
	t.Setenv("GROUNDCHECK_LLM_HTTP_ATTEMPTS", "3")

	v := viper.New()
	require.NoError(t, Bind(v))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.8, cfg.Thresholds.Sentence, 1e-9)
	assert.Equal(t, "http://transcripts.local", cfg.Transcript.BaseURL)
	assert.Equal(t, 3, cfg.LLM.HTTPAttempts)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedding:
  provider: ollama
  model: nomic-embed-text
top_k: 5
segmentation:
  paragraph_size: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	require.NoError(t, Bind(v))
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 4, cfg.Segmentation.ParagraphSize)
	assert.Equal(t, 3, cfg.Segmentation.WindowSize, "unset keys keep their defaults")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GROUNDCHECK_THRESHOLDS_CHUNK", "1.5")

	v := viper.New()
	require.NoError(t, Bind(v))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoad_NegativeHTTPAttempts(t *testing.T) {
	t.Setenv("GROUNDCHECK_LLM_HTTP_ATTEMPTS", "-1")

	v := viper.New()
	require.NoError(t, Bind(v))

	_, err := Load(v)
	assert.ErrorContains(t, err, "http_attempts")
}

func TestLoadSecrets_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASSEMBLYAI_API_KEY=from-file\n"), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-shell")
	t.Cleanup(func() { os.Unsetenv("ASSEMBLYAI_API_KEY") })

	s, err := LoadSecrets(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", s.AssemblyAIAPIKey)
	assert.Equal(t, "sk-shell", s.OpenAIAPIKey)
}

func TestSecrets_Apply(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "lemur"
	cfg.Embedding.Provider = "ollama"
	cfg.Transcript.Source = "assemblyai"
	cfg.Proxy.HTTPProxy = "http://configured:3128"

	s := &Secrets{
		AssemblyAIAPIKey: "aai-key",
		OllamaBaseURL:    "http://gpu-box:11434",
		HTTPProxy:        "http://env:3128",
		NoProxy:          "localhost",
	}
	s.Apply(cfg)

	assert.Equal(t, "aai-key", cfg.LLM.APIKey)
	assert.Equal(t, "aai-key", cfg.Transcript.APIKey)
	assert.Empty(t, cfg.Embedding.APIKey)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "http://configured:3128", cfg.Proxy.HTTPProxy)
	assert.Equal(t, "localhost", cfg.Proxy.NoProxy)
}
