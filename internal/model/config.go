package model

import (
	"fmt"
	"time"
)

// Config is the complete groundcheck configuration
type Config struct {
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Transcript   TranscriptConfig   `yaml:"transcript" mapstructure:"transcript"`
	Segmentation SegmentationConfig `yaml:"segmentation" mapstructure:"segmentation"`
	Thresholds   Thresholds         `yaml:"thresholds" mapstructure:"thresholds"`
	TopK         int                `yaml:"top_k" mapstructure:"top_k"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Proxy        ProxyConfig        `yaml:"proxy" mapstructure:"proxy"`
}

// EmbeddingConfig selects and tunes the embedding capability
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, ollama, gemini
	Model             string  `yaml:"model" mapstructure:"model"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	Normalize         bool    `yaml:"normalize" mapstructure:"normalize"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig selects and tunes the structured QA capability
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, lemur
	Model             string  `yaml:"model" mapstructure:"model"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPAttempts      int     `yaml:"http_attempts" mapstructure:"http_attempts"` // Wire attempts per LLM call; 1 disables retries
	SummaryPrompt     string  `yaml:"summary_prompt" mapstructure:"summary_prompt"`
}

// TranscriptConfig selects where transcript text comes from
type TranscriptConfig struct {
	Source  string `yaml:"source" mapstructure:"source"` // dir, assemblyai
	Dir     string `yaml:"dir" mapstructure:"dir"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey  string `yaml:"-" mapstructure:"api_key"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// SegmentationConfig sizes paragraphs and chunks
type SegmentationConfig struct {
	ParagraphSize int `yaml:"paragraph_size" mapstructure:"paragraph_size"`
	WindowSize    int `yaml:"window_size" mapstructure:"window_size"`
}

// CacheConfig controls the embedding memo cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers       int `yaml:"workers" mapstructure:"workers"`               // Transcripts processed in parallel by batch
	EmbedParallel int `yaml:"embed_parallel" mapstructure:"embed_parallel"` // Concurrent embedding calls while indexing
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	JSON    string `yaml:"json,omitempty" mapstructure:"json"`
	MD      string `yaml:"md,omitempty" mapstructure:"md"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// ProxyConfig routes adapter HTTP traffic; empty values fall back to the environment
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Timeout:   30,
			Normalize: true,
			Burst:     5,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			Timeout:       120,
			MaxTokens:     2000,
			Temperature:   0,
			Burst:         1,
			HTTPAttempts:  1,
			SummaryPrompt: "Please summarize this transcript in plain language.",
		},
		Transcript: TranscriptConfig{
			Source:  "dir",
			Dir:     "./transcripts",
			Timeout: 30,
		},
		Segmentation: SegmentationConfig{
			ParagraphSize: 5,
			WindowSize:    3,
		},
		Thresholds: DefaultThresholds(),
		TopK:       3,
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Memory only unless a directory is set
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:       2,
			EmbedParallel: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the engines cannot work with
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Segmentation.ParagraphSize <= 0 {
		return fmt.Errorf("segmentation.paragraph_size must be positive, got %d", c.Segmentation.ParagraphSize)
	}
	if c.LLM.HTTPAttempts < 0 {
		return fmt.Errorf("llm.http_attempts must not be negative, got %d", c.LLM.HTTPAttempts)
	}
	if c.Segmentation.WindowSize <= 0 {
		return fmt.Errorf("segmentation.window_size must be positive, got %d", c.Segmentation.WindowSize)
	}
	return nil
}
