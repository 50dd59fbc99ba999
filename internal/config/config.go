// Package config layers defaults, a YAML file, GROUNDCHECK_* environment
// variables and provider secrets into a model.Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

// EnvPrefix is the prefix of environment overrides, e.g. GROUNDCHECK_LLM_MODEL
const EnvPrefix = "GROUNDCHECK"

// Keys omitted from the default YAML that should still accept env overrides
var extraKeys = []string{
	"embedding.api_key",
	"embedding.base_url",
	"llm.api_key",
	"llm.base_url",
	"transcript.api_key",
	"transcript.base_url",
	"output.json",
	"output.md",
	"proxy.http_proxy",
	"proxy.https_proxy",
	"proxy.no_proxy",
}

// DefaultDir returns ~/.groundcheck
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".groundcheck"), nil
}

// Bind registers defaults and environment lookups on v
func Bind(v *viper.Viper) error {
	defaults, err := flatten(model.DefaultConfig())
	if err != nil {
		return err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range extraKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load decodes v into a validated configuration
func Load(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// flatten turns a config into dotted keys via its YAML form
func flatten(cfg *model.Config) (map[string]interface{}, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}

	out := make(map[string]interface{})
	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for k, val := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]interface{}); ok {
				walk(key, child)
				continue
			}
			out[key] = val
		}
	}
	walk("", tree)

	return out, nil
}
