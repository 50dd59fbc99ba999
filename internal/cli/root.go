package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/groundcheck/internal/config"
	"github.com/ppiankov/groundcheck/internal/logging"
	"github.com/ppiankov/groundcheck/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundcheck",
	Short: "groundcheck - ground LLM answers and summaries in transcript text",
	Long: `groundcheck checks statements an LLM made about a transcript against
the transcript itself and flags the ones without textual support.

Two independent strategies are available:
- Citation: embed transcript sentences, paragraphs and sliding-window chunks
  and cite the best match above a per-granularity threshold
- Self-check: ask the LLM whether each answer is supported by the transcript,
  then re-ask the failures once

groundcheck reports evidence. It does not decide what is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("groundcheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.groundcheck/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("transcripts", "", "directory of <id>.txt|.json|.html transcripts")
	flags.String("transcript-source", "", "transcript source (dir, assemblyai)")
	flags.String("embedding-provider", "", "embedding provider (openai, ollama, gemini)")
	flags.String("embedding-model", "", "embedding model name")
	flags.String("llm-provider", "", "LLM provider (openai, anthropic, ollama, lemur)")
	flags.String("llm-model", "", "LLM model name")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	// Bind flags to viper keys
	bindings := map[string]string{
		"output.verbose":     "verbose",
		"transcript.dir":     "transcripts",
		"transcript.source":  "transcript-source",
		"embedding.provider": "embedding-provider",
		"embedding.model":    "embedding-model",
		"llm.provider":       "llm-provider",
		"llm.model":          "llm-model",
		"logging.level":      "log-level",
		"logging.format":     "log-format",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := config.Bind(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding configuration: %v\n", err)
		return
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration, fills secrets and installs logging
func loadConfig() (*model.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	secrets.Apply(cfg)

	level := cfg.Logging.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	if err := logging.Setup(level, cfg.Logging.Format); err != nil {
		return nil, err
	}

	return cfg, nil
}
