package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meeting-42", "meeting-42"},
		{"a/b:c", "a_b_c"},
		{"two words", "two-words"},
		{"..", "transcript"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeadline(t *testing.T) {
	report := &model.Report{
		Citations: []model.CitationResult{{}},
		Verdicts:  []model.SelfCheckVerdict{{}},
		Score:     model.Score{GroundedRatio: 0.5, SelfCheckRate: 1},
	}
	if got := headline(report); got != "grounded: 50%, self-check: 100%" {
		t.Errorf("unexpected headline: %q", got)
	}
	if got := headline(&model.Report{}); got != "no claims" {
		t.Errorf("unexpected empty headline: %q", got)
	}
}

func TestDefaultConfigFile(t *testing.T) {
	content, err := defaultConfigFile()
	if err != nil {
		t.Fatalf("defaultConfigFile failed: %v", err)
	}

	cfg := model.DefaultConfig()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		t.Fatalf("generated config is not valid YAML: %v", err)
	}
	if cfg.TopK != model.DefaultConfig().TopK {
		t.Errorf("round-tripped top_k = %d", cfg.TopK)
	}
	if strings.Contains(string(content), "api_key") {
		t.Error("config file must not contain API keys")
	}
}

func tuningCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "check"}
	cmd.Flags().Float64Var(&sentenceCutoff, "sentence-threshold", 0, "")
	cmd.Flags().Float64Var(&paragraphCutoff, "paragraph-threshold", 0, "")
	cmd.Flags().Float64Var(&chunkCutoff, "chunk-threshold", 0, "")
	cmd.Flags().IntVar(&topK, "top-k", 0, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestApplyTuningFlags(t *testing.T) {
	cfg := model.DefaultConfig()
	if err := applyTuningFlags(tuningCmd(t, "--sentence-threshold", "0.7", "--top-k", "5"), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Thresholds.Sentence != 0.7 || cfg.TopK != 5 {
		t.Errorf("overrides not applied: %+v top_k=%d", cfg.Thresholds, cfg.TopK)
	}
	if cfg.Thresholds.Paragraph != model.DefaultConfig().Thresholds.Paragraph {
		t.Error("unset flag must not change the paragraph threshold")
	}
}

func TestApplyTuningFlags_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"threshold above one", []string{"--sentence-threshold", "3"}},
		{"threshold below minus one", []string{"--chunk-threshold", "-1.5"}},
		{"zero top-k", []string{"--top-k", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := applyTuningFlags(tuningCmd(t, tt.args...), model.DefaultConfig()); err == nil {
				t.Errorf("expected %v to be rejected", tt.args)
			}
		})
	}
}
