package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/fixture"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/transcript"
)

var (
	evalMode    string
	evalJSON    string
	evalTimeout time.Duration
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <testset.json>",
	Short: "Measure hallucination detection on a labelled test set",
	Long: `Eval runs a grounding strategy over a labelled test set. Each record
carries transcript_id, transcript_text, qa_success, qa_hallucinated and
qa_hallucinated_label.

For every record two claim sets are checked:
- qa_success should pass completely
- qa_hallucinated should be flagged exactly at the labelled claims

"partial" means every labelled hallucination was flagged, "exact" means the
flagged claims are precisely the labelled ones.

Example:
  groundcheck eval testset.json
  groundcheck eval testset.json --mode self-check --json eval.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalMode, "mode", string(model.ModeCitation), "citation or self-check")
	evalCmd.Flags().StringVar(&evalJSON, "json", "", "write per-record evaluations as JSON")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for the evaluation")
}

// evalOutput is the JSON written by --json
type evalOutput struct {
	Mode        model.Mode           `json:"mode"`
	Metrics     fixture.Metrics      `json:"metrics"`
	Evaluations []fixture.Evaluation `json:"evaluations"`
}

func runEval(cmd *cobra.Command, args []string) error {
	mode, ok := model.ParseMode(evalMode)
	if !ok || (mode != model.ModeCitation && mode != model.ModeSelfCheck) {
		return fmt.Errorf("eval supports citation or self-check, got %s", evalMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := fixture.LoadTestSet(args[0])
	if err != nil {
		return err
	}

	// Transcripts come from the test set itself
	source := make(transcript.Static, len(records))
	for _, r := range records {
		source[r.TranscriptID] = r.TranscriptText
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	caps, err := pipeline.BuildCapabilities(ctx, cfg, pipeline.RequirementsFor(mode), source)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, caps)

	fmt.Fprintf(os.Stderr, "⚙️  Evaluating %d records (%s)...\n\n", len(records), mode)

	var evals []fixture.Evaluation
	for _, r := range records {
		success, err := r.SuccessClaims()
		if err != nil {
			return err
		}
		hallucinated, err := r.HallucinatedClaims()
		if err != nil {
			return err
		}
		labels, err := r.Labels()
		if err != nil {
			return err
		}

		for _, set := range []struct {
			name   string
			claims []model.Claim
			labels []model.Claim
		}{
			{"success", success, nil},
			{"hallucinated", hallucinated, labels},
		} {
			passed, err := decide(ctx, p, mode, r.TranscriptID, set.claims)
			if err != nil {
				return fmt.Errorf("record %s (%s): %w", r.TranscriptID, set.name, err)
			}

			e := fixture.Evaluate(set.claims, set.labels, passed)
			e.TranscriptID = r.TranscriptID
			e.Set = set.name
			evals = append(evals, e)

			fmt.Fprintf(os.Stderr, "%s %s %-12s flagged %v, labelled %v\n",
				passMarkCLI(e.Exact), r.TranscriptID, set.name, e.Flagged, e.Labeled)
		}
	}

	metrics := fixture.Summarize(evals)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Evaluation Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Claim sets:  %d\n", metrics.Evaluations)
	fmt.Fprintf(os.Stderr, "  Partial:     %d (%.0f%%)\n", metrics.Partial, metrics.PartialRate*100)
	fmt.Fprintf(os.Stderr, "  Exact:       %d (%.0f%%)\n", metrics.Exact, metrics.ExactRate*100)
	fmt.Fprintf(os.Stderr, "\n")

	if evalJSON != "" {
		data, err := json.MarshalIndent(evalOutput{Mode: mode, Metrics: metrics, Evaluations: evals}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal evaluations: %w", err)
		}
		if err := os.WriteFile(evalJSON, data, 0644); err != nil {
			return fmt.Errorf("write evaluations: %w", err)
		}
	}

	return nil
}

// decide returns the per-claim grounding decision of one strategy
func decide(ctx context.Context, p *pipeline.Pipeline, mode model.Mode, transcriptID string, claims []model.Claim) ([]bool, error) {
	passed := make([]bool, len(claims))

	if mode == model.ModeSelfCheck {
		verdicts, err := p.LLMSelfCheck(ctx, claims, transcriptID)
		if err != nil {
			return nil, err
		}
		for i, v := range verdicts {
			passed[i] = v.GroundingThresholdPassed
		}
		return passed, nil
	}

	results, err := p.CitationCheck(ctx, claims, transcriptID)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		passed[i] = r.GroundingThresholdPassed
	}
	return passed, nil
}

func passMarkCLI(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
