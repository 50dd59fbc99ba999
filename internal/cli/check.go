package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/fixture"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
)

var (
	checkMode       string
	claimsFile      string
	questionsFile   string
	actionItemsFile string
	summaryFile     string
	outJSON         string
	outMD           string
	timeout         time.Duration
	sentenceCutoff  float64
	paragraphCutoff float64
	chunkCutoff     float64
	topK            int
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <transcript-id>",
	Short: "Ground claims about one transcript",
	Long: `Check verifies claims about a single transcript:
- Citation: cite the most similar sentence, paragraph or chunk for each answer
- Self-check: ask the LLM whether each answer is supported (YES/NO)
- Self-check with re-ask: regenerate failed answers once
- Summary: drop summary sentences without textual support
- Chain of verification: draft a summary, verify it with questions answered
  from the transcript, rewrite it, then filter the rewrite like a summary

Claims come from a JSON (or single-quoted JSON-ish) list of
{"question","answer"} objects, from action-item sections, or are produced
by asking --questions first.

Example:
  groundcheck check meeting-42 --claims qa.json
  groundcheck check meeting-42 --claims qa.json --mode all --md report.md
  groundcheck check meeting-42 --questions questions.txt --mode self-check-reask
  groundcheck check meeting-42 --summary summary.txt --mode summary
  groundcheck check meeting-42 --mode cov`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Input flags
	checkCmd.Flags().StringVar(&checkMode, "mode", string(model.ModeCitation), "citation, self-check, self-check-reask, summary, all, cov")
	checkCmd.Flags().StringVar(&claimsFile, "claims", "", "claim list file")
	checkCmd.Flags().StringVar(&questionsFile, "questions", "", "questions to answer before checking (one per line or a list)")
	checkCmd.Flags().StringVar(&actionItemsFile, "action-items", "", "action-item response with **Header** sections")
	checkCmd.Flags().StringVar(&summaryFile, "summary", "", "summary text to filter (the initial summary in cov mode)")

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (- for stdout)")

	// Tuning flags
	checkCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall check timeout")
	checkCmd.Flags().Float64Var(&sentenceCutoff, "sentence-threshold", 0, "override the sentence similarity threshold")
	checkCmd.Flags().Float64Var(&paragraphCutoff, "paragraph-threshold", 0, "override the paragraph similarity threshold")
	checkCmd.Flags().Float64Var(&chunkCutoff, "chunk-threshold", 0, "override the chunk similarity threshold")
	checkCmd.Flags().IntVar(&topK, "top-k", 0, "override the number of candidates ranked per granularity")
}

func runCheck(cmd *cobra.Command, args []string) error {
	transcriptID := args[0]

	mode, ok := model.ParseMode(checkMode)
	if !ok {
		return fmt.Errorf("unknown mode: %s", checkMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTuningFlags(cmd, cfg); err != nil {
		return err
	}

	in := pipeline.RunInput{TranscriptID: transcriptID, Mode: mode}
	if err := loadInputs(&in); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", transcriptID)
		fmt.Fprintf(os.Stderr, "Mode: %s\n", mode)
		fmt.Fprintf(os.Stderr, "Claims: %d, questions: %d\n", len(in.Claims), len(in.Questions))
		fmt.Fprintln(os.Stderr)
	}

	req := pipeline.RequirementsFor(mode)
	if len(in.Claims) == 0 && len(in.Questions) > 0 {
		req.QA = true
	}
	caps, err := pipeline.BuildCapabilities(ctx, cfg, req, nil)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, caps)

	report, err := p.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Checked %d claims\n", len(report.Claims))
		if len(report.Reasked) > 0 {
			fmt.Fprintf(os.Stderr, "✓ Re-asked %d claims\n", len(report.Reasked))
		}
		fmt.Fprintln(os.Stderr)
	}

	return renderReport(p.Renderer(), report, outJSON, outMD, cfg.Output.Verbose)
}

// applyTuningFlags overrides thresholds and top-k when their flags were given
// and validates the result
func applyTuningFlags(cmd *cobra.Command, cfg *model.Config) error {
	if cmd.Flags().Changed("sentence-threshold") {
		cfg.Thresholds.Sentence = sentenceCutoff
	}
	if cmd.Flags().Changed("paragraph-threshold") {
		cfg.Thresholds.Paragraph = paragraphCutoff
	}
	if cmd.Flags().Changed("chunk-threshold") {
		cfg.Thresholds.Chunk = chunkCutoff
	}
	if cmd.Flags().Changed("top-k") {
		cfg.TopK = topK
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid tuning flags: %w", err)
	}
	return nil
}

// loadInputs reads the claim, question and summary files named by flags
func loadInputs(in *pipeline.RunInput) error {
	if claimsFile != "" {
		claims, err := fixture.LoadClaims(claimsFile)
		if err != nil {
			return err
		}
		in.Claims = append(in.Claims, claims...)
	}

	if actionItemsFile != "" {
		claims, err := fixture.LoadActionItems(actionItemsFile)
		if err != nil {
			return err
		}
		in.Claims = append(in.Claims, claims...)
	}

	if questionsFile != "" {
		questions, err := fixture.LoadQuestions(questionsFile)
		if err != nil {
			return err
		}
		in.Questions = questions
	}

	if summaryFile != "" {
		data, err := os.ReadFile(summaryFile)
		if err != nil {
			return fmt.Errorf("failed to read summary: %w", err)
		}
		in.Summary = string(data)
	}

	return nil
}

// renderReport writes the requested outputs and prints the console summary
func renderReport(r *pipeline.Renderer, report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && mdPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	r.RenderSummary(os.Stderr, report)
	return nil
}
