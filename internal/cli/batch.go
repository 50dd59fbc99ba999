package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/fixture"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/worker"
)

var (
	concurrency    int
	outputDir      string
	batchTimeout   time.Duration
	batchMode      string
	claimsDir      string
	batchQuestions string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <ids-file>",
	Short: "Check many transcripts in parallel",
	Long: `Batch runs one check per transcript ID:
- Read transcript IDs from the input file (one per line, # comments allowed)
- Load claims from <claims-dir>/<id>.json, or answer --questions first
- In cov mode no claims are needed; each transcript gets a verified summary
- Process transcripts in parallel with a configurable worker count
- Write a JSON and Markdown report per transcript

Example:
  groundcheck batch ids.txt --claims-dir ./claims
  groundcheck batch ids.txt --questions questions.txt --mode self-check-reask --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent transcripts (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./groundcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchMode, "mode", string(model.ModeCitation), "citation, self-check, self-check-reask, all, cov")
	batchCmd.Flags().StringVar(&claimsDir, "claims-dir", "", "directory of <id>.json claim lists")
	batchCmd.Flags().StringVar(&batchQuestions, "questions", "", "questions asked of every transcript without a claim file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	mode, ok := model.ParseMode(batchMode)
	if !ok || mode == model.ModeSummaryFilter {
		return fmt.Errorf("unsupported batch mode: %s", batchMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	var questions []model.Question
	if batchQuestions != "" {
		questions, err = fixture.LoadQuestions(batchQuestions)
		if err != nil {
			return err
		}
	}
	if claimsDir == "" && len(questions) == 0 && mode != model.ModeVerifySummary {
		return fmt.Errorf("either --claims-dir or --questions is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  groundcheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", mode)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	req := pipeline.RequirementsFor(mode)
	if len(questions) > 0 {
		req.QA = true
	}
	caps, err := pipeline.BuildCapabilities(ctx, cfg, req, nil)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, caps)

	run := func(ctx context.Context, transcriptID string) (*model.Report, error) {
		in := pipeline.RunInput{TranscriptID: transcriptID, Mode: mode, Questions: questions}
		if claimsDir != "" {
			claims, err := fixture.LoadClaims(filepath.Join(claimsDir, transcriptID+".json"))
			switch {
			case err == nil:
				in.Claims = claims
			case !errors.Is(err, os.ErrNotExist) || len(questions) == 0:
				return nil, err
			}
		}
		return p.Run(ctx, in)
	}

	processor := worker.NewBatchProcessor(run, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Processing transcripts with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	renderer := p.Renderer()

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.TranscriptID, result.Error)
			continue
		}

		slug := sanitizeFilename(result.TranscriptID)
		if err := renderer.RenderJSON(result.Report, filepath.Join(outputDir, slug+".json")); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.TranscriptID, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, filepath.Join(outputDir, slug+".md")); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.TranscriptID, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", result.TranscriptID, headline(result.Report))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d transcripts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// headline is the one-line score shown per transcript
func headline(report *model.Report) string {
	var parts []string
	if len(report.Citations) > 0 {
		parts = append(parts, fmt.Sprintf("grounded: %.0f%%", report.Score.GroundedRatio*100))
	}
	if len(report.Verdicts) > 0 {
		parts = append(parts, fmt.Sprintf("self-check: %.0f%%", report.Score.SelfCheckRate*100))
	}
	if len(parts) == 0 {
		return "no claims"
	}
	return strings.Join(parts, ", ")
}

// sanitizeFilename makes a transcript ID safe to use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." || s == ".." {
		s = "transcript"
	}

	return s
}
