package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Renderer writes reports as JSON, Markdown and a console summary
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the report as indented JSON. A path of "-" writes to stdout.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RenderMarkdown writes the report as Markdown. A path of "-" writes to stdout.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	md := r.Markdown(report)
	if path == "-" {
		_, err := io.WriteString(os.Stdout, md)
		return err
	}
	return os.WriteFile(path, []byte(md), 0644)
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Grounding Report: %s\n\n", report.TranscriptID)
	fmt.Fprintf(&b, "- **Run:** `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- **Mode:** %s\n", report.Mode)
	fmt.Fprintf(&b, "- **Started:** %s\n", report.StartedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Thresholds:** sentence %.2f, paragraph %.2f, chunk %.2f\n\n",
		report.Thresholds.Sentence, report.Thresholds.Paragraph, report.Thresholds.Chunk)

	b.WriteString("## Signals\n\n")
	if len(report.Score.Signals) == 0 {
		b.WriteString("_No signals._\n\n")
	} else {
		b.WriteString("| Signal | Severity | Description |\n|---|---|---|\n")
		for _, s := range report.Score.Signals {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Type, severityIcon(s.Severity), escapeCell(s.Description))
		}
		b.WriteString("\n")
	}

	if len(report.Citations) > 0 {
		b.WriteString("## Citations\n\n")
		b.WriteString("| # | Question | Answer | Passed | Granularity | Similarity | Reference |\n|---|---|---|---|---|---|---|\n")
		for i, c := range report.Citations {
			granularity := string(c.Citation.Granularity)
			if granularity == "" {
				granularity = "-"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %.3f | %s |\n",
				i, escapeCell(c.Question), escapeCell(c.Answer), passMark(c.GroundingThresholdPassed),
				granularity, c.Citation.SimilarityScore, escapeCell(c.Citation.Reference))
		}
		b.WriteString("\n")
	}

	if len(report.Verdicts) > 0 {
		b.WriteString("## Self-Check\n\n")
		b.WriteString("| # | Question | Answer | Verdict |\n|---|---|---|---|\n")
		for i, v := range report.Verdicts {
			verdict := passMark(v.GroundingThresholdPassed)
			if v.Malformed {
				verdict += " (malformed: " + escapeCell(v.Raw) + ")"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i, escapeCell(v.Question), escapeCell(v.Answer), verdict)
		}
		b.WriteString("\n")
	}

	if len(report.Reasked) > 0 {
		b.WriteString("## Re-asked Claims\n\n")
		for _, i := range report.Reasked {
			if i < len(report.FinalClaims) {
				fmt.Fprintf(&b, "- **%s**\n  - before: %s\n  - after: %s\n",
					report.FinalClaims[i].Question, report.Claims[i].Answer, report.FinalClaims[i].Answer)
			}
		}
		b.WriteString("\n")
	}

	if v := report.Verification; v != nil {
		b.WriteString("## Chain of Verification\n\n")
		fmt.Fprintf(&b, "_%d task calls._\n\n", v.Calls)
		b.WriteString("### Initial Summary\n\n" + v.InitialSummary + "\n\n")
		b.WriteString("### Verification Questions\n\n" + v.Questions + "\n\n")
		b.WriteString("### Answers\n\n" + v.Answers + "\n\n")
		b.WriteString("### Revised Summary\n\n" + v.FinalSummary + "\n\n")
	}

	if report.Summary != nil {
		b.WriteString("## Filtered Summary\n\n")
		b.WriteString(report.Summary.Filtered)
		b.WriteString("\n\n")
		if len(report.Summary.Dropped) > 0 {
			b.WriteString("### Removed Sentences\n\n")
			for _, s := range report.Summary.Dropped {
				fmt.Fprintf(&b, "- %s\n", s)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderSummary prints a short console summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Transcript: %s (%s)\n", report.TranscriptID, report.Mode)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	if len(report.Citations) > 0 {
		fmt.Fprintf(w, "  Grounded ratio:   %.0f%%\n", report.Score.GroundedRatio*100)
	}
	if len(report.Verdicts) > 0 {
		fmt.Fprintf(w, "  Self-check rate:  %.0f%%\n", report.Score.SelfCheckRate*100)
	}
	if len(report.Reasked) > 0 {
		fmt.Fprintf(w, "  Re-asked:         %d\n", len(report.Reasked))
	}
	if report.Verification != nil {
		fmt.Fprintf(w, "  Task calls:       %d\n", report.Verification.Calls)
	}
	if report.Summary != nil {
		fmt.Fprintf(w, "  Summary kept:     %d/%d sentences\n",
			len(report.Summary.Kept), len(report.Summary.Kept)+len(report.Summary.Dropped))
	}
	fmt.Fprintln(w)

	for _, s := range report.Score.Signals {
		fmt.Fprintf(w, "  %s %s\n", severityIcon(s.Severity), s.Description)
	}
	fmt.Fprintln(w)
}

func severityIcon(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityWarning:
		return "🟡"
	default:
		return "🟢"
	}
}

func passMark(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
