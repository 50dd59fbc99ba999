package grounding

import (
	"context"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/segment"
)

// SummaryResult splits a summary into supported and unsupported sentences
type SummaryResult struct {
	Kept     []string               `json:"kept"`
	Filtered []string               `json:"filtered"` // Sentences removed for lack of support
	Results  []model.CitationResult `json:"results"`
}

// Text rejoins the kept sentences with the sentence delimiter
func (r SummaryResult) Text() string {
	return strings.Join(r.Kept, segment.SentenceDelimiter)
}

// FilterSummary cites every summary sentence against the index and keeps
// those that pass. Whitespace-only sentences are ignored.
func FilterSummary(ctx context.Context, engine *CitationEngine, summary string, ix *Index) (SummaryResult, error) {
	var claims []model.Claim
	for _, s := range segment.Sentences(summary) {
		if strings.TrimSpace(s) != "" {
			claims = append(claims, model.Claim{Answer: s})
		}
	}

	results, err := engine.CheckClaims(ctx, claims, ix)
	if err != nil {
		return SummaryResult{}, err
	}

	out := SummaryResult{
		Kept:     []string{},
		Filtered: []string{},
		Results:  results,
	}
	for _, r := range results {
		if r.GroundingThresholdPassed {
			out.Kept = append(out.Kept, r.Answer)
		} else {
			out.Filtered = append(out.Filtered, r.Answer)
		}
	}
	return out, nil
}
