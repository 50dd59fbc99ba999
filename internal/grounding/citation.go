package grounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/groundcheck/internal/embed"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/similarity"
)

// CitationEngine grounds claims by embedding similarity against a transcript
// index at sentence, paragraph and chunk granularity
type CitationEngine struct {
	embedder   embed.Provider
	thresholds model.Thresholds
	topK       int
}

// NewCitationEngine creates a citation engine; topK <= 0 uses similarity.DefaultK
func NewCitationEngine(embedder embed.Provider, thresholds model.Thresholds, topK int) *CitationEngine {
	if topK <= 0 {
		topK = similarity.DefaultK
	}
	return &CitationEngine{
		embedder:   embedder,
		thresholds: thresholds,
		topK:       topK,
	}
}

// Thresholds returns the configured cutoffs
func (e *CitationEngine) Thresholds() model.Thresholds {
	return e.thresholds
}

type bestMatch struct {
	text   string
	sim    float64
	margin float64
}

// EvaluateClaim embeds the claim's answer once and cites the granularity with
// the largest positive margin over its threshold. If any granularity has no
// scorable units the claim fails: the returned result still carries the
// margins of the other granularities, and the error is a DegenerateInputError
// naming the empty granularity.
func (e *CitationEngine) EvaluateClaim(ctx context.Context, claim model.Claim, ix *Index) (model.CitationResult, error) {
	if strings.TrimSpace(claim.Answer) == "" {
		return model.CitationResult{}, &DegenerateInputError{Reason: "empty answer"}
	}

	vec, err := e.embedder.Embed(ctx, claim.Answer)
	if err != nil {
		return model.CitationResult{}, embeddingError("embed answer", err)
	}

	var empty error
	matches := make(map[model.Granularity]bestMatch, len(model.Granularities))
	for _, g := range model.Granularities {
		m, err := e.best(vec, g, ix)
		if errors.Is(err, errNoUnits) {
			if empty == nil {
				empty = &DegenerateInputError{Granularity: g, Reason: fmt.Sprintf("no %s units to compare against", g), Err: err}
			}
			matches[g] = m
			continue
		}
		if err != nil {
			return model.CitationResult{}, err
		}
		matches[g] = m
	}

	result := selectCitation(claim, matches)

	best := make(map[model.Granularity]float64, len(matches))
	for g, m := range matches {
		if !math.IsInf(m.margin, -1) {
			best[g] = m.sim
		}
	}

	if empty != nil {
		result.Citation = model.Citation{Reference: model.NoReference, SimilarityScore: matches[model.GranularitySentence].sim}
		result.GroundingThresholdPassed = false
		return result, empty
	}

	recordCitation(ctx, result, best)
	return result, nil
}

// errNoUnits marks a granularity with nothing to rank
var errNoUnits = errors.New("no candidate units")

// best returns the top unit at one granularity. A granularity without
// scorable candidates gets margin -Inf and errNoUnits.
func (e *CitationEngine) best(vec []float32, g model.Granularity, ix *Index) (bestMatch, error) {
	none := bestMatch{margin: math.Inf(-1)}

	embs := ix.Embeddings(g)
	if len(embs) == 0 {
		return none, errNoUnits
	}

	ranking, err := similarity.TopK(vec, embs, e.topK)
	switch {
	case errors.Is(err, similarity.ErrNoCandidates):
		return none, fmt.Errorf("%w: %w", errNoUnits, err)
	case errors.Is(err, similarity.ErrZeroNorm), errors.Is(err, similarity.ErrEmptyVector):
		return none, &DegenerateInputError{Reason: "answer embedding has zero norm", Err: err}
	case errors.Is(err, similarity.ErrDimensionMismatch):
		return none, &DegenerateInputError{Granularity: g, Reason: "answer and unit embeddings differ in dimension", Err: err}
	case err != nil:
		return none, err
	}

	idx, sim, _ := ranking.Best()
	return bestMatch{
		text:   ix.Units(g)[idx].Text,
		sim:    sim,
		margin: sim - e.thresholds.For(g),
	}, nil
}

// selectCitation applies the priority rule: sentence, then paragraph, then
// chunk, each only when its margin is positive and beats the coarser ones.
// Passing depends on the largest margin alone.
func selectCitation(claim model.Claim, matches map[model.Granularity]bestMatch) model.CitationResult {
	s := matches[model.GranularitySentence]
	p := matches[model.GranularityParagraph]
	c := matches[model.GranularityChunk]

	var citation model.Citation
	switch {
	case s.margin > p.margin && s.margin > c.margin && s.margin > 0:
		citation = model.Citation{Reference: s.text, SimilarityScore: s.sim, Granularity: model.GranularitySentence}
	case p.margin > c.margin && p.margin > 0:
		citation = model.Citation{Reference: p.text, SimilarityScore: p.sim, Granularity: model.GranularityParagraph}
	case c.margin > 0:
		citation = model.Citation{Reference: c.text, SimilarityScore: c.sim, Granularity: model.GranularityChunk}
	default:
		citation = model.Citation{Reference: model.NoReference, SimilarityScore: s.sim}
	}

	margins := make(map[model.Granularity]float64, len(matches))
	for g, m := range matches {
		if !math.IsInf(m.margin, -1) {
			margins[g] = m.margin
		}
	}

	return model.CitationResult{
		Question:                 claim.Question,
		Answer:                   claim.Answer,
		Citation:                 citation,
		GroundingThresholdPassed: math.Max(s.margin, math.Max(p.margin, c.margin)) > 0,
		Margins:                  margins,
	}
}

// CheckClaims evaluates claims in input order. Degenerate claims become
// failed results with Error set; a capability failure aborts the batch.
func (e *CitationEngine) CheckClaims(ctx context.Context, claims []model.Claim, ix *Index) ([]model.CitationResult, error) {
	ctx, span := startSpan(ctx, "grounding.citation_check", attribute.Int("claims", len(claims)))
	defer span.End()

	results := make([]model.CitationResult, 0, len(claims))
	for i, claim := range claims {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := e.EvaluateClaim(ctx, claim, ix)
		if err != nil {
			var degenerate *DegenerateInputError
			if !errors.As(err, &degenerate) {
				span.RecordError(err)
				return nil, err
			}

			slog.WarnContext(ctx, "claim could not be scored", "index", i, "granularity", degenerate.Granularity, "reason", degenerate.Reason)
			recordDegenerate(ctx)
			result = model.CitationResult{
				Question: claim.Question,
				Answer:   claim.Answer,
				Citation: model.Citation{Reference: model.NoReference, SimilarityScore: result.Citation.SimilarityScore},
				Margins:  result.Margins,
				Error:    err.Error(),
			}
		}

		results = append(results, result)
	}

	slog.DebugContext(ctx, "citation check complete", "claims", len(claims), "grounded", countGrounded(results))
	return results, nil
}

func countGrounded(results []model.CitationResult) int {
	n := 0
	for _, r := range results {
		if r.GroundingThresholdPassed {
			n++
		}
	}
	return n
}
