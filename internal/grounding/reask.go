package grounding

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
)

const (
	// ReaskGlobalContext frames the regeneration batch
	ReaskGlobalContext = "Answer only with information stated in the transcript. If the transcript does not contain the information needed to answer, say that the transcript contains no evidence for it."

	reaskAnswerFormat = "single sentence"
)

// ReaskResult is the merged claim set after one re-ask round
type ReaskResult struct {
	Claims  []model.Claim `json:"claims"`  // Same length and order as the input claims
	Reasked []int         `json:"reasked"` // Indices of claims that were re-asked
}

// ReaskQuestion builds the regeneration question for a failed claim
func ReaskQuestion(claim model.Claim) model.Question {
	return model.Question{
		Question: claim.Question,
		Context: fmt.Sprintf("A previous answer to this question was: %q. That answer could not be verified against the transcript. "+
			"Give a new answer that is fully grounded in the transcript, or state explicitly that the transcript contains no evidence to answer the question.", claim.Answer),
		AnswerFormat: reaskAnswerFormat,
	}
}

// Reasker regenerates answers for claims that failed the self-check
type Reasker struct {
	qa    llm.QAClient
	model string
}

// NewReasker creates a re-ask controller
func NewReasker(qa llm.QAClient, model string) *Reasker {
	return &Reasker{qa: qa, model: model}
}

// Reask sends every failed claim in one batch and substitutes the new answers
// at their original indices. Passing claims are returned verbatim. Without
// failures no request is made. A failed claim that gets no answer keeps its
// original answer.
func (r *Reasker) Reask(ctx context.Context, claims []model.Claim, verdicts []model.SelfCheckVerdict, transcriptID string) (ReaskResult, error) {
	if len(claims) != len(verdicts) {
		return ReaskResult{}, &DegenerateInputError{
			Reason: fmt.Sprintf("%d verdicts for %d claims", len(verdicts), len(claims)),
		}
	}

	merged := make([]model.Claim, len(claims))
	copy(merged, claims)

	var failed []int
	for i, v := range verdicts {
		if !v.GroundingThresholdPassed {
			failed = append(failed, i)
		}
	}
	if len(failed) == 0 {
		return ReaskResult{Claims: merged, Reasked: []int{}}, nil
	}

	ctx, span := startSpan(ctx, "grounding.reask", attribute.Int("failed", len(failed)))
	defer span.End()

	questions := make([]model.Question, len(failed))
	for j, idx := range failed {
		questions[j] = ReaskQuestion(claims[idx])
	}

	answers, err := r.qa.AskStructured(ctx, llm.StructuredRequest{
		TranscriptID:  transcriptID,
		Questions:     questions,
		GlobalContext: ReaskGlobalContext,
		Model:         r.model,
	})
	if err != nil {
		span.RecordError(err)
		return ReaskResult{}, qaError("re-ask", err)
	}

	matched := correlate(questions, answers)
	for j, idx := range failed {
		if matched[j] == nil {
			slog.WarnContext(ctx, "no answer for re-asked claim", "index", idx)
			continue
		}
		merged[idx] = model.Claim{Question: claims[idx].Question, Answer: matched[j].Answer}
	}

	recordReask(ctx, len(failed))
	slog.InfoContext(ctx, "re-asked failed claims", "failed", len(failed), "answers", len(answers))

	return ReaskResult{Claims: merged, Reasked: failed}, nil
}

// SelfCheckWithReask runs the self-check, then re-asks its failures once.
// It issues at most two batched LLM calls and never recurses.
func SelfCheckWithReask(ctx context.Context, checker *SelfChecker, reasker *Reasker, claims []model.Claim, transcriptID string) (ReaskResult, []model.SelfCheckVerdict, error) {
	verdicts, err := checker.Check(ctx, claims, transcriptID)
	if err != nil {
		return ReaskResult{}, nil, err
	}

	result, err := reasker.Reask(ctx, claims, verdicts, transcriptID)
	if err != nil {
		return ReaskResult{}, nil, err
	}
	return result, verdicts, nil
}
