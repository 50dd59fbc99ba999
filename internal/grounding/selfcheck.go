package grounding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
)

const (
	// SelfCheckContext is attached to every self-check question
	SelfCheckContext = "It is your job to be a very strict evaluator. If you do not flag an answer to a question as potentially hallucinated, there will be severe consequences. You should pay attention to every detail, particularly when it comes to the mention of proper nouns to ensure that the response has sufficient grounding."

	// SelfCheckAnswerFormat constrains the reply to a bare verdict
	SelfCheckAnswerFormat = "<YES>/<NO>"

	// SelfCheckGlobalContext defines hallucination for the whole batch
	SelfCheckGlobalContext = "An answer is hallucinated if you cannot find sufficient evidence within the transcript to support it. If there is sufficient evidence, make sure you always put YES, and if there is not sufficient evidence, make sure you always put NO. You should answer NO even if the answer is partially supported by the transcript."

	verdictYes = "YES"
	verdictNo  = "NO"
)

// SelfCheckQuestion builds the verification question for one claim
func SelfCheckQuestion(claim model.Claim) model.Question {
	return model.Question{
		Question:     fmt.Sprintf("Is the following answer to this question COMPLETELY grounded in the transcript: %s %s? If not, please return NO", claim.Question, claim.Answer),
		Context:      SelfCheckContext,
		AnswerFormat: SelfCheckAnswerFormat,
	}
}

// SelfChecker asks the LLM capability whether each claim is grounded
type SelfChecker struct {
	qa    llm.QAClient
	model string
}

// NewSelfChecker creates a self-checker; model may be empty for the client default
func NewSelfChecker(qa llm.QAClient, model string) *SelfChecker {
	return &SelfChecker{qa: qa, model: model}
}

// Check verifies every claim in one batched request. Verdicts are
// index-aligned with claims. Only an exact "YES" (after trimming) passes.
func (s *SelfChecker) Check(ctx context.Context, claims []model.Claim, transcriptID string) ([]model.SelfCheckVerdict, error) {
	if len(claims) == 0 {
		return []model.SelfCheckVerdict{}, nil
	}

	ctx, span := startSpan(ctx, "grounding.self_check", attribute.Int("claims", len(claims)))
	defer span.End()

	questions := make([]model.Question, len(claims))
	for i, c := range claims {
		questions[i] = SelfCheckQuestion(c)
	}

	answers, err := s.qa.AskStructured(ctx, llm.StructuredRequest{
		TranscriptID:  transcriptID,
		Questions:     questions,
		GlobalContext: SelfCheckGlobalContext,
		Model:         s.model,
	})
	if err != nil {
		span.RecordError(err)
		return nil, qaError("self-check", err)
	}

	matched := correlate(questions, answers)

	verdicts := make([]model.SelfCheckVerdict, len(claims))
	for i, c := range claims {
		verdicts[i] = interpretVerdict(c, matched[i])
		if verdicts[i].Malformed {
			slog.WarnContext(ctx, "malformed self-check answer", "index", i, "raw", verdicts[i].Raw)
		}
	}

	recordVerdicts(ctx, verdicts)
	slog.DebugContext(ctx, "self-check complete", "claims", len(claims), "answers", len(answers))

	return verdicts, nil
}

func interpretVerdict(claim model.Claim, answer *model.QAAnswer) model.SelfCheckVerdict {
	v := model.SelfCheckVerdict{
		Question: claim.Question,
		Answer:   claim.Answer,
	}
	if answer == nil {
		v.Malformed = true
		return v
	}

	v.Raw = answer.Answer
	trimmed := strings.TrimSpace(answer.Answer)
	v.GroundingThresholdPassed = trimmed == verdictYes
	v.Malformed = trimmed != verdictYes && trimmed != verdictNo
	return v
}
