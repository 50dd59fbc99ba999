package grounding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/segment"
)

// DefaultSummaryPrompt asks for the zero-shot summary
const DefaultSummaryPrompt = "Please summarize this transcript in plain language."

// VerificationQuestionsPrompt renders the sentence-by-sentence question request
func VerificationQuestionsPrompt(summary string) string {
	var sentences []string
	for _, s := range segment.Sentences(summary) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}

	return "Please identify a series of questions that we can ask to verify the accuracy of this summary. " +
		"Focus entirely on the content of the summary, not its style or grammar. " +
		"For every claim the summary makes, write a question whose answer would show whether the claim came from the source material. " +
		"For example, if the summary states 'Barack Obama is from Utah', ask 'Where is Barack Obama from?'\n\n" +
		"Go through each sentence of the summary and write one question for it:\n\n" +
		strings.Join(sentences, "\n")
}

// VerificationAnswersPrompt asks for the questions to be answered from the transcript
func VerificationAnswersPrompt(questions string) string {
	return "Please use the transcript to answer each of the following questions:\n\n" +
		strings.TrimSpace(questions) + "\n\n" +
		"Answer each question with detail where possible. Format your responses as: Question: Answer\n"
}

// SecondShotPrompt asks for a summary rebuilt from the verified answers
func SecondShotPrompt(initial, answers string) string {
	return "In addition to the transcript, you have been given an initial summary of the transcript and a series of questions, answered from the transcript, that verify it.\n\n" +
		"Here is the initial summary:\n\n" + strings.TrimSpace(initial) + "\n\n" +
		"Here are the questions you answered about the initial summary:\n\n" + strings.TrimSpace(answers) + "\n\n" +
		"Please write a new summary that is fully accurate and based entirely on the transcript and those answers. " +
		"If an answer is not in the transcript, do not refer to it in the new summary."
}

// ChainOfVerification rewrites a summary after checking it against the
// transcript: zero-shot summary, verification questions, grounded answers,
// then a second-shot summary
type ChainOfVerification struct {
	tasker        llm.Tasker
	model         string
	summaryPrompt string
}

// NewChainOfVerification creates the verifier; an empty summaryPrompt uses
// DefaultSummaryPrompt
func NewChainOfVerification(tasker llm.Tasker, modelName, summaryPrompt string) *ChainOfVerification {
	if summaryPrompt == "" {
		summaryPrompt = DefaultSummaryPrompt
	}
	return &ChainOfVerification{
		tasker:        tasker,
		model:         modelName,
		summaryPrompt: summaryPrompt,
	}
}

// Run executes the chain. A non-empty initial summary skips the zero-shot
// step, so the chain issues three or four task calls. Any failed call aborts
// the chain with a *CapabilityError.
func (c *ChainOfVerification) Run(ctx context.Context, transcriptID, initial string) (model.Verification, error) {
	ctx, span := startSpan(ctx, "grounding.chain_of_verification", attribute.String("transcript_id", transcriptID))
	defer span.End()

	var v model.Verification
	task := func(step, prompt string) (string, error) {
		v.Calls++
		out, err := c.tasker.Task(ctx, llm.TaskRequest{TranscriptID: transcriptID, Prompt: prompt, Model: c.model})
		if err != nil {
			span.RecordError(err)
			return "", qaError(step, err)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", &DegenerateInputError{Reason: fmt.Sprintf("%s returned no text", step)}
		}
		slog.DebugContext(ctx, "verification step complete", "step", step, "chars", len(out))
		return out, nil
	}

	var err error
	v.InitialSummary = strings.TrimSpace(initial)
	if v.InitialSummary == "" {
		if v.InitialSummary, err = task("zero-shot summary", c.summaryPrompt); err != nil {
			return v, err
		}
	}
	if v.Questions, err = task("verification questions", VerificationQuestionsPrompt(v.InitialSummary)); err != nil {
		return v, err
	}
	if v.Answers, err = task("verification answers", VerificationAnswersPrompt(v.Questions)); err != nil {
		return v, err
	}
	if v.FinalSummary, err = task("second-shot summary", SecondShotPrompt(v.InitialSummary, v.Answers)); err != nil {
		return v, err
	}

	return v, nil
}
