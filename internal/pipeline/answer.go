package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
)

const (
	// AnswerContext is attached to first-shot questions that carry no context of their own
	AnswerContext = "If there is sufficient evidence for an answer to a question, or a question is irrelevant to the transcript, please say so."

	// AnswerFormat is the default answer format for first-shot questions
	AnswerFormat = "single sentence"
)

// Answer asks the LLM the questions once and returns its answers as claims
func (p *Pipeline) Answer(ctx context.Context, transcriptID string, questions []model.Question) ([]model.Claim, error) {
	if p.qa == nil {
		return nil, fmt.Errorf("no QA client configured")
	}
	if len(questions) == 0 {
		return []model.Claim{}, nil
	}

	prepared := make([]model.Question, len(questions))
	for i, q := range questions {
		if q.Context == "" {
			q.Context = AnswerContext
		}
		if q.AnswerFormat == "" {
			q.AnswerFormat = AnswerFormat
		}
		prepared[i] = q
	}

	answers, err := p.qa.AskStructured(ctx, llm.StructuredRequest{
		TranscriptID: transcriptID,
		Questions:    prepared,
		Model:        qaModel(p.config),
	})
	if err != nil {
		return nil, err
	}

	return model.ClaimsFromAnswers(answers), nil
}
