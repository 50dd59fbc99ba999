package llm

import (
	"context"

	"github.com/ppiankov/groundcheck/internal/model"
)

// QAClient answers a batch of structured questions about one transcript
type QAClient interface {
	AskStructured(ctx context.Context, req StructuredRequest) ([]model.QAAnswer, error)
}

// StructuredRequest is one batched question-answer call
type StructuredRequest struct {
	TranscriptID  string
	Questions     []model.Question
	GlobalContext string
	Model         string
}
