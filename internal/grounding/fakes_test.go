package grounding

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
)

// mapEmbedder returns fixed vectors by exact text and fails on unknown text
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  string
	calls   int
}

func (m *mapEmbedder) Name() string { return "map" }

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if text == m.failOn {
		return nil, fmt.Errorf("embedding service unavailable")
	}
	v, ok := m.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

// fakeQA records requests and answers them with respond
type fakeQA struct {
	mu       sync.Mutex
	requests []llm.StructuredRequest
	respond  func(req llm.StructuredRequest) ([]model.QAAnswer, error)
}

func (f *fakeQA) AskStructured(ctx context.Context, req llm.StructuredRequest) ([]model.QAAnswer, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

// answerEach answers every question in order with the given answers
func answerEach(answers ...string) func(req llm.StructuredRequest) ([]model.QAAnswer, error) {
	return func(req llm.StructuredRequest) ([]model.QAAnswer, error) {
		out := make([]model.QAAnswer, 0, len(req.Questions))
		for i, q := range req.Questions {
			if i >= len(answers) {
				break
			}
			out = append(out, model.QAAnswer{Question: q.Question, Answer: answers[i]})
		}
		return out, nil
	}
}
