package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// RateLimitedQA waits on a shared limiter before every batched call
type RateLimitedQA struct {
	next    QAClient
	limiter *worker.Limiter
	key     string
}

// NewRateLimitedQA wraps a QA client; name becomes the limiter key "qa:<name>"
func NewRateLimitedQA(next QAClient, limiter *worker.Limiter, name string) *RateLimitedQA {
	return &RateLimitedQA{
		next:    next,
		limiter: limiter,
		key:     "qa:" + name,
	}
}

// AskStructured waits for a token, then delegates
func (r *RateLimitedQA) AskStructured(ctx context.Context, req StructuredRequest) ([]model.QAAnswer, error) {
	if err := r.limiter.Wait(ctx, r.key); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.AskStructured(ctx, req)
}
