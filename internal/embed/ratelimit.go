package embed

import (
	"context"
	"fmt"

	"github.com/ppiankov/groundcheck/internal/worker"
)

// RateLimited waits on a shared limiter before every embedding call
type RateLimited struct {
	next    Provider
	limiter *worker.Limiter
	key     string
}

// NewRateLimited wraps a provider; the limiter key is "embed:<provider>"
func NewRateLimited(next Provider, limiter *worker.Limiter) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: limiter,
		key:     "embed:" + next.Name(),
	}
}

// Name returns the wrapped provider name
func (r *RateLimited) Name() string {
	return r.next.Name()
}

// Embed waits for a token, then delegates
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx, r.key); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Embed(ctx, text)
}
