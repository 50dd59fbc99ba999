package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "embed:openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "qa:lemur"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("embed:openai") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("embed:openai") {
		t.Error("expected allow to fail once the burst is spent")
	}
	if !limiter.Allow("qa:chat") {
		t.Error("expected allow for a different key")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("embed:ollama") {
			t.Fatalf("unlimited limiter rejected request %d", i)
		}
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetRate("qa:lemur", 0.1, 1)

	if !limiter.Allow("qa:lemur") {
		t.Error("first request should pass")
	}
	if limiter.Allow("qa:lemur") {
		t.Error("second request should fail")
	}
	if !limiter.Allow("embed:openai") {
		t.Error("other key should pass")
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	_ = limiter.Allow("embed:gemini")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "embed:gemini"); err == nil {
		t.Error("expected error when the context expires before a token is available")
	}
}
