package util

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxAttempts is the number of tries an adapter request gets
const MaxAttempts = 3

// retrySleep waits between attempts; tests replace it
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoWithRetry sends the request built by newReq with up to MaxAttempts tries
func DoWithRetry(ctx context.Context, client *http.Client, newReq func() (*http.Request, error)) (*http.Response, error) {
	return DoWithAttempts(ctx, client, MaxAttempts, newReq)
}

// DoWithAttempts sends the request built by newReq and retries transient
// failures (429, 5xx, timeouts, refused or reset connections) with exponential
// backoff, trying at most attempts times. attempts <= 1 sends exactly once.
// newReq is called once per attempt so request bodies can be replayed.
func DoWithAttempts(ctx context.Context, client *http.Client, attempts int, newReq func() (*http.Request, error)) (*http.Response, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		resp *http.Response
		err  error
	)

	for attempt := 0; attempt < attempts; attempt++ {
		req, reqErr := newReq()
		if reqErr != nil {
			return nil, reqErr
		}

		resp, err = client.Do(req)

		var retryable bool
		if err != nil {
			retryable = IsRetryableNetworkError(err)
		} else {
			retryable = IsRetryableStatus(resp.StatusCode)
		}
		if !retryable || attempt == attempts-1 {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if sleepErr := retrySleep(ctx, backoff); sleepErr != nil {
			return nil, sleepErr
		}
	}

	return resp, err
}

// IsRetryableStatus reports 429 and 5xx responses
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// IsRetryableNetworkError reports transient transport failures. Context
// cancellation is never retried.
func IsRetryableNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
