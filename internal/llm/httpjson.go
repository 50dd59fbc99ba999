package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/groundcheck/internal/util"
)

// apiErrorFunc extracts a readable message from a non-200 body, or "" when
// the body has no recognizable error
type apiErrorFunc func(body []byte) string

// postJSON posts in as JSON and decodes a 200 response into out. Transient
// failures are retried until attempts requests have been sent.
func postJSON(ctx context.Context, client *http.Client, attempts int, url string, headers map[string]string, in, out any, apiErr apiErrorFunc) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	newReq := func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	}

	httpResp, err := util.DoWithAttempts(ctx, client, attempts, newReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if apiErr != nil {
			if msg := apiErr(respBody); msg != "" {
				return fmt.Errorf("API error (%d): %s", httpResp.StatusCode, msg)
			}
		}
		return fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorField reads {"error": "..."} bodies used by Ollama and LeMUR
func errorField(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}
