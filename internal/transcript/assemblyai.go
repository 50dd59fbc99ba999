package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/util"
)

const defaultAssemblyAIBaseURL = "https://api.assemblyai.com"

// AssemblyAISource fetches completed transcripts from the AssemblyAI API
type AssemblyAISource struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type assemblyAITranscript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// NewAssemblyAISource creates an AssemblyAI-backed source
func NewAssemblyAISource(cfg model.TranscriptConfig, proxy model.ProxyConfig) (*AssemblyAISource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAssemblyAIBaseURL
	}

	return &AssemblyAISource{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(cfg.Timeout, 30*time.Second, proxy),
	}, nil
}

// Text returns the text of a completed transcript
func (s *AssemblyAISource) Text(ctx context.Context, transcriptID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v2/transcript/%s", s.baseURL, url.PathEscape(transcriptID))

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", s.apiKey)
		return req, nil
	}

	resp, err := util.DoWithRetry(ctx, s.httpClient, newReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, transcriptID)
	}
	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "transcript lookup failed", "status", resp.StatusCode)
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var t assemblyAITranscript
	if err := json.Unmarshal(body, &t); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	switch t.Status {
	case "completed":
		return t.Text, nil
	case "error":
		return "", fmt.Errorf("transcript %s failed: %s", transcriptID, t.Error)
	default:
		return "", fmt.Errorf("transcript %s is not ready (status %q)", transcriptID, t.Status)
	}
}
