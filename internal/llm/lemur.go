package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/util"
)

const (
	defaultLemurBaseURL = "https://api.assemblyai.com"
	defaultLemurModel   = "anthropic/claude-3-5-sonnet"
)

// LemurQA calls a LeMUR-style question-answer endpoint, which resolves the
// transcript server side
type LemurQA struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type lemurQuestion struct {
	Question     string `json:"question"`
	Context      string `json:"context,omitempty"`
	AnswerFormat string `json:"answer_format,omitempty"`
}

type lemurRequest struct {
	TranscriptIDs []string        `json:"transcript_ids"`
	Questions     []lemurQuestion `json:"questions"`
	Context       string          `json:"context,omitempty"`
	FinalModel    string          `json:"final_model,omitempty"`
	MaxOutputSize int             `json:"max_output_size,omitempty"`
	Temperature   float32         `json:"temperature"`
}

type lemurResponse struct {
	RequestID string           `json:"request_id"`
	Response  []model.QAAnswer `json:"response"`
}

// NewLemurQA creates a LeMUR QA client
func NewLemurQA(config Config) (*LemurQA, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultLemurBaseURL
	}

	return &LemurQA{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(config.Timeout, 120*time.Second, config.Proxy),
		config:     config,
	}, nil
}

// AskStructured sends all questions in one request
func (l *LemurQA) AskStructured(ctx context.Context, req StructuredRequest) ([]model.QAAnswer, error) {
	if len(req.Questions) == 0 {
		return []model.QAAnswer{}, nil
	}

	finalModel := l.finalModel(req.Model)

	questions := make([]lemurQuestion, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = lemurQuestion{Question: q.Question, Context: q.Context, AnswerFormat: q.AnswerFormat}
	}

	slog.DebugContext(ctx, "asking structured questions", "provider", "lemur", "questions", len(questions))

	var resp lemurResponse
	err := postJSON(ctx, l.httpClient, l.config.attempts(), l.baseURL+"/lemur/v3/question-answer",
		map[string]string{"Authorization": l.apiKey},
		lemurRequest{
			TranscriptIDs: []string{req.TranscriptID},
			Questions:     questions,
			Context:       req.GlobalContext,
			FinalModel:    finalModel,
			MaxOutputSize: l.config.MaxTokens,
			Temperature:   l.config.Temperature,
		}, &resp, errorField)
	if err != nil {
		slog.ErrorContext(ctx, "lemur request failed", "transcript_id", req.TranscriptID, "error", err)
		return nil, fmt.Errorf("LeMUR API error: %w", err)
	}

	return resp.Response, nil
}

func (l *LemurQA) finalModel(requested string) string {
	switch {
	case requested != "":
		return requested
	case l.config.Model != "":
		return l.config.Model
	}
	return defaultLemurModel
}
