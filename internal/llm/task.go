package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const taskSystemPrompt = "You work only from the transcript you are given. Do not add facts it does not contain."

// Tasker runs a free-form prompt against one transcript and returns the
// model's text
type Tasker interface {
	Task(ctx context.Context, req TaskRequest) (string, error)
}

// TaskRequest is one free-form generation over a transcript
type TaskRequest struct {
	TranscriptID string
	Prompt       string
	Model        string
}

// Task sends the transcript and prompt to the chat model
func (c *ChatQA) Task(ctx context.Context, req TaskRequest) (string, error) {
	text, err := c.source.Text(ctx, req.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript %s: %w", req.TranscriptID, err)
	}

	prompt := BuildTaskPrompt(text, req.Prompt)
	slog.DebugContext(ctx, "running task", "provider", c.provider.Name(), "prompt_chars", len(prompt))

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		System:      taskSystemPrompt,
		Prompt:      prompt,
		Model:       req.Model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// BuildTaskPrompt places the transcript ahead of the instructions
func BuildTaskPrompt(transcriptText, prompt string) string {
	var b strings.Builder
	b.WriteString("Transcript:\n\"\"\"\n")
	b.WriteString(transcriptText)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString(strings.TrimSpace(prompt))
	return b.String()
}

type lemurTaskRequest struct {
	TranscriptIDs []string `json:"transcript_ids"`
	Prompt        string   `json:"prompt"`
	FinalModel    string   `json:"final_model,omitempty"`
	MaxOutputSize int      `json:"max_output_size,omitempty"`
	Temperature   float32  `json:"temperature"`
}

type lemurTaskResponse struct {
	RequestID string `json:"request_id"`
	Response  string `json:"response"`
}

// Task calls the LeMUR task endpoint, which reads the transcript server side
func (l *LemurQA) Task(ctx context.Context, req TaskRequest) (string, error) {
	var resp lemurTaskResponse
	err := postJSON(ctx, l.httpClient, l.config.attempts(), l.baseURL+"/lemur/v3/generate/task",
		map[string]string{"Authorization": l.apiKey},
		lemurTaskRequest{
			TranscriptIDs: []string{req.TranscriptID},
			Prompt:        req.Prompt,
			FinalModel:    l.finalModel(req.Model),
			MaxOutputSize: l.config.MaxTokens,
			Temperature:   l.config.Temperature,
		}, &resp, errorField)
	if err != nil {
		return "", fmt.Errorf("LeMUR API error: %w", err)
	}
	return resp.Response, nil
}

// Task waits for a token, then delegates when the wrapped client can run tasks
func (r *RateLimitedQA) Task(ctx context.Context, req TaskRequest) (string, error) {
	tasker, ok := r.next.(Tasker)
	if !ok {
		return "", fmt.Errorf("QA client %T cannot run tasks", r.next)
	}
	if err := r.limiter.Wait(ctx, r.key); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return tasker.Task(ctx, req)
}
