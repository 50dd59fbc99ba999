package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/transcript"
)

const qaSystemPrompt = "You answer questions about a transcript using only what the transcript says. Reply with a JSON array and nothing else."

// ChatQA answers structured questions by sending the transcript and all
// questions to a chat model in one prompt
type ChatQA struct {
	provider    Provider
	source      transcript.Source
	maxTokens   int
	temperature float32
}

// NewChatQA creates a chat-backed QA client
func NewChatQA(provider Provider, source transcript.Source, maxTokens int, temperature float32) *ChatQA {
	return &ChatQA{
		provider:    provider,
		source:      source,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// AskStructured answers every question in one completion call
func (c *ChatQA) AskStructured(ctx context.Context, req StructuredRequest) ([]model.QAAnswer, error) {
	if len(req.Questions) == 0 {
		return []model.QAAnswer{}, nil
	}

	text, err := c.source.Text(ctx, req.TranscriptID)
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", req.TranscriptID, err)
	}

	prompt := BuildQAPrompt(text, req)
	slog.DebugContext(ctx, "asking structured questions",
		"provider", c.provider.Name(),
		"questions", len(req.Questions),
		"prompt_chars", len(prompt))

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		System:      qaSystemPrompt,
		Prompt:      prompt,
		Model:       req.Model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, err
	}

	answers, err := DecodeAnswers(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("decode %s answers: %w", c.provider.Name(), err)
	}

	slog.DebugContext(ctx, "structured answers received",
		"provider", c.provider.Name(),
		"answers", len(answers),
		"tokens", resp.TokensUsed)

	return answers, nil
}

// BuildQAPrompt renders the transcript and questions into one prompt
func BuildQAPrompt(transcriptText string, req StructuredRequest) string {
	var b strings.Builder

	if req.GlobalContext != "" {
		b.WriteString(req.GlobalContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Transcript:\n\"\"\"\n")
	b.WriteString(transcriptText)
	b.WriteString("\n\"\"\"\n\n")

	b.WriteString("Answer each question below using only the transcript. ")
	b.WriteString("Return a JSON array with one object per question, in the same order, ")
	b.WriteString(`each shaped {"question": "<question copied verbatim>", "answer": "<answer>"}. `)
	b.WriteString("Follow the answer format when one is given.\n\n")

	for i, q := range req.Questions {
		fmt.Fprintf(&b, "%d. Question: %s\n", i+1, q.Question)
		if q.Context != "" {
			fmt.Fprintf(&b, "   Context: %s\n", q.Context)
		}
		if q.AnswerFormat != "" {
			fmt.Fprintf(&b, "   Answer format: %s\n", q.AnswerFormat)
		}
	}

	return b.String()
}
