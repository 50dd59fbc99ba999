package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

type answerEnvelope struct {
	Response []model.QAAnswer `json:"response" yaml:"response"`
	Answers  []model.QAAnswer `json:"answers" yaml:"answers"`
}

// DecodeAnswers parses a model reply into answers. It accepts a JSON array,
// an object wrapping the array under "response" or "answers", fenced code
// blocks, and YAML flow syntax (single-quoted strings) as a fallback.
func DecodeAnswers(raw string) ([]model.QAAnswer, error) {
	body := stripFences(strings.TrimSpace(raw))
	if body == "" {
		return nil, fmt.Errorf("empty response")
	}

	candidates := []string{body}
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		if inner := body[start : end+1]; inner != body {
			candidates = append(candidates, inner)
		}
	}

	for _, c := range candidates {
		if answers, ok := decodeJSON(c); ok {
			return answers, nil
		}
	}
	for _, c := range candidates {
		if answers, ok := decodeYAML(c); ok {
			return answers, nil
		}
	}

	return nil, fmt.Errorf("response is not a list of question/answer pairs: %.80q", body)
}

func decodeJSON(s string) ([]model.QAAnswer, bool) {
	var answers []model.QAAnswer
	if err := json.Unmarshal([]byte(s), &answers); err == nil {
		return answers, true
	}

	var env answerEnvelope
	if err := json.Unmarshal([]byte(s), &env); err == nil {
		if env.Response != nil {
			return env.Response, true
		}
		if env.Answers != nil {
			return env.Answers, true
		}
	}
	return nil, false
}

func decodeYAML(s string) ([]model.QAAnswer, bool) {
	var answers []model.QAAnswer
	if err := yaml.Unmarshal([]byte(s), &answers); err == nil && answers != nil {
		return answers, true
	}

	var env answerEnvelope
	if err := yaml.Unmarshal([]byte(s), &env); err == nil {
		if env.Response != nil {
			return env.Response, true
		}
		if env.Answers != nil {
			return env.Answers, true
		}
	}
	return nil, false
}

// stripFences returns the body of the first ``` fenced block, or s unchanged
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}

	rest := s[start+3:]
	// Drop the info string (e.g. "json")
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
