// Package fixture reads claim lists, labelled test sets and action-item
// sections from the loosely formatted text LLM tooling tends to produce.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

// ParseClaims decodes a list of {question, answer} objects.
// Strict JSON is tried first; single-quoted JSON-ish input falls back to YAML flow syntax.
func ParseClaims(data []byte) ([]model.Claim, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return []model.Claim{}, nil
	}

	var claims []model.Claim
	if err := json.Unmarshal([]byte(text), &claims); err == nil {
		return claims, nil
	}

	// YAML single-quoted scalars escape a quote by doubling it
	lenient := strings.ReplaceAll(text, `\'`, `''`)
	if err := yaml.Unmarshal([]byte(lenient), &claims); err != nil {
		return nil, fmt.Errorf("failed to parse claim list: %w", err)
	}

	return claims, nil
}

// ParseQuestions decodes a list of questions the same way as ParseClaims.
// Plain text input is read as one question per non-empty line.
func ParseQuestions(data []byte) ([]model.Question, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return []model.Question{}, nil
	}

	if strings.HasPrefix(text, "[") {
		var questions []model.Question
		if err := json.Unmarshal([]byte(text), &questions); err == nil {
			return questions, nil
		}
		lenient := strings.ReplaceAll(text, `\'`, `''`)
		if err := yaml.Unmarshal([]byte(lenient), &questions); err != nil {
			return nil, fmt.Errorf("failed to parse question list: %w", err)
		}
		return questions, nil
	}

	var questions []model.Question
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, model.Question{Question: line})
	}
	return questions, nil
}

// LoadClaims reads and parses a claim list file
func LoadClaims(path string) ([]model.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read claims: %w", err)
	}
	return ParseClaims(data)
}

// LoadQuestions reads and parses a question list file
func LoadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return ParseQuestions(data)
}
