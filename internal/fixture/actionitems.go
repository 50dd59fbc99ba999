package fixture

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

// ActionSection is one "**Header**" block of an action-item response
type ActionSection struct {
	Header string
	Tasks  []string
}

// Text renders the section as its header followed by one task per line
func (s ActionSection) Text() string {
	return s.Header + "\n" + strings.Join(s.Tasks, "\n")
}

// ParseActionItems splits an action-item response into sections.
// A line wrapped in "**" opens a section; following non-blank lines are its tasks.
// Text before the first header is ignored.
func ParseActionItems(response string) []ActionSection {
	var sections []ActionSection
	current := -1

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**") {
			sections = append(sections, ActionSection{
				Header: strings.TrimSpace(trimmed[2 : len(trimmed)-2]),
			})
			current = len(sections) - 1
			continue
		}
		if current >= 0 && trimmed != "" {
			sections[current].Tasks = append(sections[current].Tasks, trimmed)
		}
	}

	return sections
}

// ActionItemClaims turns each section into a claim keyed by its header
func ActionItemClaims(response string) []model.Claim {
	sections := ParseActionItems(response)
	claims := make([]model.Claim, len(sections))
	for i, s := range sections {
		claims[i] = model.Claim{Question: s.Header, Answer: s.Text()}
	}
	return claims
}

// LoadActionItems reads an action-item response file as claims
func LoadActionItems(path string) ([]model.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action items: %w", err)
	}
	return ActionItemClaims(string(data)), nil
}
