package grounding

import (
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

// correlate assigns answers to questions. When every question is unique,
// exact question text decides and text matches are never overridden; a single
// leftover question is paired with the single unconsumed answer. Position is
// used only when no answer echoes any question text (or questions repeat) and
// the counts agree. A nil slot means no answer was found for that question.
func correlate(questions []model.Question, answers []model.QAAnswer) []*model.QAAnswer {
	out := make([]*model.QAAnswer, len(questions))

	if uniqueQuestions(questions) {
		byText := make(map[string]int, len(answers))
		for i := range answers {
			key := strings.TrimSpace(answers[i].Question)
			if _, dup := byText[key]; !dup {
				byText[key] = i
			}
		}

		consumed := make([]bool, len(answers))
		var unmatched []int
		for i, q := range questions {
			if j, ok := byText[strings.TrimSpace(q.Question)]; ok {
				out[i] = &answers[j]
				consumed[j] = true
				continue
			}
			unmatched = append(unmatched, i)
		}

		switch {
		case len(unmatched) == 0:
			return out
		case len(unmatched) < len(questions):
			if len(unmatched) == 1 {
				if j, ok := soleUnconsumed(consumed); ok {
					out[unmatched[0]] = &answers[j]
				}
			}
			return out
		}
	}

	if len(answers) == len(questions) {
		for i := range answers {
			out[i] = &answers[i]
		}
	}
	return out
}

// soleUnconsumed returns the only answer index not yet assigned
func soleUnconsumed(consumed []bool) (int, bool) {
	found := -1
	for j, c := range consumed {
		if c {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = j
	}
	return found, found >= 0
}

func uniqueQuestions(questions []model.Question) bool {
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		key := strings.TrimSpace(q.Question)
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}
