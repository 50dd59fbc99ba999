package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Record is one labelled transcript of a test set.
// The QA fields hold claim lists as strings, often single-quoted.
type Record struct {
	TranscriptID        string `json:"transcript_id"`
	TranscriptText      string `json:"transcript_text"`
	QASuccess           string `json:"qa_success"`
	QAHallucinated      string `json:"qa_hallucinated"`
	QAHallucinatedLabel string `json:"qa_hallucinated_label"`
}

// LoadTestSet reads a JSON array of records
func LoadTestSet(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test set: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse test set: %w", err)
	}

	return records, nil
}

// SuccessClaims returns the claims expected to pass every check
func (r Record) SuccessClaims() ([]model.Claim, error) {
	claims, err := ParseClaims([]byte(r.QASuccess))
	if err != nil {
		return nil, fmt.Errorf("record %s qa_success: %w", r.TranscriptID, err)
	}
	return claims, nil
}

// HallucinatedClaims returns the claim list containing planted hallucinations
func (r Record) HallucinatedClaims() ([]model.Claim, error) {
	claims, err := ParseClaims([]byte(r.QAHallucinated))
	if err != nil {
		return nil, fmt.Errorf("record %s qa_hallucinated: %w", r.TranscriptID, err)
	}
	return claims, nil
}

// Labels returns the claims marked as hallucinated
func (r Record) Labels() ([]model.Claim, error) {
	claims, err := ParseClaims([]byte(r.QAHallucinatedLabel))
	if err != nil {
		return nil, fmt.Errorf("record %s qa_hallucinated_label: %w", r.TranscriptID, err)
	}
	return claims, nil
}

// Evaluation compares flagged claims with labelled hallucinations
type Evaluation struct {
	TranscriptID string `json:"transcript_id"`
	Set          string `json:"set"`     // "success" or "hallucinated"
	Labeled      []int  `json:"labeled"` // -1 when a label matches no claim
	Flagged      []int  `json:"flagged"`
	Partial      bool   `json:"partial"` // Every labelled hallucination was flagged
	Exact        bool   `json:"exact"`   // Flagged indices equal labelled indices
}

// Evaluate scores one claim list. passed[i] is the grounding decision for claims[i].
// Labels are matched to claims by exact question text.
func Evaluate(claims, labels []model.Claim, passed []bool) Evaluation {
	labeled := make([]int, len(labels))
	for i, label := range labels {
		labeled[i] = -1
		for j, c := range claims {
			if c.Question == label.Question {
				labeled[i] = j
				break
			}
		}
	}
	sort.Ints(labeled)

	flagged := []int{}
	flaggedSet := make(map[int]bool)
	for i, p := range passed {
		if !p {
			flagged = append(flagged, i)
			flaggedSet[i] = true
		}
	}

	partial := true
	for _, idx := range labeled {
		if !flaggedSet[idx] {
			partial = false
			break
		}
	}

	exact := len(labeled) == len(flagged)
	if exact {
		for i := range labeled {
			if labeled[i] != flagged[i] {
				exact = false
				break
			}
		}
	}

	return Evaluation{
		Labeled: labeled,
		Flagged: flagged,
		Partial: partial,
		Exact:   exact,
	}
}

// Metrics aggregates evaluations across a test set
type Metrics struct {
	Evaluations int     `json:"evaluations"`
	Partial     int     `json:"partial"`
	Exact       int     `json:"exact"`
	PartialRate float64 `json:"partial_rate"`
	ExactRate   float64 `json:"exact_rate"`
}

// Summarize counts partial and exact matches
func Summarize(evals []Evaluation) Metrics {
	m := Metrics{Evaluations: len(evals)}
	for _, e := range evals {
		if e.Partial {
			m.Partial++
		}
		if e.Exact {
			m.Exact++
		}
	}
	if m.Evaluations > 0 {
		m.PartialRate = float64(m.Partial) / float64(m.Evaluations)
		m.ExactRate = float64(m.Exact) / float64(m.Evaluations)
	}
	return m
}
