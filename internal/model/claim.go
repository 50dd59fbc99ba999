package model

// Claim is one verifiable assertion about a transcript: an answer to a question,
// or a summary sentence (empty Question).
type Claim struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Question is a single structured question sent to the LLM capability
type Question struct {
	Question     string `json:"question" yaml:"question"`
	Context      string `json:"context,omitempty" yaml:"context,omitempty"`
	AnswerFormat string `json:"answer_format,omitempty" yaml:"answer_format,omitempty"`
}

// QAAnswer is one answer returned by the LLM capability
type QAAnswer struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// ClaimsFromAnswers converts capability answers into claims, preserving order
func ClaimsFromAnswers(answers []QAAnswer) []Claim {
	claims := make([]Claim, len(answers))
	for i, a := range answers {
		claims[i] = Claim{Question: a.Question, Answer: a.Answer}
	}
	return claims
}

// SelfCheckVerdict is the interpreted YES/NO response for one claim
type SelfCheckVerdict struct {
	Question                 string `json:"question"`
	Answer                   string `json:"answer"`
	GroundingThresholdPassed bool   `json:"grounding_threshold_passed"`
	Raw                      string `json:"raw,omitempty"`       // Answer text as returned by the LLM
	Malformed                bool   `json:"malformed,omitempty"` // Neither YES nor NO (or missing)
}
