package model

import "fmt"

// Granularity is the unit size at which transcript text is compared against a claim
type Granularity string

const (
	GranularitySentence  Granularity = "sentence"
	GranularityParagraph Granularity = "paragraph"
	GranularityChunk     Granularity = "chunk"
)

// Granularities lists every granularity in selection priority order
var Granularities = []Granularity{GranularitySentence, GranularityParagraph, GranularityChunk}

// NoReference is the citation reference used when no granularity met its threshold
const NoReference = "No reference met the threshold."

// TextUnit is a span of transcript text at one granularity
type TextUnit struct {
	Granularity Granularity `json:"granularity"`
	Index       int         `json:"index"` // Position within the granularity's sequence
	Text        string      `json:"text"`
}

// Thresholds maps each granularity to its similarity cutoff in [-1, 1]
type Thresholds struct {
	Sentence  float64 `json:"sentence" yaml:"sentence" mapstructure:"sentence"`
	Paragraph float64 `json:"paragraph" yaml:"paragraph" mapstructure:"paragraph"`
	Chunk     float64 `json:"chunk" yaml:"chunk" mapstructure:"chunk"`
}

// DefaultThresholds returns the cutoffs used when none are configured
func DefaultThresholds() Thresholds {
	return Thresholds{
		Sentence:  0.50,
		Paragraph: 0.50,
		Chunk:     0.50,
	}
}

// For returns the cutoff for a granularity
func (t Thresholds) For(g Granularity) float64 {
	switch g {
	case GranularitySentence:
		return t.Sentence
	case GranularityParagraph:
		return t.Paragraph
	case GranularityChunk:
		return t.Chunk
	default:
		return 1
	}
}

// Validate checks that every cutoff is a valid cosine similarity
func (t Thresholds) Validate() error {
	for _, g := range Granularities {
		v := t.For(g)
		if v < -1 || v > 1 {
			return fmt.Errorf("%s threshold %.3f out of range [-1, 1]", g, v)
		}
	}
	return nil
}

// Citation is the transcript text cited for a claim
type Citation struct {
	Reference       string      `json:"reference"`
	SimilarityScore float64     `json:"similarity_score"`
	Granularity     Granularity `json:"granularity,omitempty"` // Empty when no granularity met its threshold
}

// CitationResult is the embedding-based grounding decision for one claim
type CitationResult struct {
	Question                 string                  `json:"question"`
	Answer                   string                  `json:"answer"`
	Citation                 Citation                `json:"citation"`
	GroundingThresholdPassed bool                    `json:"grounding_threshold_passed"`
	Margins                  map[Granularity]float64 `json:"margins,omitempty"`
	Error                    string                  `json:"error,omitempty"`
}
