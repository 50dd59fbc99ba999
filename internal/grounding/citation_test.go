package grounding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/segment"
)

const threeSentences = "A is B. C is D. E is F"

// threeSentenceIndex indexes "A is B. C is D. E is F": three sentences, one
// paragraph and one chunk
func threeSentenceIndex(t *testing.T, emb *mapEmbedder) *Index {
	t.Helper()
	ix, err := BuildIndex(context.Background(), emb, segment.Segment(threeSentences), 2)
	require.NoError(t, err)
	return ix
}

// uniformVectors gives every unit of threeSentences the same vector
func uniformVectors(v []float32, extra map[string][]float32) map[string][]float32 {
	out := map[string][]float32{
		"A is B":                v,
		"C is D":                v,
		"E is F":                v,
		"A is B C is D E is F ": v,
		"A is B C is D E is F":  v,
	}
	for k, e := range extra {
		out[k] = e
	}
	return out
}

func TestEvaluateClaim_IdenticalEmbeddingPasses(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{
		"A is B":                {1, 0, 0},
		"C is D":                {0, 1, 0},
		"E is F":                {0, 0, 1},
		"A is B C is D E is F ": {1, 1, 1},
		"A is B C is D E is F":  {1, 1, 1},
	}}
	ix := threeSentenceIndex(t, emb)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	result, err := engine.EvaluateClaim(context.Background(), model.Claim{Question: "What is A?", Answer: "A is B"}, ix)
	require.NoError(t, err)

	assert.True(t, result.GroundingThresholdPassed)
	assert.Equal(t, "A is B", result.Citation.Reference)
	assert.Equal(t, model.GranularitySentence, result.Citation.Granularity)
	assert.InDelta(t, 1.0, result.Citation.SimilarityScore, 1e-9)
	assert.InDelta(t, 0.5, result.Margins[model.GranularitySentence], 1e-9)
	assert.InDelta(t, 1/math.Sqrt(3)-0.5, result.Margins[model.GranularityChunk], 1e-9)
	assert.Equal(t, "What is A?", result.Question)
	assert.Empty(t, result.Error)
}

func TestEvaluateClaim_OrthogonalFails(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{
		"A is B":                {1, 0, 0, 0},
		"C is D":                {0, 1, 0, 0},
		"E is F":                {0, 0, 1, 0},
		"A is B C is D E is F ": {1, 1, 1, 0},
		"A is B C is D E is F":  {1, 1, 1, 0},
		"G is H":                {0, 0, 0, 1},
	}}
	ix := threeSentenceIndex(t, emb)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	result, err := engine.EvaluateClaim(context.Background(), model.Claim{Answer: "G is H"}, ix)
	require.NoError(t, err)

	assert.False(t, result.GroundingThresholdPassed)
	assert.Equal(t, model.NoReference, result.Citation.Reference)
	assert.Empty(t, result.Citation.Granularity)
	assert.InDelta(t, 0.0, result.Citation.SimilarityScore, 1e-9)
}

func TestEvaluateClaim_TranscriptShorterThanWindow(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{
		"A is B":         {1, 0},
		"C is D":         {0, 1},
		"A is B C is D ": {1, 1},
	}}
	ix, err := BuildIndex(context.Background(), emb, segment.Segment("A is B. C is D"), 1)
	require.NoError(t, err)
	require.Empty(t, ix.Chunks)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	result, err := engine.EvaluateClaim(context.Background(), model.Claim{Answer: "A is B"}, ix)
	var degenerate *DegenerateInputError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, model.GranularityChunk, degenerate.Granularity)
	assert.False(t, result.GroundingThresholdPassed)
	assert.Equal(t, model.NoReference, result.Citation.Reference)
	assert.InDelta(t, 0.5, result.Margins[model.GranularitySentence], 1e-9)
	_, hasChunk := result.Margins[model.GranularityChunk]
	assert.False(t, hasChunk)

	results, err := engine.CheckClaims(context.Background(), []model.Claim{{Question: "q", Answer: "A is B"}}, ix)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].GroundingThresholdPassed)
	assert.Contains(t, results[0].Error, "chunk")
	assert.Equal(t, "q", results[0].Question)
	assert.InDelta(t, 1.0, results[0].Citation.SimilarityScore, 1e-9)
	assert.Contains(t, results[0].Margins, model.GranularityParagraph)
}

func TestEvaluateClaim_ThresholdMonotonicity(t *testing.T) {
	// cosine 0.8 against every unit
	emb := &mapEmbedder{vectors: uniformVectors([]float32{1, 0}, map[string][]float32{"claim": {0.8, 0.6}})}
	ix := threeSentenceIndex(t, emb)

	passed := func(threshold float64) bool {
		th := model.Thresholds{Sentence: threshold, Paragraph: threshold, Chunk: threshold}
		r, err := NewCitationEngine(emb, th, 3).EvaluateClaim(context.Background(), model.Claim{Answer: "claim"}, ix)
		require.NoError(t, err)
		return r.GroundingThresholdPassed
	}

	thresholds := []float64{-1, -0.5, 0, 0.5, 0.79, 0.8, 0.81, 1}
	for i := 1; i < len(thresholds); i++ {
		if passed(thresholds[i]) {
			assert.True(t, passed(thresholds[i-1]), "passing at %.2f must imply passing at %.2f", thresholds[i], thresholds[i-1])
		}
	}
	assert.True(t, passed(0.79))
	assert.False(t, passed(0.8), "margin must be strictly positive")
}

func TestSelectCitation_Priority(t *testing.T) {
	inf := math.Inf(-1)
	tests := []struct {
		name       string
		s, p, c    float64 // margins
		granular   model.Granularity
		reference  string
		passed     bool
		similarity float64
	}{
		{"sentence wins", 0.3, 0.2, 0.1, model.GranularitySentence, "sent", true, 0.8},
		{"tie goes to paragraph", 0.3, 0.3, 0.1, model.GranularityParagraph, "para", true, 0.8},
		{"paragraph over chunk", -0.1, 0.2, 0.1, model.GranularityParagraph, "para", true, 0.7},
		{"chunk only", -0.1, -0.2, 0.05, model.GranularityChunk, "chunk", true, 0.55},
		{"sentence and chunk tie", 0.2, 0.1, 0.2, model.GranularityChunk, "chunk", true, 0.7},
		{"no chunks", 0.1, inf, inf, model.GranularitySentence, "sent", true, 0.6},
		{"nothing passes", -0.1, -0.2, -0.3, "", model.NoReference, false, 0.4},
		{"no candidates at all", inf, inf, inf, "", model.NoReference, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := func(m float64) float64 {
				if math.IsInf(m, -1) {
					return 0
				}
				return m + 0.5
			}
			matches := map[model.Granularity]bestMatch{
				model.GranularitySentence:  {text: "sent", sim: sim(tt.s), margin: tt.s},
				model.GranularityParagraph: {text: "para", sim: sim(tt.p), margin: tt.p},
				model.GranularityChunk:     {text: "chunk", sim: sim(tt.c), margin: tt.c},
			}

			r := selectCitation(model.Claim{Answer: "x"}, matches)
			assert.Equal(t, tt.granular, r.Citation.Granularity)
			assert.Equal(t, tt.reference, r.Citation.Reference)
			assert.Equal(t, tt.passed, r.GroundingThresholdPassed)
			assert.InDelta(t, tt.similarity, r.Citation.SimilarityScore, 1e-9)
			for g, m := range r.Margins {
				assert.False(t, math.IsInf(m, 0), "margin for %s must be finite", g)
			}
		})
	}
}

func TestCheckClaims_OrderAndDegenerate(t *testing.T) {
	emb := &mapEmbedder{vectors: uniformVectors([]float32{1, 0}, map[string][]float32{
		"first": {1, 0},
		"zero":  {0, 0},
		"third": {0, 1},
	})}
	ix := threeSentenceIndex(t, emb)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	claims := []model.Claim{
		{Question: "q1", Answer: "first"},
		{Question: "q2", Answer: "zero"},
		{Question: "q3", Answer: "   "},
		{Question: "q4", Answer: "third"},
	}
	results, err := engine.CheckClaims(context.Background(), claims, ix)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, claims[i].Question, r.Question, "result %d out of order", i)
	}
	assert.True(t, results[0].GroundingThresholdPassed)
	assert.False(t, results[1].GroundingThresholdPassed)
	assert.NotEmpty(t, results[1].Error)
	assert.Contains(t, results[2].Error, "empty answer")
	assert.False(t, results[3].GroundingThresholdPassed)
	assert.Empty(t, results[3].Error)
}

func TestEvaluateClaim_DegenerateErrors(t *testing.T) {
	emb := &mapEmbedder{vectors: uniformVectors([]float32{1, 0}, map[string][]float32{
		"zero": {0, 0},
		"wide": {1, 0, 0},
	})}
	ix := threeSentenceIndex(t, emb)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	_, err := engine.EvaluateClaim(context.Background(), model.Claim{Answer: "zero"}, ix)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = engine.EvaluateClaim(context.Background(), model.Claim{Answer: "wide"}, ix)
	var degenerate *DegenerateInputError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, model.GranularitySentence, degenerate.Granularity)
}

func TestCheckClaims_CapabilityErrorAborts(t *testing.T) {
	emb := &mapEmbedder{
		vectors: uniformVectors([]float32{1, 0}, map[string][]float32{"ok": {1, 0}}),
		failOn:  "boom",
	}
	ix := threeSentenceIndex(t, emb)
	engine := NewCitationEngine(emb, model.DefaultThresholds(), 3)

	results, err := engine.CheckClaims(context.Background(), []model.Claim{{Answer: "ok"}, {Answer: "boom"}}, ix)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrCapability)

	var capErr *CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "embedding", capErr.Capability)
}

func TestCheckClaims_EmptyIndex(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{"": {1, 0}, " ": {1, 0}, "claim": {1, 0}}}
	ix, err := BuildIndex(context.Background(), emb, segment.Segment(""), 1)
	require.NoError(t, err)

	results, err := NewCitationEngine(emb, model.DefaultThresholds(), 3).
		CheckClaims(context.Background(), []model.Claim{{Answer: "claim"}}, ix)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].GroundingThresholdPassed)
	assert.Equal(t, model.NoReference, results[0].Citation.Reference)
	assert.Contains(t, results[0].Error, "sentence")
}

func TestCheckClaims_Cancelled(t *testing.T) {
	emb := &mapEmbedder{vectors: uniformVectors([]float32{1, 0}, map[string][]float32{"x": {1, 0}})}
	ix := threeSentenceIndex(t, emb)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCitationEngine(emb, model.DefaultThresholds(), 3).CheckClaims(ctx, []model.Claim{{Answer: "x"}}, ix)
	assert.ErrorIs(t, err, context.Canceled)
}
