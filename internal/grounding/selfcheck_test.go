package grounding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/model"
)

var threeClaims = []model.Claim{
	{Question: "Where are the interviewees from?", Answer: "Ventura County and San Diego."},
	{Question: "Why are people moving?", Answer: "Cost of living and taxes."},
	{Question: "Who is moving most?", Answer: "Retirees from Sonoma."},
}

func TestSelfCheckQuestion(t *testing.T) {
	q := SelfCheckQuestion(model.Claim{Question: "What is A?", Answer: "A is B."})

	assert.Equal(t, "Is the following answer to this question COMPLETELY grounded in the transcript: What is A? A is B.? If not, please return NO", q.Question)
	assert.Equal(t, SelfCheckAnswerFormat, q.AnswerFormat)
	assert.Contains(t, q.Context, "proper nouns")
}

func TestSelfChecker_Check(t *testing.T) {
	qa := &fakeQA{respond: answerEach("YES", " NO\n", "  YES  ")}
	checker := NewSelfChecker(qa, "")

	verdicts, err := checker.Check(context.Background(), threeClaims, "t1")
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	assert.True(t, verdicts[0].GroundingThresholdPassed)
	assert.False(t, verdicts[1].GroundingThresholdPassed)
	assert.False(t, verdicts[1].Malformed)
	assert.True(t, verdicts[2].GroundingThresholdPassed, "surrounding whitespace is ignored")
	assert.Equal(t, "  YES  ", verdicts[2].Raw)

	for i, v := range verdicts {
		assert.Equal(t, threeClaims[i].Question, v.Question)
		assert.Equal(t, threeClaims[i].Answer, v.Answer)
	}

	require.Len(t, qa.requests, 1)
	req := qa.requests[0]
	assert.Equal(t, "t1", req.TranscriptID)
	assert.Equal(t, SelfCheckGlobalContext, req.GlobalContext)
	require.Len(t, req.Questions, 3)
	assert.Equal(t, SelfCheckQuestion(threeClaims[1]), req.Questions[1])
}

func TestSelfChecker_StrictYes(t *testing.T) {
	tests := []struct {
		raw       string
		passed    bool
		malformed bool
	}{
		{"YES", true, false},
		{"\tYES\n", true, false},
		{"NO", false, false},
		{"yes", false, true},
		{"<YES>", false, true},
		{"YES.", false, true},
		{"Yes, it is grounded", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			qa := &fakeQA{respond: answerEach(tt.raw)}
			verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), threeClaims[:1], "t1")
			require.NoError(t, err)
			assert.Equal(t, tt.passed, verdicts[0].GroundingThresholdPassed)
			assert.Equal(t, tt.malformed, verdicts[0].Malformed)
		})
	}
}

func TestSelfChecker_NoClaimsNoRequest(t *testing.T) {
	qa := &fakeQA{respond: answerEach()}
	verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), nil, "t1")
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	assert.Empty(t, qa.requests)
}

func TestSelfChecker_CapabilityError(t *testing.T) {
	boom := errors.New("lemur unavailable")
	qa := &fakeQA{respond: func(llm.StructuredRequest) ([]model.QAAnswer, error) { return nil, boom }}

	verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), threeClaims, "t1")
	assert.Nil(t, verdicts)
	assert.ErrorIs(t, err, ErrCapability)
	assert.ErrorIs(t, err, boom)
}

func TestSelfChecker_MissingAnswersAreMalformed(t *testing.T) {
	qa := &fakeQA{respond: answerEach("YES")}
	verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), threeClaims, "t1")
	require.NoError(t, err)

	assert.True(t, verdicts[0].GroundingThresholdPassed)
	for _, v := range verdicts[1:] {
		assert.False(t, v.GroundingThresholdPassed)
		assert.True(t, v.Malformed)
	}
}

func TestSelfChecker_CorrelatesByQuestionText(t *testing.T) {
	// Answers come back in reverse order
	qa := &fakeQA{respond: func(req llm.StructuredRequest) ([]model.QAAnswer, error) {
		return []model.QAAnswer{
			{Question: req.Questions[2].Question, Answer: "NO"},
			{Question: req.Questions[1].Question, Answer: "NO"},
			{Question: req.Questions[0].Question, Answer: "YES"},
		}, nil
	}}

	verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), threeClaims, "t1")
	require.NoError(t, err)
	assert.True(t, verdicts[0].GroundingThresholdPassed)
	assert.False(t, verdicts[1].GroundingThresholdPassed)
	assert.False(t, verdicts[2].GroundingThresholdPassed)
}

func TestSelfChecker_RewordedEchoDoesNotFlipVerdicts(t *testing.T) {
	qa := &fakeQA{respond: func(req llm.StructuredRequest) ([]model.QAAnswer, error) {
		return []model.QAAnswer{
			{Question: req.Questions[2].Question + "!", Answer: "NO"},
			{Question: req.Questions[1].Question, Answer: "NO"},
			{Question: req.Questions[0].Question, Answer: "YES"},
		}, nil
	}}

	verdicts, err := NewSelfChecker(qa, "").Check(context.Background(), threeClaims, "t1")
	require.NoError(t, err)
	assert.True(t, verdicts[0].GroundingThresholdPassed)
	assert.False(t, verdicts[1].GroundingThresholdPassed)
	assert.False(t, verdicts[2].GroundingThresholdPassed)
	assert.Equal(t, "NO", verdicts[2].Raw)
}

func TestCorrelate(t *testing.T) {
	qs := []model.Question{{Question: "a"}, {Question: "b"}}

	t.Run("by text", func(t *testing.T) {
		got := correlate(qs, []model.QAAnswer{{Question: "b", Answer: "2"}, {Question: "a", Answer: "1"}})
		assert.Equal(t, "1", got[0].Answer)
		assert.Equal(t, "2", got[1].Answer)
	})

	t.Run("rewritten questions fall back to position", func(t *testing.T) {
		got := correlate(qs, []model.QAAnswer{{Question: "A?", Answer: "1"}, {Question: "B?", Answer: "2"}})
		assert.Equal(t, "1", got[0].Answer)
		assert.Equal(t, "2", got[1].Answer)
	})

	t.Run("text matches survive a reworded echo", func(t *testing.T) {
		three := []model.Question{{Question: "q1"}, {Question: "q2"}, {Question: "q3"}}
		got := correlate(three, []model.QAAnswer{
			{Question: "q3!", Answer: "NO"},
			{Question: "q2", Answer: "NO"},
			{Question: "q1", Answer: "YES"},
		})
		assert.Equal(t, "YES", got[0].Answer)
		assert.Equal(t, "NO", got[1].Answer)
		require.NotNil(t, got[2], "single leftover pairs with the single unused answer")
		assert.Equal(t, "NO", got[2].Answer)
	})

	t.Run("ambiguous leftovers stay unanswered", func(t *testing.T) {
		three := []model.Question{{Question: "q1"}, {Question: "q2"}, {Question: "q3"}}
		got := correlate(three, []model.QAAnswer{
			{Question: "q3?", Answer: "NO"},
			{Question: "q1", Answer: "YES"},
			{Question: "q2?", Answer: "YES"},
		})
		assert.Equal(t, "YES", got[0].Answer)
		assert.Nil(t, got[1])
		assert.Nil(t, got[2])
	})

	t.Run("duplicate questions use position", func(t *testing.T) {
		dup := []model.Question{{Question: ""}, {Question: ""}}
		got := correlate(dup, []model.QAAnswer{{Answer: "1"}, {Answer: "2"}})
		assert.Equal(t, "1", got[0].Answer)
		assert.Equal(t, "2", got[1].Answer)
	})

	t.Run("count mismatch leaves gaps", func(t *testing.T) {
		got := correlate(qs, []model.QAAnswer{{Question: "b", Answer: "2"}})
		assert.Nil(t, got[0])
		assert.Equal(t, "2", got[1].Answer)

		dup := []model.Question{{Question: "x"}, {Question: "x"}}
		got = correlate(dup, []model.QAAnswer{{Question: "x", Answer: "1"}})
		assert.Nil(t, got[0])
		assert.Nil(t, got[1])
	})
}
