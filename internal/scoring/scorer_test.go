package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiter-crm/internal/storage"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testPosting() *storage.Posting {
	return &storage.Posting{
		ID:                  7,
		Title:               "Backend Developer",
		Description:         "Go services over postgres",
		MandatoryConditions: []string{"3+ years of Go", "SQL experience"},
		DesirableConditions: []string{"Docker", "AWS"},
	}
}

func breakdownJSON(mandatory, desirable, experience float64, unmet ...string) string {
	unmetJSON := "[]"
	if len(unmet) > 0 {
		unmetJSON = `["` + unmet[0] + `"]`
	}
	return fmt.Sprintf(`{"mandatory_points": %g, "desirable_points": %g, "experience_points": %g, "unmet_mandatory": %s, "justification": "evaluated"}`,
		mandatory, desirable, experience, unmetJSON)
}

func TestScoreSumsCategories(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(50, 20, 15)}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, 85, result.Score)
	assert.Equal(t, "evaluated", result.Justification)
}

func TestScoreKnockOutCap(t *testing.T) {
	// One unmet mandatory condition caps the total at 49 no matter how many
	// desirable/experience points were earned.
	gen := &fakeGenerator{response: breakdownJSON(25, 25, 25, "SQL experience")}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, HardCap, result.Score)
}

func TestScoreKnockOutBelowCapUntouched(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(10, 5, 5, "3+ years of Go")}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Score)
}

func TestScoreClampsCategoryOverflow(t *testing.T) {
	// A model that hands out more points than a category allows is clamped to
	// the rubric's caps, not trusted.
	gen := &fakeGenerator{response: breakdownJSON(90, 90, 90)}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score) // 50+25+25
}

func TestScoreStrictVariantWeights(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(90, 90, 90)}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStrict)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score) // 50+30+20
}

func TestScoreRoundsFractionalPoints(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(33.4, 12.2, 10.1)}
	s := NewScorer(gen)

	result, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, 56, result.Score) // round(55.7)
}

func TestScoreTransportError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("service unavailable")}
	s := NewScorer(gen)

	_, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	assert.Error(t, err)
}

func TestScoreMalformedResponse(t *testing.T) {
	gen := &fakeGenerator{response: "I would rate this candidate highly."}
	s := NewScorer(gen)

	_, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	assert.Error(t, err)
}

func TestScoreNoGenerator(t *testing.T) {
	s := NewScorer(nil)
	_, err := s.Score(context.Background(), "cv text", testPosting(), VariantStandard)
	assert.Error(t, err)
}

func TestScoreCachesIdenticalCalls(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(40, 20, 10)}
	s := NewScorer(gen)
	ctx := context.Background()
	posting := testPosting()

	first, err := s.Score(ctx, "same cv", posting, VariantStandard)
	require.NoError(t, err)
	second, err := s.Score(ctx, "same cv", posting, VariantStandard)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls, "identical call within TTL must hit the cache")

	// A different variant is a different evaluation.
	_, err = s.Score(ctx, "same cv", posting, VariantStrict)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
}

func TestScorePromptNamesConditions(t *testing.T) {
	gen := &fakeGenerator{response: breakdownJSON(50, 25, 25)}
	s := NewScorer(gen)
	posting := testPosting()

	_, err := s.Score(context.Background(), "cv text", posting, VariantStandard)
	require.NoError(t, err)

	prompt := buildScoringPrompt("cv text", posting, VariantStandard)
	for _, c := range posting.MandatoryConditions {
		assert.Contains(t, prompt, c)
	}
	for _, c := range posting.DesirableConditions {
		assert.Contains(t, prompt, c)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		input   string
		want    Variant
		wantErr bool
	}{
		{input: "", want: VariantStandard},
		{input: "standard", want: VariantStandard},
		{input: "strict", want: VariantStrict},
		{input: "lenient", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input="+tt.input, func(t *testing.T) {
			got, err := ParseVariant(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
