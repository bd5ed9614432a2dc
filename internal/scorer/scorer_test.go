package scorer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/broll-cli/internal/model"
)

func testScorer() *Scorer {
	return New(DefaultConfig())
}

func TestScore_EmptyInput(t *testing.T) {
	scores := testScorer().Score(nil, Query{Keywords: []string{"rocket"}})
	assert.Empty(t, scores)
}

func TestScore_LengthMatchesInput(t *testing.T) {
	candidates := make([]model.CandidateMetadata, 7)
	for i := range candidates {
		candidates[i] = model.CandidateMetadata{Title: "clip", Duration: 30}
	}
	scores := testScorer().Score(candidates, Query{Keywords: []string{"clip"}})
	assert.Len(t, scores, 7)
}

func TestScore_PermutationInvariance(t *testing.T) {
	candidates := []model.CandidateMetadata{
		{Title: "rocket launch NASA 1969", Duration: 120, ViewCount: 50000},
		{Title: "cooking tutorial", Duration: 600, ViewCount: 1200},
		{Title: "moon landing archive", Description: "apollo rocket footage", Duration: 45},
		{Title: "city timelapse", Tags: []string{"urban", "night"}, Duration: 20},
	}
	query := Query{Keywords: []string{"rocket", "launch"}, ContextText: "dramatic footage from 1969"}

	base := testScorer().Score(candidates, query)

	perm := rand.New(rand.NewSource(42)).Perm(len(candidates))
	shuffled := make([]model.CandidateMetadata, len(candidates))
	for i, j := range perm {
		shuffled[i] = candidates[j]
	}
	got := testScorer().Score(shuffled, query)

	for i, j := range perm {
		assert.InDelta(t, base[j], got[i], 1e-9, "candidate %d", j)
	}
}

func TestScore_KeywordDuplicationInvariance(t *testing.T) {
	candidates := []model.CandidateMetadata{
		{Title: "rocket launch at dawn", Description: "a rocket lifts off", Duration: 60},
		{Title: "ocean waves", Duration: 60},
	}
	single := testScorer().Score(candidates, Query{Keywords: []string{"rocket", "launch"}})
	doubled := testScorer().Score(candidates, Query{Keywords: []string{"rocket", "launch", "rocket", "launch"}})

	for i := range single {
		assert.InDelta(t, single[i], doubled[i], 1e-9)
	}
}

func TestScore_RelevantBeatsIrrelevant(t *testing.T) {
	candidates := []model.CandidateMetadata{
		{Title: "cooking tutorial", Duration: 120, ViewCount: 100000},
		{Title: "rocket launch NASA 1969", Duration: 120, ViewCount: 100},
		{Title: "cat compilation", Duration: 120},
	}
	scores := testScorer().Score(candidates, Query{Keywords: []string{"rocket", "launch"}})

	assert.Greater(t, scores[1], scores[0])
	assert.Greater(t, scores[1], scores[2])
}

func TestKeywordScores_FullTitleBonus(t *testing.T) {
	s := testScorer()
	cols := buildColumns([]model.CandidateMetadata{
		{Title: "rocket launch live"},
		{Title: "rocket assembly"},
	})
	scores := s.keywordScores(cols, []string{"rocket", "launch"})

	// Full match: (2*3 + 5) / 2 = 5.5. Partial: (1*3) / 2 = 1.5.
	assert.InDelta(t, 5.5, scores[0], 1e-9)
	assert.InDelta(t, 1.5, scores[1], 1e-9)
}

func TestKeywordScores_TagAndDescriptionWeights(t *testing.T) {
	s := testScorer()
	cols := buildColumns([]model.CandidateMetadata{
		{Description: "slow motion rocket"},
		{Tags: []string{"rocket", "space"}},
	})
	scores := s.keywordScores(cols, []string{"rocket"})

	// Description hit: 1*1 / 1 = 1. Tag hit: 1*2 / 1 = 2.
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.InDelta(t, 2.0, scores[1], 1e-9)
}

func TestContextScores_StyleAndYear(t *testing.T) {
	s := testScorer()
	cols := buildColumns([]model.CandidateMetadata{
		{Title: "drone shot over the alps"},
		{Title: "apollo 11 broadcast 1969"},
		{Title: "street interview"},
	})
	scores := s.contextScores(cols, "aerial view of mountains in 1969")

	assert.InDelta(t, 10.0, scores[0], 1e-9) // style cue "drone"
	assert.InDelta(t, 8.0, scores[1], 1e-9)  // year match
	assert.InDelta(t, 0.0, scores[2], 1e-9)
}

func TestContextScores_StyleBonusOncePerStyle(t *testing.T) {
	s := testScorer()
	cols := buildColumns([]model.CandidateMetadata{
		{Title: "drone aerial overhead footage"},
	})
	scores := s.contextScores(cols, "aerial")

	// Multiple cues for one style still award a single bonus.
	assert.InDelta(t, 10.0, scores[0], 1e-9)
}

func TestQualityScores_DurationBands(t *testing.T) {
	s := testScorer()
	candidates := []model.CandidateMetadata{
		{Duration: 60},   // sweet spot
		{Duration: 3},    // too short
		{Duration: 1200}, // long, neutral
	}
	scores := s.qualityScores(candidates, buildColumns(candidates))

	assert.InDelta(t, 5.0, scores[0], 1e-9)
	assert.InDelta(t, -5.0, scores[1], 1e-9)
	assert.InDelta(t, 0.0, scores[2], 1e-9)
}

func TestQualityScores_ViewsClampedAndHD(t *testing.T) {
	s := testScorer()
	candidates := []model.CandidateMetadata{
		{Duration: 60, ViewCount: 10_000_000_000, Resolution: "1080p"},
	}
	scores := s.qualityScores(candidates, buildColumns(candidates))

	// 5 (duration) + 5 (clamped views) + 2 (HD).
	assert.InDelta(t, 12.0, scores[0], 1e-9)
}

func TestValidateConfig_Defaults(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfig_NegativeWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeywordWeight = -0.1
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_BadSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QualityWeight = 0.9
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_InvertedSweetSpot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweetSpotMinSecs = 400
	assert.Error(t, ValidateConfig(cfg))
}
