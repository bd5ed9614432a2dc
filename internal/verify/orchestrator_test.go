package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/broll-cli/internal/config"
	"github.com/clipforge/broll-cli/internal/model"
	"github.com/clipforge/broll-cli/internal/scorer"
	"github.com/clipforge/broll-cli/internal/store"
	"github.com/clipforge/broll-cli/pkg/captions"
	"github.com/clipforge/broll-cli/pkg/frames"
)

type fakeCaptions struct {
	transcripts map[string][]captions.Segment
	errs        map[string]error
	calls       atomic.Int64
}

func (f *fakeCaptions) Transcript(_ context.Context, sourceID string) ([]captions.Segment, error) {
	f.calls.Add(1)
	if err, ok := f.errs[sourceID]; ok {
		return nil, err
	}
	return f.transcripts[sourceID], nil
}

type fakeFrames struct {
	err error
}

func (f *fakeFrames) Sample(_ context.Context, sourceID string, timestamps []float64) ([]frames.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]frames.Frame, len(timestamps))
	for i, ts := range timestamps {
		out[i] = frames.Frame{Timestamp: ts, Data: []byte(sourceID)}
	}
	return out, nil
}

// fakeOracle returns a fixed cosine similarity per source, keyed by the
// frame bytes the fake sampler produced.
type fakeOracle struct {
	sims map[string]float64
	err  error
}

func (f *fakeOracle) Similarity(_ context.Context, images [][]byte, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	matrix := make([][]float64, len(images))
	for i, img := range images {
		row := make([]float64, len(texts))
		for j := range row {
			row[j] = f.sims[string(img)]
		}
		matrix[i] = row
	}
	return matrix, nil
}

func testOptions() Options {
	return Options{
		Verify: config.VerifyConfig{
			VisualEnabled:       true,
			VisualThreshold:     0.6,
			LexicalFusionWeight: 0.4,
			VisualFusionWeight:  0.6,
			MaxPerSource:        2,
			RequiredCount:       1,
			MaxVerifyCandidates: 10,
			Workers:             4,
			MaxRetries:          1,
			CallTimeout:         5,
		},
		Scorer:    scorer.DefaultConfig(),
		Lexical:   config.LexicalConfig{BM25K1: 1.5, BM25B: 0.75, MaxFeatures: 5000},
		Localizer: config.LocalizerConfig{WindowSegments: 5, MinDurationSecs: 5, MaxDurationSecs: 15},
	}
}

func testScene() model.SceneRequest {
	return model.SceneRequest{
		SceneNumber:    1,
		Description:    "rocket launch at dawn",
		VisualContext:  "dramatic wide shot",
		Keywords:       []string{"rocket", "launch"},
		TargetDuration: 8,
	}
}

// segmentsAbout builds a localizable transcript mentioning the topic.
func segmentsAbout(topic string) []captions.Segment {
	segs := make([]captions.Segment, 4)
	for i := range segs {
		segs[i] = captions.Segment{
			Start: float64(i * 3),
			End:   float64(i*3 + 3),
			Text:  fmt.Sprintf("footage of the %s part %d", topic, i),
		}
	}
	return segs
}

func candidate(id, source, title string) model.CandidateMetadata {
	return model.CandidateMetadata{
		SourceID:   id,
		Title:      title,
		Duration:   60,
		ViewCount:  1000,
		Resolution: "1080p",
		SourceName: source,
		SourceTier: model.TierGeneral,
	}
}

func TestRankAndSelect_EmptyPool(t *testing.T) {
	o, err := New(testOptions(), &fakeCaptions{}, &fakeFrames{}, &fakeOracle{}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, sel.Ranked)
	assert.Empty(t, sel.Selected)
	assert.Zero(t, sel.TopScore())
}

func TestRankAndSelect_NegativeDuration(t *testing.T) {
	o, err := New(testOptions(), &fakeCaptions{}, nil, nil, nil)
	require.NoError(t, err)

	scene := testScene()
	scene.TargetDuration = -1
	_, err = o.RankAndSelect(context.Background(), scene, []model.CandidateMetadata{candidate("a", "pexels", "x")}, 0)
	assert.Error(t, err)
}

func TestRankAndSelect_VisualOutranksLexical(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"match":    segmentsAbout("rocket launch"),
		"mismatch": segmentsAbout("rocket launch preparation"),
	}}
	// "match" frames look like the scene, "mismatch" frames do not.
	oracle := &fakeOracle{sims: map[string]float64{"match": 0.9, "mismatch": -0.9}}

	o, err := New(testOptions(), caps, &fakeFrames{}, oracle, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("mismatch", "pexels", "rocket launch video"),
		candidate("match", "pixabay", "rocket launch video"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, sel.Ranked, 2)

	top := sel.Ranked[0]
	assert.Equal(t, "match", top.Candidate.SourceID)
	assert.Equal(t, model.OutcomeVisual, top.Record.Outcome)
	assert.True(t, top.Record.Verified) // (0.9+1)/2 = 0.95 > 0.6
	assert.InDelta(t, 0.95, top.Record.VisualScore, 1e-9)
	assert.InDelta(t,
		0.4*top.Record.LexicalScore+0.6*top.Record.VisualScore,
		top.Record.CombinedScore, 1e-9)

	bottom := sel.Ranked[1]
	assert.Equal(t, model.OutcomeVisual, bottom.Record.Outcome)
	assert.False(t, bottom.Record.Verified) // (−0.9+1)/2 = 0.05 < 0.6
}

func TestRankAndSelect_NoTranscript(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{}}
	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("silent", "pexels", "rocket launch"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, sel.Ranked, 1)

	rec := sel.Ranked[0].Record
	assert.Equal(t, model.OutcomeNoTranscript, rec.Outcome)
	assert.Zero(t, rec.LexicalScore)
	assert.Zero(t, rec.VisualScore)
	assert.Zero(t, rec.CombinedScore)
	assert.Positive(t, rec.MetadataScore)
}

func TestRankAndSelect_NotLocalized(t *testing.T) {
	// Transcript exists but the whole thing spans under the 5s minimum, so
	// no usable window can be cut. The lexical score must still count.
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"short": {{Start: 0, End: 2, Text: "rocket launch footage at dawn"}},
	}}
	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{"short": 0.9}}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("short", "pexels", "rocket launch"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, sel.Ranked, 1)

	rec := sel.Ranked[0].Record
	assert.Equal(t, model.OutcomeNotLocalized, rec.Outcome)
	assert.Nil(t, rec.LocalizedWindow)
	assert.Zero(t, rec.VisualScore)
	assert.Positive(t, rec.LexicalScore)
	assert.Equal(t, rec.LexicalScore, rec.CombinedScore)
}

func TestRankAndSelect_TranscriptFailureDegrades(t *testing.T) {
	caps := &fakeCaptions{
		transcripts: map[string][]captions.Segment{"good": segmentsAbout("rocket launch")},
		errs:        map[string]error{"bad": errors.New("captions: transcript returned 403")},
	}
	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{"good": 0.5}}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("bad", "pexels", "rocket launch video"),
		candidate("good", "pixabay", "rocket launch video"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, sel.Ranked, 2)

	assert.Equal(t, "good", sel.Ranked[0].Candidate.SourceID)

	failed := sel.Ranked[1].Record
	assert.Equal(t, model.OutcomeFailed, failed.Outcome)
	assert.NotEmpty(t, failed.Error)
	assert.Zero(t, failed.CombinedScore)
}

func TestRankAndSelect_LexicalOnlyWhenSamplingFails(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"vid": segmentsAbout("rocket launch"),
	}}
	o, err := New(testOptions(), caps, &fakeFrames{err: errors.New("frames: sample returned 400")}, &fakeOracle{}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("vid", "pexels", "rocket launch"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, sel.Ranked, 1)

	rec := sel.Ranked[0].Record
	assert.Equal(t, model.OutcomeLexicalOnly, rec.Outcome)
	assert.NotNil(t, rec.LocalizedWindow)
	assert.NotEmpty(t, rec.Error)
	assert.Zero(t, rec.VisualScore)
	assert.Equal(t, rec.LexicalScore, rec.CombinedScore)
}

func TestRankAndSelect_LexicalOnlyWhenVisualDisabled(t *testing.T) {
	opts := testOptions()
	opts.Verify.VisualEnabled = false

	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"vid": segmentsAbout("rocket launch"),
	}}
	o, err := New(opts, caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{"vid": 0.9}}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("vid", "pexels", "rocket launch"),
	}, 1)
	require.NoError(t, err)

	rec := sel.Ranked[0].Record
	assert.Equal(t, model.OutcomeLexicalOnly, rec.Outcome)
	assert.Zero(t, rec.VisualScore)
	assert.False(t, rec.Verified)
}

func TestRankAndSelect_MaxPerSource(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{}}
	oracle := &fakeOracle{sims: map[string]float64{}}
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("v%d", i)
		caps.transcripts[id] = segmentsAbout("rocket launch")
		oracle.sims[id] = 0.5
	}

	o, err := New(testOptions(), caps, &fakeFrames{}, oracle, nil)
	require.NoError(t, err)

	pool := []model.CandidateMetadata{
		candidate("v0", "pexels", "rocket launch a"),
		candidate("v1", "pexels", "rocket launch b"),
		candidate("v2", "pexels", "rocket launch c"),
		candidate("v3", "pixabay", "rocket launch d"),
		candidate("v4", "pixabay", "rocket launch e"),
		candidate("v5", "pixabay", "rocket launch f"),
	}

	sel, err := o.RankAndSelect(context.Background(), testScene(), pool, 2)
	require.NoError(t, err)

	// All six candidates tie on every signal, so ranking must preserve the
	// input order.
	require.Len(t, sel.Ranked, 6)
	for i, sc := range sel.Ranked {
		assert.Equal(t, pool[i].SourceID, sc.Candidate.SourceID)
	}

	// 2 required clips → pool of at most 6, but never more than 2 per source.
	assert.LessOrEqual(t, len(sel.Selected), 6)
	perSource := map[string]int{}
	for _, sc := range sel.Selected {
		perSource[sc.Candidate.SourceName]++
	}
	for src, n := range perSource {
		assert.LessOrEqual(t, n, 2, "source %s over cap", src)
	}
	assert.Len(t, sel.Selected, 4)
}

func TestRankAndSelect_SelectionPoolLimit(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{}}
	var pool []model.CandidateMetadata
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("v%d", i)
		caps.transcripts[id] = segmentsAbout("rocket launch")
		pool = append(pool, candidate(id, fmt.Sprintf("src%d", i), "rocket launch"))
	}

	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{}}, nil)
	require.NoError(t, err)

	sel, err := o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)
	assert.Len(t, sel.Selected, 3) // required_count × 3
	assert.Len(t, sel.Ranked, 8)
}

func TestRankAndSelect_VerificationBudget(t *testing.T) {
	opts := testOptions()
	opts.Verify.MaxVerifyCandidates = 2

	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{}}
	o, err := New(opts, caps, &fakeFrames{}, &fakeOracle{}, nil)
	require.NoError(t, err)

	pool := []model.CandidateMetadata{
		candidate("a", "pexels", "rocket launch"),
		candidate("b", "pexels", "rocket launch"),
		candidate("c", "pexels", "rocket launch"),
	}
	sel, err := o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)

	assert.Len(t, sel.Ranked, 2)
	assert.EqualValues(t, 2, caps.calls.Load())
}

func TestRankAndSelect_Deterministic(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{}}
	oracle := &fakeOracle{sims: map[string]float64{}}
	var pool []model.CandidateMetadata
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("v%d", i)
		caps.transcripts[id] = segmentsAbout("rocket launch")
		oracle.sims[id] = 0.2 + float64(i)*0.1
		pool = append(pool, candidate(id, "pexels", "rocket launch"))
	}

	o, err := New(testOptions(), caps, &fakeFrames{}, oracle, nil)
	require.NoError(t, err)

	first, err := o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)
	second, err := o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)

	require.Equal(t, len(first.Ranked), len(second.Ranked))
	for i := range first.Ranked {
		assert.Equal(t, first.Ranked[i].Candidate.SourceID, second.Ranked[i].Candidate.SourceID)
		assert.Equal(t, first.Ranked[i].Record.CombinedScore, second.Ranked[i].Record.CombinedScore)
	}
}

func TestRankAndSelect_ReusesLexicalMatcher(t *testing.T) {
	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"vid": segmentsAbout("rocket launch"),
	}}
	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{"vid": 0.5}}, nil)
	require.NoError(t, err)

	pool := []model.CandidateMetadata{candidate("vid", "pexels", "rocket launch")}
	before := o.matcher

	_, err = o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)
	_, err = o.RankAndSelect(context.Background(), testScene(), pool, 1)
	require.NoError(t, err)

	// One matcher for the orchestrator's lifetime, so a rerun over the same
	// transcript pool hits the fitted index instead of rebuilding it.
	assert.Same(t, before, o.matcher)
	assert.NotEmpty(t, o.matcher.Score(testScene().QueryText()))
}

func TestRankAndSelect_RecordsRun(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))

	caps := &fakeCaptions{transcripts: map[string][]captions.Segment{
		"vid": segmentsAbout("rocket launch"),
	}}
	o, err := New(testOptions(), caps, &fakeFrames{}, &fakeOracle{sims: map[string]float64{"vid": 0.7}}, st)
	require.NoError(t, err)

	_, err = o.RankAndSelect(context.Background(), testScene(), []model.CandidateMetadata{
		candidate("vid", "pexels", "rocket launch"),
	}, 1)
	require.NoError(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Result)
	assert.Equal(t, 1, runs[0].Result.Candidates)
	assert.Equal(t, 1, runs[0].Result.Verified)
	assert.Positive(t, runs[0].Result.TopScore)
}

func TestValidateOptions(t *testing.T) {
	good := testOptions()
	assert.NoError(t, ValidateOptions(good))

	bad := testOptions()
	bad.Verify.VisualThreshold = 1.5
	assert.Error(t, ValidateOptions(bad))

	bad = testOptions()
	bad.Verify.MaxPerSource = 0
	assert.Error(t, ValidateOptions(bad))

	bad = testOptions()
	bad.Verify.MaxVerifyCandidates = 0
	assert.Error(t, ValidateOptions(bad))

	bad = testOptions()
	bad.Scorer.KeywordWeight = -0.4
	assert.Error(t, ValidateOptions(bad))
}

func TestSampleTimestamps(t *testing.T) {
	assert.Equal(t, []float64{2, 5, 8}, sampleTimestamps(2, 8, 3))
	assert.Equal(t, []float64{2}, sampleTimestamps(2, 8, 1))
	assert.Equal(t, []float64{2}, sampleTimestamps(2, 2, 3))
}
