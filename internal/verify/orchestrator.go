// Package verify orchestrates the per-scene selection pipeline: metadata
// scoring, transcript retrieval, lexical matching, temporal localization,
// visual verification, score fusion and diversity-bounded selection.
package verify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clipforge/broll-cli/internal/config"
	"github.com/clipforge/broll-cli/internal/lexical"
	"github.com/clipforge/broll-cli/internal/localize"
	"github.com/clipforge/broll-cli/internal/model"
	"github.com/clipforge/broll-cli/internal/resilience"
	"github.com/clipforge/broll-cli/internal/scorer"
	"github.com/clipforge/broll-cli/internal/store"
	"github.com/clipforge/broll-cli/internal/visual"
	"github.com/clipforge/broll-cli/pkg/captions"
	"github.com/clipforge/broll-cli/pkg/frames"
)

// Options bundles the configuration for one Orchestrator.
type Options struct {
	Verify    config.VerifyConfig
	Scorer    config.ScorerConfig
	Lexical   config.LexicalConfig
	Localizer config.LocalizerConfig

	// MaxFrames is how many stills are sampled from a localized window.
	// Zero means 3 (window start, middle and end).
	MaxFrames int
}

// ValidateOptions checks fusion weights, threshold and selection bounds.
func ValidateOptions(opts Options) error {
	if err := scorer.ValidateConfig(opts.Scorer); err != nil {
		return err
	}
	v := opts.Verify
	if v.LexicalFusionWeight < 0 || v.VisualFusionWeight < 0 {
		return eris.New("verify: fusion weights must be non-negative")
	}
	if v.VisualThreshold < 0 || v.VisualThreshold > 1 {
		return eris.Errorf("verify: visual threshold %.2f outside [0,1]", v.VisualThreshold)
	}
	if v.MaxPerSource < 1 {
		return eris.New("verify: max_per_source must be at least 1")
	}
	if v.MaxVerifyCandidates < 1 {
		return eris.New("verify: max_verify_candidates must be at least 1")
	}
	return nil
}

// Orchestrator runs the full pipeline for one scene at a time. It is safe
// for concurrent use across scenes: per-scene state lives on the stack, and
// the shared lexical matcher is serialized behind lexMu so its fitted-corpus
// memoization survives across calls.
type Orchestrator struct {
	opts Options

	scorer    *scorer.Scorer
	localizer *localize.Localizer
	captions  captions.Client
	frames    frames.Client
	verifier  *visual.Verifier
	store     store.Store

	lexMu   sync.Mutex
	matcher *lexical.Matcher

	retry resilience.RetryConfig
}

// New creates an Orchestrator. The captions client is required; frames and
// oracle may be nil, which disables visual verification. The store may be
// nil, which disables run persistence.
func New(opts Options, caps captions.Client, fr frames.Client, oracle visual.Oracle, st store.Store) (*Orchestrator, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	if caps == nil {
		return nil, eris.New("verify: captions client is required")
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = 3
	}

	o := &Orchestrator{
		opts:      opts,
		scorer:    scorer.New(opts.Scorer),
		localizer: localize.New(opts.Localizer),
		matcher:   lexical.NewMatcher(opts.Lexical),
		captions:  caps,
		frames:    fr,
		store:     st,
		retry:     resilience.DefaultRetryConfig(),
	}
	o.retry.MaxAttempts = opts.Verify.MaxRetries
	if oracle != nil {
		o.verifier = visual.NewVerifier(oracle, opts.Verify.VisualThreshold)
	}
	return o, nil
}

// item is the per-candidate working state threaded through the stages.
type item struct {
	cand     model.CandidateMetadata
	rec      model.VerificationRecord
	segments []model.TranscriptSegment
}

// RankAndSelect runs the pipeline for one scene. requiredCount is how many
// clips the caller ultimately needs; zero falls back to the configured
// default. Per-candidate failures degrade the candidate's record and never
// abort the scene; the returned error covers invalid input and cancellation
// only.
func (o *Orchestrator) RankAndSelect(ctx context.Context, scene model.SceneRequest, candidates []model.CandidateMetadata, requiredCount int) (*model.RankedSelection, error) {
	if scene.TargetDuration < 0 {
		return nil, eris.Errorf("verify: scene %d has negative target duration", scene.SceneNumber)
	}
	if requiredCount <= 0 {
		requiredCount = o.opts.Verify.RequiredCount
	}
	if requiredCount <= 0 {
		requiredCount = 1
	}

	started := time.Now()
	run := o.recordStart(ctx, scene)

	selection := &model.RankedSelection{SceneNumber: scene.SceneNumber}
	if len(candidates) == 0 {
		o.recordFinish(ctx, run, selection, len(candidates), started, nil)
		return selection, nil
	}

	// Stage 1: metadata scoring, then prune to the verification budget.
	o.recordStatus(ctx, run, model.RunStatusScoring)
	items := o.scoreMetadata(scene, candidates)

	// Stage 2: transcripts in parallel.
	o.recordStatus(ctx, run, model.RunStatusVerifying)
	if err := o.fetchTranscripts(ctx, items); err != nil {
		o.recordFinish(ctx, run, selection, len(candidates), started, err)
		return nil, err
	}

	// Stage 3: lexical matching over the scene-local transcript corpus.
	o.scoreLexical(scene, items)

	// Stage 4: temporal localization.
	o.localizeAll(scene, items)

	// Stage 5: visual verification in parallel.
	if err := o.verifyVisual(ctx, scene, items); err != nil {
		o.recordFinish(ctx, run, selection, len(candidates), started, err)
		return nil, err
	}

	// Stage 6: fusion, ranking and diversity selection.
	o.recordStatus(ctx, run, model.RunStatusSelecting)
	o.fuse(items)

	ranked := make([]model.ScoredCandidate, len(items))
	for i, it := range items {
		ranked[i] = model.ScoredCandidate{Candidate: it.cand, Record: it.rec}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Record.CombinedScore > ranked[j].Record.CombinedScore
	})

	selection.Ranked = ranked
	selection.Selected = o.selectDiverse(ranked, requiredCount)

	zap.L().Info("scene ranked",
		zap.Int("scene", scene.SceneNumber),
		zap.Int("candidates", len(candidates)),
		zap.Int("verified", countVerified(ranked)),
		zap.Int("selected", len(selection.Selected)),
		zap.Float64("top_score", selection.TopScore()),
	)

	o.recordFinish(ctx, run, selection, len(candidates), started, nil)
	return selection, nil
}

// scoreMetadata scores every candidate, orders them by metadata relevance
// and keeps only the verification budget. Stable sort preserves input order
// on ties, so reruns over the same input rank identically.
func (o *Orchestrator) scoreMetadata(scene model.SceneRequest, candidates []model.CandidateMetadata) []item {
	scores := o.scorer.Score(candidates, scorer.Query{
		Keywords:    scene.Keywords,
		ContextText: scene.ContextText(),
	})

	items := make([]item, len(candidates))
	for i, c := range candidates {
		items[i] = item{cand: c, rec: model.VerificationRecord{MetadataScore: scores[i]}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].rec.MetadataScore > items[j].rec.MetadataScore
	})

	if budget := o.opts.Verify.MaxVerifyCandidates; len(items) > budget {
		items = items[:budget]
	}
	return items
}

func (o *Orchestrator) fetchTranscripts(ctx context.Context, items []item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	for i := range items {
		i := i
		g.Go(func() error {
			segs, err := resilience.DoVal(gctx, o.retry, "captions.transcript", func(ctx context.Context) ([]captions.Segment, error) {
				cctx, cancel := o.callContext(ctx)
				defer cancel()
				return o.captions.Transcript(cctx, items[i].cand.SourceID)
			})
			if err != nil {
				items[i].rec.Outcome = model.OutcomeFailed
				items[i].rec.Error = err.Error()
				zap.L().Warn("transcript fetch failed",
					zap.String("source_id", items[i].cand.SourceID),
					zap.Error(err),
				)
				return nil
			}
			if len(segs) == 0 {
				items[i].rec.Outcome = model.OutcomeNoTranscript
				return nil
			}
			items[i].segments = make([]model.TranscriptSegment, len(segs))
			for j, s := range segs {
				items[i].segments[j] = model.TranscriptSegment{StartTime: s.Start, EndTime: s.End, Text: s.Text}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// scoreLexical fits the shared matcher over the transcripts that survived
// the fetch stage and scores the scene query against them. The corpus is
// scene-local, so normalization is relative to this candidate pool only,
// but repeat runs over the same pool reuse the fitted index.
func (o *Orchestrator) scoreLexical(scene model.SceneRequest, items []item) {
	var corpus []string
	var corpusIdx []int
	for i := range items {
		if len(items[i].segments) == 0 {
			continue
		}
		corpus = append(corpus, model.JoinSegments(items[i].segments))
		corpusIdx = append(corpusIdx, i)
	}
	if len(corpus) == 0 {
		return
	}

	o.lexMu.Lock()
	o.matcher.Fit(corpus)
	scores := o.matcher.Score(scene.QueryText())
	o.lexMu.Unlock()
	for k, i := range corpusIdx {
		items[i].rec.LexicalScore = scores[k]
	}
}

func (o *Orchestrator) localizeAll(scene model.SceneRequest, items []item) {
	minDur := o.opts.Localizer.MinDurationSecs
	maxDur := o.opts.Localizer.MaxDurationSecs

	for i := range items {
		if len(items[i].segments) == 0 {
			continue
		}
		window := o.localizer.Localize(items[i].segments, scene.Keywords, minDur, maxDur)
		if window == nil {
			items[i].rec.Outcome = model.OutcomeNotLocalized
			continue
		}
		items[i].rec.LocalizedWindow = window
		items[i].rec.Outcome = model.OutcomeLexicalOnly
	}
}

func (o *Orchestrator) verifyVisual(ctx context.Context, scene model.SceneRequest, items []item) error {
	if !o.opts.Verify.VisualEnabled || o.verifier == nil || o.frames == nil {
		return nil
	}
	texts := scene.DescriptionTexts()
	if len(texts) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	for i := range items {
		if items[i].rec.LocalizedWindow == nil {
			continue
		}
		i := i
		g.Go(func() error {
			window := items[i].rec.LocalizedWindow
			timestamps := sampleTimestamps(window.StartTime, window.EndTime, o.opts.MaxFrames)

			sampled, err := resilience.DoVal(gctx, o.retry, "frames.sample", func(ctx context.Context) ([]frames.Frame, error) {
				cctx, cancel := o.callContext(ctx)
				defer cancel()
				return o.frames.Sample(cctx, items[i].cand.SourceID, timestamps)
			})
			if err != nil {
				items[i].rec.Error = err.Error()
				zap.L().Warn("frame sampling failed",
					zap.String("source_id", items[i].cand.SourceID),
					zap.Error(err),
				)
				return nil
			}

			images := make([][]byte, len(sampled))
			for j, f := range sampled {
				images[j] = f.Data
			}

			cctx, cancel := o.callContext(gctx)
			res, err := o.verifier.Verify(cctx, images, texts)
			cancel()
			if err != nil {
				items[i].rec.Error = err.Error()
				zap.L().Warn("visual verification failed",
					zap.String("source_id", items[i].cand.SourceID),
					zap.Error(err),
				)
				return nil
			}

			items[i].rec.VisualScore = res.Confidence
			items[i].rec.Verified = res.Verified
			items[i].rec.Outcome = model.OutcomeVisual
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// sampleTimestamps spreads n timestamps evenly across [start, end],
// inclusive of both endpoints.
func sampleTimestamps(start, end float64, n int) []float64 {
	if n <= 1 || end <= start {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func (o *Orchestrator) workers() int {
	if o.opts.Verify.Workers > 0 {
		return o.opts.Verify.Workers
	}
	return 4
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.Verify.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(o.opts.Verify.CallTimeout)*time.Second)
}

func countVerified(ranked []model.ScoredCandidate) int {
	n := 0
	for _, sc := range ranked {
		if sc.Record.Verified {
			n++
		}
	}
	return n
}
