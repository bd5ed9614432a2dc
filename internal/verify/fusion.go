package verify

import (
	"github.com/clipforge/broll-cli/internal/model"
)

// fuse writes each candidate's combined score. Visual evidence, when
// present, dominates the lexical signal; without it the lexical score
// stands alone. Failed candidates score zero so they sink below every
// candidate that produced any evidence.
func (o *Orchestrator) fuse(items []item) {
	wl := o.opts.Verify.LexicalFusionWeight
	wv := o.opts.Verify.VisualFusionWeight

	for i := range items {
		rec := &items[i].rec
		switch {
		case rec.Outcome == model.OutcomeFailed:
			rec.LexicalScore = 0
			rec.VisualScore = 0
			rec.CombinedScore = 0
		case rec.VisualScore > 0:
			rec.CombinedScore = wl*rec.LexicalScore + wv*rec.VisualScore
		default:
			rec.CombinedScore = rec.LexicalScore
		}
	}
}

// selectDiverse walks the ranked list in order, accepting candidates while
// capping how many come from any single source, and stops once the pool
// holds three times the required clip count. The cap keeps one prolific
// source from monopolizing a scene; the 3x pool gives the editor slack to
// reject clips downstream.
func (o *Orchestrator) selectDiverse(ranked []model.ScoredCandidate, requiredCount int) []model.ScoredCandidate {
	limit := requiredCount * 3
	maxPerSource := o.opts.Verify.MaxPerSource

	selected := make([]model.ScoredCandidate, 0, limit)
	perSource := make(map[string]int)

	for _, sc := range ranked {
		if len(selected) >= limit {
			break
		}
		src := sc.Candidate.SourceName
		if perSource[src] >= maxPerSource {
			continue
		}
		perSource[src]++
		selected = append(selected, sc)
	}
	return selected
}
