package scorer

import (
	"math"
	"regexp"
	"strings"

	"github.com/clipforge/broll-cli/internal/config"
	"github.com/clipforge/broll-cli/internal/model"
)

// Query is the scene-derived input for metadata scoring.
type Query struct {
	Keywords    []string
	ContextText string
}

// Scorer computes relevance scores for candidate batches.
type Scorer struct {
	cfg config.ScorerConfig
}

// New creates a Scorer with the given config.
func New(cfg config.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// candidateText holds the pre-lowered text columns for one batch. Building
// the columns once keeps each signal a single O(n) pass.
type candidateText struct {
	titles   []string
	descs    []string
	tags     []string
	combined []string
}

func buildColumns(candidates []model.CandidateMetadata) candidateText {
	n := len(candidates)
	cols := candidateText{
		titles:   make([]string, n),
		descs:    make([]string, n),
		tags:     make([]string, n),
		combined: make([]string, n),
	}
	for i, c := range candidates {
		cols.titles[i] = strings.ToLower(c.Title)
		cols.descs[i] = strings.ToLower(c.Description)
		cols.tags[i] = strings.ToLower(strings.Join(c.Tags, " "))
		cols.combined[i] = cols.titles[i] + " " + cols.descs[i]
	}
	return cols
}

// Score returns one relevance score per candidate, in input order. Empty
// input yields an empty (non-nil) slice. Ties are broken downstream by
// original input order; Score itself never reorders.
func (s *Scorer) Score(candidates []model.CandidateMetadata, query Query) []float64 {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	cols := buildColumns(candidates)

	keyword := s.keywordScores(cols, query.Keywords)
	for i := range scores {
		scores[i] += keyword[i] * s.cfg.KeywordWeight
	}

	if query.ContextText != "" {
		context := s.contextScores(cols, query.ContextText)
		for i := range scores {
			scores[i] += context[i] * s.cfg.ContextWeight
		}
	}

	quality := s.qualityScores(candidates, cols)
	for i := range scores {
		scores[i] += quality[i] * s.cfg.QualityWeight
	}

	return scores
}

// keywordScores counts keyword occurrences in title, description and tags
// with per-field weights, adds a bonus when every keyword appears in the
// title, and normalizes by keyword count so queries of different lengths
// are comparable.
func (s *Scorer) keywordScores(cols candidateText, keywords []string) []float64 {
	n := len(cols.titles)
	scores := make([]float64, n)
	if len(keywords) == 0 {
		return scores
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	for i := 0; i < n; i++ {
		var titleHits, descHits, tagHits int
		for _, kw := range lowered {
			if strings.Contains(cols.titles[i], kw) {
				titleHits++
			}
			if strings.Contains(cols.descs[i], kw) {
				descHits++
			}
			if strings.Contains(cols.tags[i], kw) {
				tagHits++
			}
		}

		score := float64(titleHits)*s.cfg.TitleHitWeight +
			float64(descHits)*s.cfg.DescHitWeight +
			float64(tagHits)*s.cfg.TagHitWeight

		if titleHits == len(lowered) {
			score += s.cfg.FullTitleBonus
		}

		scores[i] = score / float64(len(lowered))
	}

	return scores
}

// visualStyles maps a style term appearing in the scene context to the
// lexical cues expected in a matching candidate's text.
var visualStyles = map[string][]string{
	"aerial":   {"drone", "aerial", "overhead", "bird"},
	"close-up": {"close", "macro", "detail"},
	"wide":     {"wide", "landscape", "panoramic"},
	"dramatic": {"dramatic", "intense", "powerful"},
	"peaceful": {"peaceful", "calm", "serene"},
}

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// contextScores awards a bonus per visual style named in the context whose
// cues appear in the candidate text, plus a temporal-period bonus when a
// 4-digit year from the context appears in the candidate text.
func (s *Scorer) contextScores(cols candidateText, context string) []float64 {
	n := len(cols.combined)
	scores := make([]float64, n)

	contextLower := strings.ToLower(context)

	var activeCues [][]string
	for style, cues := range visualStyles {
		if strings.Contains(contextLower, style) {
			activeCues = append(activeCues, cues)
		}
	}
	year := yearPattern.FindString(context)

	for i := 0; i < n; i++ {
		for _, cues := range activeCues {
			for _, cue := range cues {
				if strings.Contains(cols.combined[i], cue) {
					scores[i] += s.cfg.StyleMatchBonus
					break
				}
			}
		}
		if year != "" && strings.Contains(cols.combined[i], year) {
			scores[i] += s.cfg.PeriodMatchBonus
		}
	}

	return scores
}

// qualityScores rates intrinsic clip quality: a duration sweet spot, a
// log-compressed view-count bonus and a flat high-definition bonus.
func (s *Scorer) qualityScores(candidates []model.CandidateMetadata, cols candidateText) []float64 {
	n := len(candidates)
	scores := make([]float64, n)

	for i, c := range candidates {
		switch {
		case c.Duration >= s.cfg.SweetSpotMinSecs && c.Duration <= s.cfg.SweetSpotMaxSecs:
			scores[i] += 5.0
		case c.Duration < s.cfg.ShortPenaltySecs:
			scores[i] -= 5.0
		}

		views := math.Log10(float64(c.ViewCount) + 1)
		if views < 0 {
			views = 0
		} else if views > 5 {
			views = 5
		}
		scores[i] += views

		res := strings.ToLower(c.Resolution)
		if strings.Contains(res, "1080") || strings.Contains(res, "4k") || strings.Contains(res, "hd") {
			scores[i] += 2.0
		}
	}

	return scores
}
