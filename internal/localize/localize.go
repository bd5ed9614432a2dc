// Package localize finds the keyword-densest time window in a transcript.
package localize

import (
	"strings"

	"github.com/clipforge/broll-cli/internal/config"
	"github.com/clipforge/broll-cli/internal/model"
)

// DefaultWindowSegments is the forward window size when the config leaves
// it unset.
const DefaultWindowSegments = 5

// Localizer scans fixed-size forward windows of consecutive segments and
// keeps the one with the most keyword hits. Transcript segments are short
// and keyword-dense clusters are few, so the greedy O(n·w) scan is enough;
// a global search buys nothing here.
type Localizer struct {
	cfg config.LocalizerConfig
}

// New creates a Localizer with the given config.
func New(cfg config.LocalizerConfig) *Localizer {
	if cfg.WindowSegments <= 0 {
		cfg.WindowSegments = DefaultWindowSegments
	}
	return &Localizer{cfg: cfg}
}

// Localize returns the best keyword window of at most maxDuration seconds,
// or nil when no window of at least minDuration exists. Ties on hit count
// go to the earliest start time.
func (l *Localizer) Localize(segments []model.TranscriptSegment, keywords []string, minDuration, maxDuration float64) *model.LocalizedWindow {
	if len(segments) == 0 {
		return nil
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	var best *model.LocalizedWindow
	for i := range segments {
		end := i + l.cfg.WindowSegments
		if end > len(segments) {
			end = len(segments)
		}
		window := segments[i:end]

		var sb strings.Builder
		for j, seg := range window {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(seg.Text)
		}
		text := sb.String()
		textLower := strings.ToLower(text)

		hits := 0
		for _, kw := range lowered {
			if kw != "" && strings.Contains(textLower, kw) {
				hits++
			}
		}

		start := window[0].StartTime
		stop := window[len(window)-1].EndTime
		if maxDuration > 0 && stop > start+maxDuration {
			stop = start + maxDuration
		}
		if stop-start < minDuration {
			continue
		}

		// Strict > keeps the earliest window on equal hit counts.
		if best == nil || hits > best.KeywordHits {
			best = &model.LocalizedWindow{
				StartTime:   start,
				EndTime:     stop,
				Text:        text,
				KeywordHits: hits,
			}
		}
	}

	return best
}
