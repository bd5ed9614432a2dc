// Package scorer implements vectorized multi-factor relevance scoring over
// raw candidate metadata. Scoring is pure computation: no I/O, no errors for
// normal input.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/clipforge/broll-cli/internal/config"
)

// DefaultConfig returns a config.ScorerConfig with the stock weights.
// Component weights sum to 1.
func DefaultConfig() config.ScorerConfig {
	return config.ScorerConfig{
		KeywordWeight: 0.4,
		ContextWeight: 0.3,
		QualityWeight: 0.3,

		TitleHitWeight:   3.0,
		DescHitWeight:    1.0,
		TagHitWeight:     2.0,
		FullTitleBonus:   5.0,
		StyleMatchBonus:  10.0,
		PeriodMatchBonus: 8.0,

		SweetSpotMinSecs: 10,
		SweetSpotMaxSecs: 300,
		ShortPenaltySecs: 5,
	}
}

// WeightSum returns the sum of the three component weights.
func WeightSum(c config.ScorerConfig) float64 {
	return c.KeywordWeight + c.ContextWeight + c.QualityWeight
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	weights := map[string]float64{
		"keyword_weight": c.KeywordWeight,
		"context_weight": c.ContextWeight,
		"quality_weight": c.QualityWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	// Weights should be close to 1 (allow tolerance for floating-point).
	if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.2f", sum))
	}

	if c.TitleHitWeight < 0 || c.DescHitWeight < 0 || c.TagHitWeight < 0 {
		errs = append(errs, "hit weights must be >= 0")
	}

	if c.SweetSpotMinSecs < 0 {
		errs = append(errs, "sweet_spot_min_secs must be >= 0")
	}
	if c.SweetSpotMaxSecs > 0 && c.SweetSpotMaxSecs < c.SweetSpotMinSecs {
		errs = append(errs, "sweet_spot_max_secs must be >= sweet_spot_min_secs")
	}
	if c.ShortPenaltySecs < 0 {
		errs = append(errs, "short_penalty_secs must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
