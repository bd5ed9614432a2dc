// Package visual scores sampled frames against scene text through an
// image-text joint-embedding oracle.
package visual

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Oracle scores images against texts. Implementations return one row per
// image and one column per text, with cosine similarities in [-1,1].
type Oracle interface {
	Similarity(ctx context.Context, images [][]byte, texts []string) ([][]float64, error)
}

// Result is the aggregated visual confidence for one candidate.
type Result struct {
	Confidence     float64 `json:"confidence"`
	BestFrameIndex int     `json:"best_frame_index"`
	Verified       bool    `json:"verified"`
}

// Verifier aggregates oracle similarities into a per-candidate confidence.
type Verifier struct {
	oracle    Oracle
	threshold float64
}

// NewVerifier creates a Verifier. The threshold is a policy constant, not a
// derived value; it gates the Verified flag only.
func NewVerifier(oracle Oracle, threshold float64) *Verifier {
	return &Verifier{oracle: oracle, threshold: threshold}
}

// Verify embeds every frame and description text once, rescales each
// similarity from [-1,1] to [0,1], averages across texts per frame and
// takes the maximum across frames. Empty frame input is "not verified",
// not an error.
func (v *Verifier) Verify(ctx context.Context, frames [][]byte, texts []string) (Result, error) {
	if len(frames) == 0 {
		return Result{Confidence: 0, BestFrameIndex: -1}, nil
	}
	if len(texts) == 0 {
		return Result{Confidence: 0, BestFrameIndex: -1}, nil
	}

	matrix, err := v.oracle.Similarity(ctx, frames, texts)
	if err != nil {
		return Result{BestFrameIndex: -1}, eris.Wrap(err, "visual: similarity")
	}
	if len(matrix) != len(frames) {
		return Result{BestFrameIndex: -1}, eris.Errorf("visual: oracle returned %d rows for %d frames", len(matrix), len(frames))
	}

	best := Result{Confidence: 0, BestFrameIndex: -1}
	for i, row := range matrix {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, sim := range row {
			sum += (sim + 1) / 2
		}
		frameScore := sum / float64(len(row))
		if best.BestFrameIndex == -1 || frameScore > best.Confidence {
			best.Confidence = frameScore
			best.BestFrameIndex = i
		}
	}

	best.Verified = best.Confidence > v.threshold

	zap.L().Debug("visual: verification scored",
		zap.Int("frames", len(frames)),
		zap.Int("texts", len(texts)),
		zap.Float64("confidence", best.Confidence),
		zap.Int("best_frame", best.BestFrameIndex),
		zap.Bool("verified", best.Verified),
	)

	return best, nil
}
