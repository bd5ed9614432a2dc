package lexical

import (
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/clipforge/broll-cli/internal/config"
)

// Matcher scores a query against a fitted transcript corpus by averaging
// two independently min-max-normalized rankings: tf-idf cosine similarity
// and BM25. The vector method resists document-length bias; BM25 handles
// term saturation. Scores are in [0,1].
//
// A Matcher is not safe for concurrent use; callers sharing one across
// goroutines must serialize Fit and Score themselves.
type Matcher struct {
	cfg config.LexicalConfig

	fittedHash uint64
	fitted     bool
	corpusLen  int
	tfidf      *tfidfModel
	bm25       *bm25Model
}

// NewMatcher creates a Matcher with the given config.
func NewMatcher(cfg config.LexicalConfig) *Matcher {
	if cfg.BM25K1 <= 0 {
		cfg.BM25K1 = 1.5
	}
	if cfg.BM25B < 0 || cfg.BM25B > 1 {
		cfg.BM25B = 0.75
	}
	return &Matcher{cfg: cfg}
}

func corpusHash(corpus []string) uint64 {
	h := fnv.New64a()
	for _, doc := range corpus {
		h.Write([]byte(doc))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Fit indexes the corpus. Refitting with an identical corpus is a no-op;
// any change refits both models.
func (m *Matcher) Fit(corpus []string) {
	h := corpusHash(corpus)
	if m.fitted && h == m.fittedHash && m.corpusLen == len(corpus) {
		return
	}

	m.tfidf = fitTFIDF(corpus, m.cfg.MaxFeatures)
	m.bm25 = fitBM25(corpus, m.cfg.BM25K1, m.cfg.BM25B)
	m.fittedHash = h
	m.corpusLen = len(corpus)
	m.fitted = true

	zap.L().Debug("lexical: fitted corpus",
		zap.Int("documents", len(corpus)),
		zap.Int("vocabulary", len(m.tfidf.vocab)),
	)
}

// Score returns the hybrid score of the query against every fitted
// document, in corpus order. An empty or unfitted corpus yields an empty
// slice. A query with no overlapping terms scores 0, never NaN.
func (m *Matcher) Score(query string) []float64 {
	if !m.fitted || m.corpusLen == 0 {
		return []float64{}
	}

	tfidf := minMaxNormalize(m.tfidf.similarities(query))
	bm25 := minMaxNormalize(m.bm25.scores(query))

	hybrid := make([]float64, m.corpusLen)
	for i := range hybrid {
		hybrid[i] = (tfidf[i] + bm25[i]) / 2
	}
	return hybrid
}

// minMaxNormalize rescales scores to [0,1] in place. A constant slice has
// no spread to normalize: all-zero (or negative) maps to zeros, a constant
// positive slice maps to ones (every document matched equally well).
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	span := max - min
	if span == 0 {
		fill := 0.0
		if max > 0 {
			fill = 1.0
		}
		for i := range scores {
			scores[i] = fill
		}
		return scores
	}
	for i := range scores {
		scores[i] = (scores[i] - min) / span
	}
	return scores
}
