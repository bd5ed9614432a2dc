package lexical

import "math"

// bm25Model is an Okapi BM25 index over the tokenized corpus. Unlike the
// vector-space side it keeps stopwords; term saturation handles them.
type bm25Model struct {
	k1, b     float64
	docFreqs  []map[string]int
	docLens   []float64
	avgDocLen float64
	idf       map[string]float64
}

func fitBM25(corpus []string, k1, b float64) *bm25Model {
	n := len(corpus)
	m := &bm25Model{
		k1:       k1,
		b:        b,
		docFreqs: make([]map[string]int, n),
		docLens:  make([]float64, n),
		idf:      make(map[string]float64),
	}
	if n == 0 {
		return m
	}

	df := make(map[string]int)
	var totalLen float64
	for i, doc := range corpus {
		tokens := Tokenize(doc)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		m.docFreqs[i] = freqs
		m.docLens[i] = float64(len(tokens))
		totalLen += m.docLens[i]
		for tok := range freqs {
			df[tok]++
		}
	}
	m.avgDocLen = totalLen / float64(n)

	for tok, d := range df {
		m.idf[tok] = math.Log((float64(n)-float64(d)+0.5)/(float64(d)+0.5) + 1)
	}

	return m
}

// scores returns the raw BM25 score of the query against every document.
func (m *bm25Model) scores(query string) []float64 {
	scores := make([]float64, len(m.docFreqs))
	if len(m.docFreqs) == 0 {
		return scores
	}

	qTokens := Tokenize(query)
	for i, freqs := range m.docFreqs {
		var lenNorm float64
		if m.avgDocLen > 0 {
			lenNorm = m.k1 * (1 - m.b + m.b*m.docLens[i]/m.avgDocLen)
		}
		var score float64
		for _, tok := range qTokens {
			tf := float64(freqs[tok])
			if tf == 0 {
				continue
			}
			score += m.idf[tok] * tf * (m.k1 + 1) / (tf + lenNorm)
		}
		scores[i] = score
	}
	return scores
}
