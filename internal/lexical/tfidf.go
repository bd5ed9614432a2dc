package lexical

import (
	"math"
	"sort"
)

// tfidfModel is a smoothed-idf, l2-normalized vector-space model over the
// fitted corpus. Vocabulary is capped at maxFeatures terms, kept by
// descending collection frequency (alphabetical tie-break for stability).
type tfidfModel struct {
	vocab   map[string]int // term -> column
	idf     []float64
	docVecs []map[int]float64 // sparse, l2-normalized
}

func fitTFIDF(corpus []string, maxFeatures int) *tfidfModel {
	n := len(corpus)
	m := &tfidfModel{vocab: make(map[string]int)}
	if n == 0 {
		return m
	}

	docTerms := make([][]string, n)
	df := make(map[string]int)
	cf := make(map[string]int)
	for i, doc := range corpus {
		ts := terms(doc)
		docTerms[i] = ts
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			cf[t]++
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	// Select vocabulary.
	allTerms := make([]string, 0, len(cf))
	for t := range cf {
		allTerms = append(allTerms, t)
	}
	sort.Slice(allTerms, func(i, j int) bool {
		if cf[allTerms[i]] != cf[allTerms[j]] {
			return cf[allTerms[i]] > cf[allTerms[j]]
		}
		return allTerms[i] < allTerms[j]
	})
	if maxFeatures > 0 && len(allTerms) > maxFeatures {
		allTerms = allTerms[:maxFeatures]
	}
	sort.Strings(allTerms)
	for col, t := range allTerms {
		m.vocab[t] = col
	}

	// Smoothed idf, as if one extra document contained every term.
	m.idf = make([]float64, len(allTerms))
	for t, col := range m.vocab {
		m.idf[col] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	m.docVecs = make([]map[int]float64, n)
	for i, ts := range docTerms {
		m.docVecs[i] = m.vectorize(ts)
	}

	return m
}

// vectorize builds an l2-normalized tf-idf vector from a term stream.
func (m *tfidfModel) vectorize(ts []string) map[int]float64 {
	vec := make(map[int]float64)
	for _, t := range ts {
		if col, ok := m.vocab[t]; ok {
			vec[col]++
		}
	}
	var norm float64
	for col, tf := range vec {
		w := tf * m.idf[col]
		vec[col] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col := range vec {
			vec[col] /= norm
		}
	}
	return vec
}

// similarities returns the cosine similarity between the query and every
// fitted document. Both sides are l2-normalized, so this is a dot product.
func (m *tfidfModel) similarities(query string) []float64 {
	scores := make([]float64, len(m.docVecs))
	qv := m.vectorize(terms(query))
	if len(qv) == 0 {
		return scores
	}
	for i, dv := range m.docVecs {
		var dot float64
		// Iterate the smaller vector.
		a, b := qv, dv
		if len(dv) < len(qv) {
			a, b = dv, qv
		}
		for col, w := range a {
			dot += w * b[col]
		}
		scores[i] = dot
	}
	return scores
}
