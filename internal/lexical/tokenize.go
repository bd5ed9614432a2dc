// Package lexical implements hybrid lexical transcript matching: a term
// weighted vector-space similarity combined with a probabilistic BM25
// ranking over the same corpus.
package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped from vector-space terms. BM25 keeps them; its
// saturation handles high-frequency terms on its own.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"as": true, "is": true, "was": true, "are": true, "were": true,
	"be": true, "been": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true,
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and strips diacritics so accented transcripts match
// plain-ASCII queries.
func fold(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Tokenize splits folded text on non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// terms produces the vector-space term stream: stopword-filtered unigrams
// plus bigrams over the surviving tokens.
func terms(text string) []string {
	tokens := Tokenize(text)

	kept := tokens[:0]
	for _, tok := range tokens {
		if stopwords[tok] || len(tok) < 2 {
			continue
		}
		kept = append(kept, tok)
	}

	out := make([]string, 0, len(kept)*2)
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}
