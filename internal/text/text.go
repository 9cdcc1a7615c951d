// Package text provides the keyword tokenization shared by the memory stores
// and the reasoning router.
package text

import "strings"

// stopWords are excluded from keyword extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true,
}

// Tokenize splits text into lowercase word tokens, skipping single chars.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' ||
			r > 127)
	})
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(f)
		if len(w) > 1 {
			result = append(result, w)
		}
	}
	return result
}

// Keywords tokenizes and drops stop words and very short tokens, keeping the
// words that carry meaning for matching.
func Keywords(s string) []string {
	tokens := Tokenize(s)
	result := tokens[:0:0]
	for _, w := range tokens {
		if len(w) > 2 && !stopWords[w] {
			result = append(result, w)
		}
	}
	return result
}

// Set builds a membership set from tokens.
func Set(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// OverlapRatio returns the fraction of query tokens present in target.
func OverlapRatio(query []string, target map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for _, q := range query {
		if target[q] {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
