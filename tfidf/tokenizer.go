package tfidf

import (
	"strings"

	"github.com/hupe1980/leadrec/schema"
)

// minTokenRunes is the shortest word kept by Tokenize.
const minTokenRunes = 2

// Tokenize splits text into maximal runs of letters, digits and underscores,
// discarding runs shorter than two runes.
func Tokenize(text string, lowercase bool) []string {
	if lowercase {
		text = strings.ToLower(text)
	}

	var tokens []string
	start, runes := -1, 0
	flush := func(end int) {
		if start >= 0 && runes >= minTokenRunes {
			tokens = append(tokens, text[start:end])
		}
		start, runes = -1, 0
	}

	for i, r := range text {
		if schema.IsWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

// NGrams expands tokens into every n-gram with min <= n <= max, shortest
// first. Words of an n-gram are joined by a single space.
func NGrams(tokens []string, min, max int) []string {
	if min == 1 && max == 1 {
		return tokens
	}
	var out []string
	for n := min; n <= max && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// analyze returns the term counts of one document.
func analyze(doc string, p Params) map[string]int {
	terms := NGrams(Tokenize(doc, p.Lowercase), p.NGramMin, p.NGramMax)
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

