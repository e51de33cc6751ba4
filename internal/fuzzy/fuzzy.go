// Package fuzzy scores how closely a shopper's term matches a catalog term.
package fuzzy

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Per call site thresholds. They differ on purpose and are tuned independently.
const (
	// CatalogTermThreshold applies when matching against all search terms of a product.
	CatalogTermThreshold = 0.58
	// TitleThreshold applies when matching against a single product title.
	TitleThreshold = 0.75
	// CategoryHeuristicThreshold applies to the category inference heuristic.
	CategoryHeuristicThreshold = 0.5
)

// Similarity returns a score in [0, 1] for two normalized strings. Spaces are
// ignored. Equality or containment scores 1; otherwise the best of the edit
// distance ratio and the sequence ratio is returned. Empty input scores 0.
func Similarity(a, b string) float64 {
	a = squash(a)
	b = squash(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return 1
	}
	lev := LevenshteinRatio(a, b)
	seq := SequenceRatio(a, b)
	if lev > seq {
		return lev
	}
	return seq
}

// Levenshtein returns the edit distance between a and b.
func Levenshtein(a, b string) int {
	// lithammer/fuzzysearch: rune-aware Levenshtein distance.
	return fuzzy.LevenshteinDistance(a, b)
}

// LevenshteinRatio converts the edit distance into 1 - d/max(len(a), len(b)).
func LevenshteinRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// SequenceRatio is the Ratcliff/Obershelp ratio 2*M/T, where M is the number
// of characters in matching blocks and T the combined length. Matching blocks
// depend on which longest block is picked first, so both directions are
// computed and the larger is returned.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := matchingChars(ra, rb)
	if n := matchingChars(rb, ra); n > m {
		m = n
	}
	return 2 * float64(m) / float64(total)
}

// matchingChars counts characters covered by the recursive longest common
// block decomposition of a and b.
func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, k := longestBlock(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingChars(a[:i], b[:j]) + matchingChars(a[i+k:], b[j+k:])
}

// longestBlock finds the longest common substring, earliest in a then b.
func longestBlock(a, b []rune) (int, int, int) {
	bestI, bestJ, bestK := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestK {
					bestI, bestJ, bestK = i-cur[j], j-cur[j], cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestK
}

// MatchBest returns the candidate whose terms score highest against query,
// provided that score reaches threshold. The first candidate reaching the
// maximum wins; a perfect score stops the scan.
func MatchBest[T any](query string, candidates []T, terms func(T) []string, threshold float64) (T, float64, bool) {
	var (
		best      T
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		for _, term := range terms(c) {
			s := Similarity(query, term)
			if s > bestScore {
				best, bestScore, found = c, s, true
			}
			if s == 1 {
				return c, 1, true
			}
		}
	}
	if !found || bestScore < threshold {
		var zero T
		return zero, bestScore, false
	}
	return best, bestScore, true
}

func squash(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}
