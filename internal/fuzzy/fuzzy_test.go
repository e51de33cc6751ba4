package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_ShortCircuits(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"apple", "apple", 1},
		{"green apple", "greenapple", 1},
		{"apple", "green apple", 1},
		{"pricemilk", "milk", 1},
		{"", "milk", 0},
		{"milk", "", 0},
		{"", "", 0},
	}
	for _, tc := range tests {
		t.Run(tc.a+"|"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, Similarity(tc.a, tc.b))
		})
	}
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range []string{"a", "milk", "basmati rice", "x1y2"} {
		assert.Equal(t, 1.0, Similarity(s, s), s)
	}
}

func TestComponents_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"aple", "apple"},
		{"tomato", "potato"},
		{"banana", "bandana"},
		{"abcd", "dcba"},
		{"carrot", "parrot"},
	}
	for _, p := range pairs {
		assert.Equal(t, Levenshtein(p[0], p[1]), Levenshtein(p[1], p[0]), p)
		assert.InDelta(t, SequenceRatio(p[0], p[1]), SequenceRatio(p[1], p[0]), 1e-9, p)
		assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 1e-9, p)
	}
}

func TestLevenshteinRatio(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinRatio("", ""))
	assert.Equal(t, 0.0, LevenshteinRatio("", "abc"))
	assert.InDelta(t, 0.8, LevenshteinRatio("aple", "apple"), 1e-9)
}

func TestSequenceRatio(t *testing.T) {
	// "ple" + "a" are matched: 2*4/9
	assert.InDelta(t, 8.0/9.0, SequenceRatio("aple", "apple"), 1e-9)
	assert.Equal(t, 0.0, SequenceRatio("abc", "xyz"))
	assert.Equal(t, 1.0, SequenceRatio("", ""))
}

func TestSimilarity_TypoClearsCatalogThreshold(t *testing.T) {
	assert.GreaterOrEqual(t, Similarity("aple", "apple"), CatalogTermThreshold)
	assert.Less(t, Similarity("xyzxyz", "apple"), CatalogTermThreshold)
}

type item struct {
	name  string
	terms []string
}

func itemTerms(i item) []string { return i.terms }

func TestMatchBest(t *testing.T) {
	items := []item{
		{"banana", []string{"banana"}},
		{"apple", []string{"apple", "red apple"}},
		{"apple juice", []string{"apple juice"}},
	}

	got, score, ok := MatchBest("aple", items, itemTerms, CatalogTermThreshold)
	assert.True(t, ok)
	assert.Equal(t, "apple", got.name)
	assert.Greater(t, score, 0.8)

	_, _, ok = MatchBest("xyzxyz", items, itemTerms, CatalogTermThreshold)
	assert.False(t, ok)
}

func TestMatchBest_FirstPerfectHitWins(t *testing.T) {
	items := []item{
		{"first", []string{"zzz", "apple"}},
		{"second", []string{"apple"}},
	}
	got, score, ok := MatchBest("apple", items, itemTerms, TitleThreshold)
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "first", got.name)
}

func TestMatchBest_TieKeepsInsertionOrder(t *testing.T) {
	items := []item{
		{"one", []string{"abcx"}},
		{"two", []string{"abcy"}},
	}
	got, _, ok := MatchBest("abcz", items, itemTerms, 0.5)
	assert.True(t, ok)
	assert.Equal(t, "one", got.name)
}
