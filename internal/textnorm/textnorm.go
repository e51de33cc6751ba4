// Package textnorm canonicalizes free-text shopper queries before they are
// classified or matched against the catalog.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopWords are dropped by Clean when no lexicon is supplied.
var DefaultStopWords = []string{
	"what", "is", "are", "the", "in", "of", "and", "to", "me",
	"show", "tell", "please", "any", "a", "an", "wht",
}

// DefaultMeaningless are filler words that carry no shopping intent.
var DefaultMeaningless = []string{"a", "an", "the"}

var (
	// golang.org/x/text: decompose, drop combining marks, recompose ("café" -> "cafe").
	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
	spaces   = regexp.MustCompile(`\s+`)
	article  = regexp.MustCompile(`\ba\s+([aeiou])`)
)

// Query is a single shopper utterance in its three canonical forms.
type Query struct {
	Raw        string
	Normalized string
	Clean      string
}

// NewQuery builds all forms of raw. A nil stop-word list uses DefaultStopWords.
func NewQuery(raw string, stopWords []string) Query {
	n := Normalize(raw)
	return Query{
		Raw:        raw,
		Normalized: n,
		Clean:      CleanWith(n, stopWords),
	}
}

// Normalize lower-cases text, folds accents, strips everything outside
// [a-z0-9 ] and collapses whitespace. It is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(stripAccents, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	folded = nonAlnum.ReplaceAllString(folded, "")
	return strings.TrimSpace(spaces.ReplaceAllString(folded, " "))
}

// Clean normalizes text and removes the default stop-words.
func Clean(text string) string {
	return CleanWith(text, nil)
}

// CleanWith normalizes text and removes the given stop-words.
func CleanWith(text string, stopWords []string) string {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[w] = struct{}{}
	}

	words := strings.Fields(Normalize(text))
	kept := words[:0]
	for _, w := range words {
		if _, ok := stop[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// IsMeaningless reports whether query is empty, a single character, or made
// only of filler words. A nil filler list uses DefaultMeaningless.
func IsMeaningless(query string, filler []string) bool {
	if filler == nil {
		filler = DefaultMeaningless
	}
	q := Normalize(query)
	if len([]rune(q)) <= 1 {
		return true
	}
	for _, w := range strings.Fields(q) {
		found := false
		for _, f := range filler {
			if w == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// LooksLikeGroceryWord reports whether raw could be the name of a single
// grocery item: alphabetic, not capitalised, at most 20 characters.
func LooksLikeGroceryWord(raw string) bool {
	q := strings.TrimSpace(raw)
	if q == "" || len([]rune(q)) > 20 {
		return false
	}
	for i, r := range q {
		if !unicode.IsLetter(r) {
			return false
		}
		if i == 0 && unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// FixArticle rewrites "a" before a vowel to "an".
func FixArticle(text string) string {
	return article.ReplaceAllString(text, "an $1")
}

// ContainsPhrase reports whether phrase occurs in text bounded on both sides
// by a non-alphanumeric rune or the string edge ("hi" matches "hi there" but
// not "chicken").
func ContainsPhrase(text, phrase string) bool {
	return containsBounded(text, phrase, true)
}

// HasWordPrefix reports whether some word of text starts with phrase
// ("offer" matches "offers" but not "coffer").
func HasWordPrefix(text, phrase string) bool {
	return containsBounded(text, phrase, false)
}

// ContainsAnyPhrase is ContainsPhrase over a keyword set.
func ContainsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}

// HasAnyWordPrefix is HasWordPrefix over a keyword set.
func HasAnyWordPrefix(text string, phrases []string) bool {
	for _, p := range phrases {
		if HasWordPrefix(text, p) {
			return true
		}
	}
	return false
}

func containsBounded(text, phrase string, right bool) bool {
	if phrase == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && (!right || boundaryAfter(text, end)) {
			return true
		}
		from = start + 1
		if from >= len(text) {
			return false
		}
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := lastRune(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := []rune(s[i:])[0]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lastRune(s string) rune {
	rs := []rune(s)
	return rs[len(rs)-1]
}
