package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  Good Morning!!  ", "good morning"},
		{"Price of   MILK?", "price of milk"},
		{"Café au lait", "cafe au lait"},
		{"order #42", "order 42"},
		{"tab\tand\nnewline", "tab and newline"},
		{"!!!", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Good Morning!!", "  a  b  ", "Crème brûlée #1", "ÄÖÜ ß", "what's in my cart?"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "price milk", Clean("What is the price of milk?"))
	assert.Equal(t, "apples", Clean("Show me any apples please"))
	assert.Equal(t, "", Clean("what is the"))
	assert.Equal(t, "fresh milk", CleanWith("the fresh milk", []string{"the"}))
}

func TestNewQuery(t *testing.T) {
	q := NewQuery("Tell me the price of Milk!", nil)
	assert.Equal(t, "Tell me the price of Milk!", q.Raw)
	assert.Equal(t, "tell me the price of milk", q.Normalized)
	assert.Equal(t, "price milk", q.Clean)
}

func TestIsMeaningless(t *testing.T) {
	assert.True(t, IsMeaningless("", nil))
	assert.True(t, IsMeaningless("x", nil))
	assert.True(t, IsMeaningless("?!a", nil))
	assert.True(t, IsMeaningless("the", nil))
	assert.True(t, IsMeaningless("a the an", nil))
	assert.False(t, IsMeaningless("milk", nil))
	assert.False(t, IsMeaningless("a milk", nil))
}

func TestLooksLikeGroceryWord(t *testing.T) {
	assert.True(t, LooksLikeGroceryWord("apple"))
	assert.True(t, LooksLikeGroceryWord("  kiwi "))
	assert.False(t, LooksLikeGroceryWord("Apple"))
	assert.False(t, LooksLikeGroceryWord("apple price"))
	assert.False(t, LooksLikeGroceryWord("apple2"))
	assert.False(t, LooksLikeGroceryWord(""))
	assert.False(t, LooksLikeGroceryWord("abcdefghijklmnopqrstu"))
}

func TestFixArticle(t *testing.T) {
	assert.Equal(t, "an apple a day", FixArticle("a apple a day"))
	assert.Equal(t, "Vitamin A in carrots", FixArticle("Vitamin A in carrots"))
	assert.Equal(t, "<a href='#'>x</a>", FixArticle("<a href='#'>x</a>"))
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("hi there", "hi"))
	assert.True(t, ContainsPhrase("oh, hi!", "hi"))
	assert.False(t, ContainsPhrase("chicken", "hi"))
	assert.False(t, ContainsPhrase("this", "hi"))
	assert.True(t, ContainsPhrase("good morning!!", "good morning"))
	assert.False(t, ContainsPhrase("anything", ""))
}

func TestHasWordPrefix(t *testing.T) {
	assert.True(t, HasWordPrefix("any offers today", "offer"))
	assert.False(t, HasWordPrefix("coffer", "offer"))
	assert.True(t, HasWordPrefix("my orders", "order"))
	assert.False(t, HasWordPrefix("border", "order"))
	assert.True(t, HasAnyWordPrefix("out of stock", []string{"available", "stock"}))
	assert.False(t, HasAnyWordPrefix("milk", []string{"cart"}))
}
