package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Completer is anything that can answer a Prompt. *Client implements it.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Guesser asks the model which known category a word belongs to.
type Guesser struct {
	c Completer
}

// NewGuesser wraps a completer as a category guesser.
func NewGuesser(c Completer) *Guesser {
	return &Guesser{c: c}
}

// GuessCategory returns the model's raw answer. Callers must check it against
// the category list.
func (g *Guesser) GuessCategory(ctx context.Context, word string, categories []string) (string, error) {
	out, err := g.c.Complete(ctx, CategoryPrompt(word, categories))
	if err != nil {
		return "", fmt.Errorf("guess category: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

// CategoryPrompt constrains the model to one of categories or "none".
func CategoryPrompt(word string, categories []string) Prompt {
	return Prompt{
		User: "Choose the most suitable category from this list ONLY:\n" +
			strings.Join(categories, ", ") + "\n\n" +
			"Word: " + word + "\n\n" +
			"Rules:\n" +
			"- Return ONLY ONE category name from the list\n" +
			"- If not related to grocery or shopping, return 'none'\n" +
			"- Do not explain\n",
		MaxTokens: 10,
	}
}

// BenefitPrompt asks for one short health benefit of a product.
func BenefitPrompt(product string) Prompt {
	return Prompt{
		User:      fmt.Sprintf("Give 1 short health benefit of %s.", product),
		MaxTokens: 40,
	}
}

// AnswerPrompt asks for a short general answer to an out-of-catalog question.
func AnswerPrompt(question string) Prompt {
	return Prompt{
		System:    "You are a friendly shopping assistant. Answer in at most two short sentences. If unsure, say you don't know.",
		User:      question,
		MaxTokens: 120,
	}
}

var (
	sentenceEnd    = regexp.MustCompile(`([.!?])\s+`)
	unknownAnswers = []string{
		"i don't have", "i do not have", "i'm not sure", "i’m not sure",
		"i don't know", "i don’t know", "no information", "cannot answer", "unknown",
	}
)

// ShortAnswer keeps the first two sentences of a model answer. It returns ""
// when the answer is empty or admits not knowing.
func ShortAnswer(text string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	lower := strings.ToLower(clean)
	for _, p := range unknownAnswers {
		if strings.Contains(lower, p) {
			return ""
		}
	}
	parts := strings.SplitAfter(sentenceEnd.ReplaceAllString(clean, "$1\n"), "\n")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	short := strings.TrimSpace(strings.ReplaceAll(strings.Join(parts, ""), "\n", " "))
	if len([]rune(short)) < 3 {
		return ""
	}
	return short
}
