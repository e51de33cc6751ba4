package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	out    string
	err    error
	prompt Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	f.prompt = p
	return f.out, f.err
}

func TestGuesser(t *testing.T) {
	f := &fakeCompleter{out: " Fruits\n"}
	g := NewGuesser(f)

	got, err := g.GuessCategory(context.Background(), "apple", []string{"Fruits", "Dairy"})
	require.NoError(t, err)
	assert.Equal(t, "fruits", got)
	assert.Contains(t, f.prompt.User, "Fruits, Dairy")
	assert.Contains(t, f.prompt.User, "Word: apple")
	assert.Equal(t, 10, f.prompt.MaxTokens)

	f.err = errors.New("boom")
	_, err = g.GuessCategory(context.Background(), "apple", nil)
	assert.ErrorContains(t, err, "guess category")
}

func TestBenefitPrompt(t *testing.T) {
	p := BenefitPrompt("Milk")
	assert.Equal(t, "Give 1 short health benefit of Milk.", p.User)
	assert.Equal(t, 40, p.MaxTokens)
}

func TestShortAnswer(t *testing.T) {
	assert.Equal(t, "One. Two!", ShortAnswer("One. Two! Three?"))
	assert.Equal(t, "Paris is the capital of France.", ShortAnswer("Paris is the capital of France.\n"))
	assert.Empty(t, ShortAnswer("I don't know the answer."))
	assert.Empty(t, ShortAnswer("  "))
	assert.Empty(t, ShortAnswer("ok"))
}
