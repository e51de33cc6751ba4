package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-assistant/internal/lexicon"
	"storefront-assistant/internal/model"
)

var thresholds = lexicon.Thresholds{CatalogTerm: 0.58, Title: 0.75, CategoryHeuristic: 0.5}

func product(id int64, title, category string, price float64, stock int) model.Product {
	return model.Product{ID: id, Title: title, Category: category, BasePrice: price, Stock: stock}
}

func groceries() *model.Snapshot {
	return &model.Snapshot{
		Products: []model.Product{
			product(1, "Apple", "Fruits", 50, 12),
			product(2, "Banana", "Fruits", 30, 40),
			product(3, "Milk", "Dairy", 40, 8),
			product(4, "Green Grapes", "Fruits", 90, 0),
		},
		Categories: []model.Category{
			{Name: "Fruits", URL: "/c/fruits"},
			{Name: "Dairy", URL: "/c/dairy"},
		},
	}
}

type stubGuesser struct {
	answer string
	err    error
	calls  int
}

func (s *stubGuesser) GuessCategory(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func TestResolveProduct(t *testing.T) {
	r := NewResolver(thresholds)
	snap := groceries()

	p, score := r.ResolveProduct("apple", snap.Products)
	require.NotNil(t, p)
	assert.Equal(t, "Apple", p.Title)
	assert.Equal(t, 1.0, score)

	p, _ = r.ResolveProduct("aple", snap.Products)
	require.NotNil(t, p)
	assert.Equal(t, "Apple", p.Title)

	p, _ = r.ResolveProduct("price milk", snap.Products)
	require.NotNil(t, p)
	assert.Equal(t, "Milk", p.Title)

	p, _ = r.ResolveProduct("greengrapes", snap.Products)
	require.NotNil(t, p)
	assert.Equal(t, "Green Grapes", p.Title)

	p, _ = r.ResolveProduct("xyzxyz", snap.Products)
	assert.Nil(t, p)

	p, _ = r.ResolveProduct("", snap.Products)
	assert.Nil(t, p)
}

func TestResolveProduct_Aliases(t *testing.T) {
	r := NewResolver(thresholds)
	products := []model.Product{
		{ID: 1, Title: "Curd", Category: "Dairy", Aliases: []string{"yogurt", "dahi"}},
	}
	p, _ := r.ResolveProduct("dahi", products)
	require.NotNil(t, p)
	assert.Equal(t, "Curd", p.Title)
}

func TestSearchTerms_CategoryOnlyViaAliases(t *testing.T) {
	plain := model.Product{ID: 1, Title: "Baby Spinach", Category: "Vegetables"}
	assert.Equal(t, []string{"baby spinach", "babyspinach"}, SearchTerms(plain))

	aliased := plain
	aliased.Aliases = []string{"vegetables"}
	assert.Contains(t, SearchTerms(aliased), "vegetables")

	r := NewResolver(thresholds)
	p, _ := r.ResolveProduct("vegetables", []model.Product{plain})
	assert.Nil(t, p)
}

func TestResolveTitle_IsStricter(t *testing.T) {
	r := NewResolver(thresholds)
	products := []model.Product{product(1, "Tomato", "Vegetables", 20, 5)}

	// 0.67 clears the catalog term threshold but not the title threshold.
	p, score := r.ResolveProduct("potato", products)
	require.NotNil(t, p)
	assert.Less(t, score, 0.75)
	assert.Nil(t, r.ResolveTitle("potato", products))
	assert.NotNil(t, r.ResolveTitle("tomato price", products))
}

func TestResolveCategory(t *testing.T) {
	c := ResolveCategory("vegetables", []model.Category{{Name: "vegetable"}})
	require.NotNil(t, c)
	assert.Equal(t, "vegetable", c.Name)

	c = ResolveCategory("vegetable", []model.Category{{Name: "vegetables"}})
	require.NotNil(t, c)
	assert.Equal(t, "vegetables", c.Name)

	cats := []model.Category{{Name: "Dry Fruits"}, {Name: "Fruits"}}
	c = ResolveCategory("fruits", cats)
	require.NotNil(t, c)
	assert.Equal(t, "Fruits", c.Name, "exact match beats containment")

	c = ResolveCategory("fresh fruits offers", []model.Category{{Name: "Fruits"}})
	require.NotNil(t, c)

	assert.Nil(t, ResolveCategory("milk", cats))
	assert.Nil(t, ResolveCategory("", cats))
}

func TestResolve(t *testing.T) {
	r := NewResolver(thresholds)
	res := r.Resolve("fruits", groceries())
	assert.Nil(t, res.Product)
	require.NotNil(t, res.Category)
	assert.Equal(t, "Fruits", res.Category.Name)

	assert.Equal(t, MatchResult{}, r.Resolve("milk", nil))
}

func TestInferCategory_Vocabulary(t *testing.T) {
	g := &stubGuesser{answer: "Dairy"}
	r := NewResolver(thresholds, WithGuesser(g))

	assert.Equal(t, "Fruits", r.InferCategory(context.Background(), "grape", groceries()))
	assert.Zero(t, g.calls)
}

func TestInferCategory_Heuristic(t *testing.T) {
	g := &stubGuesser{answer: "Dairy"}
	r := NewResolver(thresholds, WithGuesser(g))

	assert.Equal(t, "Fruits", r.InferCategory(context.Background(), "bananna", groceries()))
	assert.Zero(t, g.calls)
}

func TestInferCategory_Guesser(t *testing.T) {
	snap := &model.Snapshot{
		Products: []model.Product{
			product(2, "Banana", "Fruits", 30, 40),
			product(5, "Orange", "Fruits", 60, 15),
			product(3, "Milk", "Dairy", 40, 8),
		},
		Categories: []model.Category{{Name: "Fruits"}, {Name: "Dairy"}},
	}
	ctx := context.Background()

	g := &stubGuesser{answer: " FRUITS\n"}
	r := NewResolver(thresholds, WithGuesser(g))
	assert.Equal(t, "Fruits", r.InferCategory(ctx, "apple", snap))
	assert.Equal(t, 1, g.calls)

	// Near misses are discarded, never invented.
	r = NewResolver(thresholds, WithGuesser(&stubGuesser{answer: "fruit"}))
	assert.Empty(t, r.InferCategory(ctx, "apple", snap))

	r = NewResolver(thresholds, WithGuesser(&stubGuesser{answer: "none"}))
	assert.Empty(t, r.InferCategory(ctx, "apple", snap))

	r = NewResolver(thresholds, WithGuesser(&stubGuesser{err: errors.New("timeout")}))
	assert.Empty(t, r.InferCategory(ctx, "apple", snap))

	r = NewResolver(thresholds)
	assert.Empty(t, r.InferCategory(ctx, "apple", snap))
}

func TestInferCategory_OnlyGroceryWords(t *testing.T) {
	g := &stubGuesser{answer: "Fruits"}
	r := NewResolver(thresholds, WithGuesser(g))
	ctx := context.Background()

	assert.Empty(t, r.InferCategory(ctx, "Apple", groceries()))
	assert.Empty(t, r.InferCategory(ctx, "red apple", groceries()))
	assert.Empty(t, r.InferCategory(ctx, "apple1", groceries()))
	assert.Zero(t, g.calls)
}
