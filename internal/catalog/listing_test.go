package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-assistant/internal/model"
)

func titles(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func TestVocabulary(t *testing.T) {
	products := []model.Product{
		{Title: "Apple", Category: "Fruits"},
		{Title: "Milk", Category: "Dairy"},
		{Title: "Banana", Category: "Fruits"},
		{Title: "Apple", Category: "Fruits"},
		{Title: "Mystery"},
	}
	assert.Equal(t, []VocabularyEntry{
		{Category: "Fruits", Titles: []string{"apple", "banana"}},
		{Category: "Dairy", Titles: []string{"milk"}},
	}, Vocabulary(products))
}

func TestRelatedProducts(t *testing.T) {
	products := []model.Product{
		{ID: 1, Title: "Sold Out", Category: "fruits", Stock: 0, OfferActive: true, Rating: 5},
		{ID: 2, Title: "Plain", Category: "Fruits", Stock: 3, Rating: 4.5},
		{ID: 3, Title: "On Offer", Category: "Fruits", Stock: 3, OfferActive: true, Rating: 3},
		{ID: 4, Title: "Top Rated", Category: "Fruits", Stock: 3, Rating: 4.9},
		{ID: 5, Title: "Milk", Category: "Dairy", Stock: 3},
	}
	assert.Equal(t, []string{"On Offer", "Top Rated", "Plain", "Sold Out"}, titles(RelatedProducts("FRUITS", products, 6)))
	assert.Equal(t, []string{"On Offer", "Top Rated"}, titles(RelatedProducts("fruits", products, 2)))
	assert.Empty(t, RelatedProducts("bakery", products, 6))
}

func TestAlternatives(t *testing.T) {
	products := []model.Product{
		{ID: 1, Title: "Milk", Category: "Dairy", Stock: 3},
		{ID: 2, Title: "Paneer", Category: "Dairy", Stock: 2},
		{ID: 3, Title: "Cheese", Category: "Dairy", Stock: 0},
		{ID: 4, Title: "Apple", Category: "Fruits", Stock: 9},
	}
	assert.Equal(t, []string{"Paneer"}, titles(Alternatives(products[0], products, 6)))
}

func TestInStockIn(t *testing.T) {
	products := []model.Product{
		{Title: "Eggs", Category: "eggs", Stock: 1},
		{Title: "Apple", Category: "Fruits", Stock: 0},
		{Title: "Banana", Category: "Fruits", Stock: 4},
		{Title: "Chips", Category: "Snacks", Stock: 4},
	}
	assert.Equal(t, []string{"Eggs", "Banana"}, titles(InStockIn([]string{"fruits", "dairy", "eggs"}, products, 6)))
	assert.Equal(t, []string{"Eggs"}, titles(InStockIn([]string{"fruits", "eggs"}, products, 1)))
}

func TestOfferProducts(t *testing.T) {
	products := []model.Product{
		{Title: "Apple Juice", Category: "Drinks", OfferActive: true, DiscountPercent: 10, Stock: 0},
		{Title: "Red Apple", Category: "Fruits", OfferActive: true, DiscountPercent: 5, Stock: 4},
		{Title: "Banana", Category: "Fruits", OfferActive: true, DiscountPercent: 20, Stock: 4},
		{Title: "Milk", Category: "Dairy", Stock: 4},
	}
	assert.Equal(t, []string{"Banana", "Red Apple", "Apple Juice"}, titles(OfferProducts(products, OfferFilter{}, 6)))
	assert.Equal(t, []string{"Red Apple", "Apple Juice"}, titles(OfferProducts(products, OfferFilter{ProductTitle: "Apple"}, 6)))
	assert.Equal(t, []string{"Banana", "Red Apple"}, titles(OfferProducts(products, OfferFilter{Category: "fruits"}, 6)))
	assert.Empty(t, OfferProducts(products, OfferFilter{Category: "dairy"}, 6))
}

func TestCategoryURL(t *testing.T) {
	cats := []model.Category{{Name: "Fruits", URL: "/c/fruits"}, {Name: "Dairy"}}
	assert.Equal(t, "/c/fruits", CategoryURL("fruits", cats))
	assert.Equal(t, "#", CategoryURL("Dairy", cats))
	assert.Equal(t, "#", CategoryURL("bakery", cats))
}
