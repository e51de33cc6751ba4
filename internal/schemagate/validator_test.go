package schemagate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestValidateProduct(t *testing.T) {
	good := RawProduct{ID: 1, Title: "Milk", Category: "Dairy", BasePrice: 40, Stock: 3}
	ok, _ := ValidateProduct(good)
	assert.True(t, ok)

	tests := []struct {
		name   string
		mutate func(*RawProduct)
		reason string
	}{
		{"missing title", func(p *RawProduct) { p.Title = "" }, "title failed required"},
		{"missing category", func(p *RawProduct) { p.Category = "" }, "category failed required"},
		{"negative price", func(p *RawProduct) { p.BasePrice = -1 }, "baseprice failed gte"},
		{"discount over 100", func(p *RawProduct) { p.DiscountPercent = 120 }, "discountpercent failed lte"},
		{"zero id", func(p *RawProduct) { p.ID = 0 }, "id failed gt"},
		{"symbols only", func(p *RawProduct) { p.Title = "***" }, "title has no searchable characters"},
		{"pending", func(p *RawProduct) { p.Status = "Pending" }, "status pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			tt.mutate(&p)
			ok, reason := ValidateProduct(p)
			assert.False(t, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestDerive(t *testing.T) {
	p := Derive(RawProduct{
		ID: 4, Title: " Green Apple ", Category: "Fruits", BasePrice: 30,
		IsOffer: true, DiscountPercent: 17, Stock: 2,
		SearchTerms: []string{"Green Apple", "seb", "  ", "Seb"},
	}, now)

	assert.Equal(t, "Green Apple", p.Title)
	assert.Equal(t, "green apple", p.NormalizedTitle)
	assert.True(t, p.OfferActive)
	assert.InDelta(t, 24.9, p.OfferPrice, 1e-9)
	assert.Equal(t, []string{"seb"}, p.Aliases)

	p = Derive(RawProduct{ID: 5, Title: "Milk", Category: "Dairy", BasePrice: 40, DiscountPercent: 10}, now)
	assert.False(t, p.OfferActive, "discount without the offer flag")
	assert.Equal(t, 40.0, p.OfferPrice)
	assert.Zero(t, p.DiscountPercent)
}

func TestOfferWindow(t *testing.T) {
	before, after := now.Add(-time.Hour), now.Add(time.Hour)
	base := RawProduct{ID: 1, Title: "Milk", Category: "Dairy", BasePrice: 40, IsOffer: true, DiscountPercent: 10}

	inside := base
	inside.OfferStart, inside.OfferEnd = &before, &after
	assert.True(t, offerActive(inside, now))

	notYet := base
	notYet.OfferStart = &after
	assert.False(t, offerActive(notYet, now))

	ended := base
	ended.OfferEnd = &before
	assert.False(t, offerActive(ended, now))
}

func TestBuild(t *testing.T) {
	res, err := Build(context.Background(), []RawProduct{
		{ID: 1, Title: "Milk", Category: "Dairy", BasePrice: 40, Stock: 5},
		{ID: 2, Title: "", Category: "Dairy"},
		{ID: 3, Title: "Banana", Category: "Fruits", BasePrice: 30, Stock: 9, IsOffer: true, DiscountPercent: 10},
		{ID: 1, Title: "Milk again", Category: "Dairy", BasePrice: 41},
		{ID: 4, Title: "Almonds", Category: "Nuts", BasePrice: 300},
	}, []RawCategory{
		{Name: "Fruits", URL: "/c/fruits"},
		{Name: "Dairy", URL: "/c/dairy"},
		{Name: "dairy"},
		{Name: ""},
	}, now)
	require.NoError(t, err)

	snap := res.Snapshot
	require.Len(t, snap.Products, 3)
	assert.Equal(t, []string{"Milk", "Banana", "Almonds"},
		[]string{snap.Products[0].Title, snap.Products[1].Title, snap.Products[2].Title})

	require.Len(t, snap.Categories, 3)
	assert.Equal(t, "Fruits", snap.Categories[0].Name)
	assert.Equal(t, 1, snap.Categories[0].ProductCount)
	assert.Equal(t, "Nuts", snap.Categories[2].Name, "categories only seen on products are appended")

	require.Len(t, snap.Offers, 1)
	assert.Equal(t, "Banana", snap.Offers[0].Title)
	assert.Equal(t, 27.0, snap.Offers[0].Price)

	scopes := map[string]string{}
	for _, r := range res.Rejections {
		scopes[r.Scope] = r.Reason
	}
	assert.Equal(t, "title failed required", scopes["product:2"])
	assert.Equal(t, "duplicate id", scopes["product:1"])
	assert.Equal(t, "duplicate name", scopes["category:dairy"])
	assert.Equal(t, "name missing", scopes["category:3"])
}

func TestBuild_KeepsOrderAcrossBatches(t *testing.T) {
	rows := make([]RawProduct, 450)
	for i := range rows {
		rows[i] = RawProduct{ID: int64(i + 1), Title: fmt.Sprintf("item %d", i), Category: "Misc", BasePrice: 1}
	}
	res, err := Build(context.Background(), rows, nil, now)
	require.NoError(t, err)
	require.Len(t, res.Snapshot.Products, 450)
	for i, p := range res.Snapshot.Products {
		assert.Equal(t, int64(i+1), p.ID)
	}
	assert.Equal(t, 450, res.Snapshot.Categories[0].ProductCount)
}

func TestBuild_Empty(t *testing.T) {
	res, err := Build(context.Background(), nil, nil, now)
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Products)
	assert.Empty(t, res.Rejections)
}
