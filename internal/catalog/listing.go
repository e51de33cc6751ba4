package catalog

import (
	"sort"
	"strings"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/textnorm"
)

// VocabularyEntry lists the normalized product titles of one category.
type VocabularyEntry struct {
	Category string
	Titles   []string
}

// Vocabulary groups normalized product titles by category, in order of first
// appearance so scans are deterministic.
func Vocabulary(products []model.Product) []VocabularyEntry {
	var out []VocabularyEntry
	pos := map[string]int{}
	seen := map[string]struct{}{}
	for _, p := range products {
		title := titleKey(p)
		if p.Category == "" || title == "" {
			continue
		}
		i, ok := pos[p.Category]
		if !ok {
			i = len(out)
			pos[p.Category] = i
			out = append(out, VocabularyEntry{Category: p.Category})
		}
		key := p.Category + "\x00" + title
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out[i].Titles = append(out[i].Titles, title)
	}
	return out
}

// SameCategory reports whether two category names are equal after
// normalization.
func SameCategory(a, b string) bool {
	return textnorm.Normalize(a) == textnorm.Normalize(b)
}

// RelatedProducts lists products of category with in-stock items first, then
// items on offer, then by rating.
func RelatedProducts(category string, products []model.Product, limit int) []model.Product {
	var items []model.Product
	for _, p := range products {
		if SameCategory(p.Category, category) {
			items = append(items, p)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.InStock() != b.InStock() {
			return a.InStock()
		}
		if a.OfferActive != b.OfferActive {
			return a.OfferActive
		}
		return a.Rating > b.Rating
	})
	return capped(items, limit)
}

// Alternatives lists in-stock products sharing p's category, excluding p.
func Alternatives(p model.Product, products []model.Product, limit int) []model.Product {
	var out []model.Product
	for _, r := range RelatedProducts(p.Category, products, 0) {
		if r.ID == p.ID && r.Title == p.Title {
			continue
		}
		if !r.InStock() {
			continue
		}
		out = append(out, r)
	}
	return capped(out, limit)
}

// InStockIn lists in-stock products whose category is one of categories,
// in catalog order.
func InStockIn(categories []string, products []model.Product, limit int) []model.Product {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[textnorm.Normalize(c)] = struct{}{}
	}
	var out []model.Product
	for _, p := range products {
		if !p.InStock() {
			continue
		}
		if _, ok := allowed[textnorm.Normalize(p.Category)]; ok {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// OfferFilter scopes OfferProducts. Empty fields do not filter.
type OfferFilter struct {
	ProductTitle string
	Category     string
}

// OfferProducts lists products on offer, in-stock first and then by
// discount, largest first.
func OfferProducts(products []model.Product, f OfferFilter, limit int) []model.Product {
	title := textnorm.Normalize(f.ProductTitle)
	var items []model.Product
	for _, p := range products {
		if !p.OfferActive {
			continue
		}
		if title != "" && !strings.Contains(titleKey(p), title) {
			continue
		}
		if f.Category != "" && !SameCategory(p.Category, f.Category) {
			continue
		}
		items = append(items, p)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.InStock() != b.InStock() {
			return a.InStock()
		}
		return a.DiscountPercent > b.DiscountPercent
	})
	return capped(items, limit)
}

// CategoryURL returns the listing page of the named category, or "#".
func CategoryURL(name string, categories []model.Category) string {
	for _, c := range categories {
		if SameCategory(c.Name, name) && c.URL != "" {
			return c.URL
		}
	}
	return "#"
}

func capped(items []model.Product, limit int) []model.Product {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
