// Package schemagate turns raw catalog rows into a validated, derived
// snapshot. Bad rows are rejected one by one; the rest of the batch is kept.
package schemagate

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/textnorm"
)

// go-playground/validator/v10: struct tags carry the row-level rules.
var validate = validator.New()

// RawProduct is a product row as exported by the storefront.
type RawProduct struct {
	ID              int64      `json:"id" validate:"gt=0"`
	Title           string     `json:"title" validate:"required,max=200"`
	Category        string     `json:"category" validate:"required"`
	BasePrice       float64    `json:"base_price" validate:"gte=0"`
	Stock           int        `json:"stock" validate:"gte=0"`
	Status          string     `json:"status"`
	IsOffer         bool       `json:"is_offer"`
	DiscountPercent int        `json:"discount_percent" validate:"gte=0,lte=100"`
	OfferStart      *time.Time `json:"offer_start,omitempty"`
	OfferEnd        *time.Time `json:"offer_end,omitempty"`
	Rating          float64    `json:"rating" validate:"gte=0,lte=5"`
	URL             string     `json:"url"`
	Image           string     `json:"image"`
	SearchTerms     []string   `json:"search_terms"`
}

// RawCategory is a category row.
type RawCategory struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url"`
}

// Rejection records a rejected row with its reason.
type Rejection struct {
	Scope  string `json:"scope"` // e.g. "product:42" or "category:3"
	Reason string `json:"reason"`
}

// Result is the outcome of one Build.
type Result struct {
	Snapshot   *model.Snapshot
	Rejections []Rejection
}

// ValidateProduct checks one product row. Only approved (or unset) statuses
// are sellable.
func ValidateProduct(p RawProduct) (bool, string) {
	if err := validate.Struct(p); err != nil {
		return false, firstViolation(err)
	}
	if textnorm.Normalize(p.Title) == "" {
		return false, "title has no searchable characters"
	}
	if s := strings.ToLower(strings.TrimSpace(p.Status)); s != "" && s != "approved" {
		return false, "status " + s
	}
	return true, ""
}

func firstViolation(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return strings.ToLower(fe.Field()) + " failed " + fe.Tag()
	}
	return err.Error()
}

// Build validates and derives a snapshot. Products keep their input order,
// which fixes tie-breaking in the resolver. Duplicate product ids keep the
// first row.
func Build(ctx context.Context, products []RawProduct, categories []RawCategory, now time.Time) (*Result, error) {
	prods, rejections, err := processProductsParallel(ctx, products, now)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(prods))
	kept := prods[:0]
	for _, p := range prods {
		if _, dup := seen[p.ID]; dup {
			rejections = append(rejections, Rejection{Scope: productScope(p.ID), Reason: "duplicate id"})
			continue
		}
		seen[p.ID] = struct{}{}
		kept = append(kept, p)
	}

	cats, catRejections := buildCategories(categories, kept)
	rejections = append(rejections, catRejections...)

	return &Result{
		Snapshot: &model.Snapshot{
			Products:   kept,
			Categories: cats,
			Offers:     buildOffers(kept),
		},
		Rejections: rejections,
	}, nil
}

// Derive fills the derived fields of a valid row.
func Derive(p RawProduct, now time.Time) model.Product {
	title := textnorm.Normalize(p.Title)
	out := model.Product{
		ID:              p.ID,
		Title:           strings.TrimSpace(p.Title),
		NormalizedTitle: title,
		Category:        strings.TrimSpace(p.Category),
		BasePrice:       p.BasePrice,
		OfferPrice:      p.BasePrice,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Rating:          p.Rating,
		URL:             p.URL,
		ImageURL:        p.Image,
	}
	if offerActive(p, now) {
		out.OfferActive = true
		out.OfferPrice = math.Round(p.BasePrice*float64(100-p.DiscountPercent)) / 100
	} else {
		out.DiscountPercent = 0
	}

	seen := map[string]struct{}{title: {}, strings.ReplaceAll(title, " ", ""): {}}
	for _, t := range p.SearchTerms {
		n := textnorm.Normalize(t)
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		out.Aliases = append(out.Aliases, n)
	}
	return out
}

// offerActive requires the offer flag, a discount and, when set, a window
// containing now.
func offerActive(p RawProduct, now time.Time) bool {
	if !p.IsOffer || p.DiscountPercent <= 0 {
		return false
	}
	if p.OfferStart != nil && now.Before(*p.OfferStart) {
		return false
	}
	if p.OfferEnd != nil && now.After(*p.OfferEnd) {
		return false
	}
	return true
}

type batchResult struct {
	index      int
	products   []model.Product
	rejections []Rejection
}

// processProductsParallel validates products in parallel batches and
// reassembles them in input order.
func processProductsParallel(ctx context.Context, rows []RawProduct, now time.Time) ([]model.Product, []Rejection, error) {
	if len(rows) == 0 {
		return []model.Product{}, nil, nil
	}

	batchSize := 100
	batches := (len(rows) + batchSize - 1) / batchSize
	maxWorkers := 16
	if batches < maxWorkers {
		maxWorkers = batches
	}

	jobs := make(chan int, batches)
	results := make(chan batchResult, batches)

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				start := b * batchSize
				end := start + batchSize
				if end > len(rows) {
					end = len(rows)
				}
				results <- processBatch(b, rows[start:end], now)
			}
		}()
	}

	for b := 0; b < batches; b++ {
		jobs <- b
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]batchResult, batches)
	for r := range results {
		ordered[r.index] = r
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	products := make([]model.Product, 0, len(rows))
	var rejections []Rejection
	for _, r := range ordered {
		products = append(products, r.products...)
		rejections = append(rejections, r.rejections...)
	}
	return products, rejections, nil
}

func processBatch(index int, rows []RawProduct, now time.Time) batchResult {
	res := batchResult{index: index}
	for _, row := range rows {
		if ok, reason := ValidateProduct(row); !ok {
			res.rejections = append(res.rejections, Rejection{Scope: productScope(row.ID), Reason: reason})
			continue
		}
		res.products = append(res.products, Derive(row, now))
	}
	return res
}

// buildCategories keeps category rows in order, adds categories that only
// appear on products and counts products per category.
func buildCategories(rows []RawCategory, products []model.Product) ([]model.Category, []Rejection) {
	counts := map[string]int{}
	for _, p := range products {
		counts[textnorm.Normalize(p.Category)]++
	}

	var (
		out        []model.Category
		rejections []Rejection
	)
	index := map[string]int{}
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		key := textnorm.Normalize(name)
		if key == "" {
			rejections = append(rejections, Rejection{Scope: "category:" + strconv.Itoa(i), Reason: "name missing"})
			continue
		}
		if _, dup := index[key]; dup {
			rejections = append(rejections, Rejection{Scope: "category:" + key, Reason: "duplicate name"})
			continue
		}
		index[key] = len(out)
		out = append(out, model.Category{Name: name, NormalizedName: key, ProductCount: counts[key], URL: row.URL})
	}
	for _, p := range products {
		key := textnorm.Normalize(p.Category)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(out)
		out = append(out, model.Category{Name: p.Category, NormalizedName: key, ProductCount: counts[key]})
	}
	return out, rejections
}

func buildOffers(products []model.Product) []model.Offer {
	var out []model.Offer
	for _, p := range products {
		if !p.OfferActive {
			continue
		}
		out = append(out, model.Offer{
			ProductID:       p.ID,
			Title:           p.Title,
			NormalizedTitle: p.NormalizedTitle,
			DiscountPercent: p.DiscountPercent,
			Price:           p.OfferPrice,
			URL:             p.URL,
		})
	}
	return out
}

func productScope(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
