// Package catalog binds free-text shopper queries to products and categories
// of a catalog snapshot.
package catalog

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"storefront-assistant/internal/fuzzy"
	"storefront-assistant/internal/lexicon"
	"storefront-assistant/internal/model"
	"storefront-assistant/internal/textnorm"
)

// CategoryGuesser names the category a word most likely belongs to. It is the
// last resort of InferCategory and usually backed by a language model.
type CategoryGuesser interface {
	GuessCategory(ctx context.Context, word string, categories []string) (string, error)
}

// MatchResult is the resolver's binding of one query.
type MatchResult struct {
	Product  *model.Product
	Category *model.Category
	Score    float64
}

// Resolver matches queries against a snapshot. It holds no per-turn state.
type Resolver struct {
	thresholds lexicon.Thresholds
	guesser    CategoryGuesser
	log        zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGuesser enables the last-resort category guess.
func WithGuesser(g CategoryGuesser) Option {
	return func(r *Resolver) { r.guesser = g }
}

// WithLogger sets the resolver logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// NewResolver builds a resolver using the given per-call-site thresholds.
func NewResolver(th lexicon.Thresholds, opts ...Option) *Resolver {
	r := &Resolver{thresholds: th, log: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve binds a cleaned query to at most one product and one category.
func (r *Resolver) Resolve(clean string, snap *model.Snapshot) MatchResult {
	var res MatchResult
	if snap == nil {
		return res
	}
	res.Product, res.Score = r.ResolveProduct(clean, snap.Products)
	res.Category = ResolveCategory(clean, snap.Categories)
	return res
}

// ResolveProduct compares clean against every product's search terms. An
// exact or substring hit wins immediately; otherwise the best product at or
// above the catalog term threshold is returned.
func (r *Resolver) ResolveProduct(clean string, products []model.Product) (*model.Product, float64) {
	if strings.TrimSpace(clean) == "" {
		return nil, 0
	}
	idx, score, ok := fuzzy.MatchBest(clean, indexes(products), func(i int) []string {
		return SearchTerms(products[i])
	}, r.thresholds.CatalogTerm)
	if !ok {
		return nil, score
	}
	return &products[idx], score
}

// ResolveTitle matches clean against product titles only, with the stricter
// title threshold.
func (r *Resolver) ResolveTitle(clean string, products []model.Product) *model.Product {
	if strings.TrimSpace(clean) == "" {
		return nil
	}
	idx, _, ok := fuzzy.MatchBest(clean, indexes(products), func(i int) []string {
		return []string{titleKey(products[i])}
	}, r.thresholds.Title)
	if !ok {
		return nil
	}
	return &products[idx]
}

// ResolveCategory tries, across all categories, an exact or singular/plural
// match first and then containment in either direction.
func ResolveCategory(clean string, categories []model.Category) *model.Category {
	q := textnorm.Normalize(clean)
	if q == "" {
		return nil
	}
	for i := range categories {
		name := categoryKey(categories[i])
		if name == "" {
			continue
		}
		if q == name || strings.TrimSuffix(q, "s") == strings.TrimSuffix(name, "s") {
			return &categories[i]
		}
	}
	for i := range categories {
		name := categoryKey(categories[i])
		if name == "" {
			continue
		}
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return &categories[i]
		}
	}
	return nil
}

// InferCategory guesses the category of a product the catalog does not carry.
// It only runs for inputs that look like a single grocery word and tries, in
// order, the category vocabulary, the similarity heuristic and the guesser.
// A guess that is not a known category is discarded. The empty string means
// no category.
func (r *Resolver) InferCategory(ctx context.Context, raw string, snap *model.Snapshot) string {
	if snap == nil || !textnorm.LooksLikeGroceryWord(raw) {
		return ""
	}
	q := textnorm.Normalize(raw)

	for _, v := range Vocabulary(snap.Products) {
		for _, term := range v.Titles {
			if strings.Contains(term, q) || strings.Contains(q, term) {
				return v.Category
			}
		}
	}

	if c := r.heuristicCategory(q, snap.Products); c != "" {
		return c
	}

	if r.guesser == nil || len(snap.Categories) == 0 {
		return ""
	}
	answer, err := r.guesser.GuessCategory(ctx, q, snap.CategoryNames())
	if err != nil {
		r.log.Warn().Err(err).Str("word", q).Msg("category guess failed")
		return ""
	}
	want := textnorm.Normalize(answer)
	for _, c := range snap.Categories {
		if categoryKey(c) == want {
			return c.Name
		}
	}
	if want != "" && want != "none" {
		r.log.Debug().Str("word", q).Str("answer", answer).Msg("category guess discarded")
	}
	return ""
}

// heuristicCategory scores every title with seq - 0.02*lev and returns the
// category of the best product when it clears the heuristic threshold.
func (r *Resolver) heuristicCategory(q string, products []model.Product) string {
	q = strings.ReplaceAll(q, " ", "")
	var (
		best      *model.Product
		bestScore float64
	)
	for i := range products {
		t := strings.ReplaceAll(titleKey(products[i]), " ", "")
		if t == "" {
			continue
		}
		score := fuzzy.SequenceRatio(q, t) - 0.02*float64(fuzzy.Levenshtein(q, t))
		if score > bestScore {
			best, bestScore = &products[i], score
		}
	}
	if best == nil || bestScore < r.thresholds.CategoryHeuristic {
		return ""
	}
	return best.Category
}

// SearchTerms lists the terms a product is matched on: its normalized title,
// the title without spaces and its aliases. The category name is not a term
// of its own, so "vegetables" binds to the category rather than to its first
// product; a row that wants category matching lists it among its aliases.
func SearchTerms(p model.Product) []string {
	t := titleKey(p)
	terms := make([]string, 0, len(p.Aliases)+2)
	if t != "" {
		terms = append(terms, t, strings.ReplaceAll(t, " ", ""))
	}
	for _, a := range p.Aliases {
		if a != "" {
			terms = append(terms, a)
		}
	}
	return terms
}

func titleKey(p model.Product) string {
	if p.NormalizedTitle != "" {
		return p.NormalizedTitle
	}
	return textnorm.Normalize(p.Title)
}

func categoryKey(c model.Category) string {
	if c.NormalizedName != "" {
		return c.NormalizedName
	}
	return textnorm.Normalize(c.Name)
}

func indexes[T any](s []T) []int {
	out := make([]int, len(s))
	for i := range s {
		out[i] = i
	}
	return out
}
