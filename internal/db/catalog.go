package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/schemagate"
)

// CatalogSource rebuilds the catalog snapshot from the products and
// categories tables, at most once per refresh interval.
type CatalogSource struct {
	repo    *Repository
	refresh time.Duration

	mu     sync.Mutex
	snap   *model.Snapshot
	loaded time.Time
}

// Catalog returns a CatalogProvider over the repository's catalog tables.
func (r *Repository) Catalog(refresh time.Duration) *CatalogSource {
	return &CatalogSource{repo: r, refresh: refresh}
}

// Snapshot returns the cached snapshot or reloads it when stale.
func (c *CatalogSource) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.repo.now()
	if c.snap != nil && now.Sub(c.loaded) < c.refresh {
		return c.snap, nil
	}

	products, err := c.repo.rawProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := c.repo.rawCategories(ctx)
	if err != nil {
		return nil, err
	}
	res, err := schemagate.Build(ctx, products, categories, now)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	if len(res.Rejections) > 0 {
		c.repo.log.Warn().Int("rejected", len(res.Rejections)).Msg("catalog rows rejected")
	}
	c.snap, c.loaded = res.Snapshot, now
	return c.snap, nil
}

func (r *Repository) rawProducts(ctx context.Context) ([]schemagate.RawProduct, error) {
	query := `SELECT id, title, category, base_price, stock, status, is_offer, discount_percent,
		offer_start, offer_end, rating, url, image, search_terms
		FROM products ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var out []schemagate.RawProduct
	for rows.Next() {
		var (
			p          schemagate.RawProduct
			start, end sql.NullTime
			terms      sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.BasePrice, &p.Stock, &p.Status,
			&p.IsOffer, &p.DiscountPercent, &start, &end, &p.Rating, &p.URL, &p.Image, &terms); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if start.Valid {
			p.OfferStart = &start.Time
		}
		if end.Valid {
			p.OfferEnd = &end.Time
		}
		p.SearchTerms = SplitTerms(terms.String)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) rawCategories(ctx context.Context) ([]schemagate.RawCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, url FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []schemagate.RawCategory
	for rows.Next() {
		var c schemagate.RawCategory
		if err := rows.Scan(&c.Name, &c.URL); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SplitTerms parses the comma-separated search_terms column.
func SplitTerms(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
