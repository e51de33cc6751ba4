// Package catalogapi exposes the catalog snapshot the assistant answers from.
package catalogapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"storefront-assistant/internal/catalog"
	"storefront-assistant/internal/model"
	"storefront-assistant/internal/textnorm"
)

// SnapshotProvider yields the current catalog.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// Service provides the catalog query API.
type Service struct {
	catalog SnapshotProvider
	log     zerolog.Logger
}

// NewService creates a catalog API over provider.
func NewService(provider SnapshotProvider, log zerolog.Logger) *Service {
	return &Service{catalog: provider, log: log.With().Str("component", "catalog-api").Logger()}
}

// RegisterRoutes registers catalog API routes.
func (s *Service) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/catalog").Subrouter()
	api.HandleFunc("/stats", s.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/products", s.GetProducts).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.GetCategories).Methods(http.MethodGet)
	api.HandleFunc("/offers", s.GetOffers).Methods(http.MethodGet)
}

// Stats summarises the snapshot.
type Stats struct {
	Products   int `json:"products"`
	InStock    int `json:"in_stock"`
	Categories int `json:"categories"`
	Offers     int `json:"offers"`
}

// GetStats handles GET /api/catalog/stats.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	st := Stats{Products: len(snap.Products), Categories: len(snap.Categories), Offers: len(snap.Offers)}
	for _, p := range snap.Products {
		if p.InStock() {
			st.InStock++
		}
	}
	writeData(w, st)
}

// GetProducts handles GET /api/catalog/products with optional category, q,
// in_stock, limit and offset filters.
func (s *Service) GetProducts(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 100, 1, 1000)
	offset := intParam(q.Get("offset"), 0, 0, 1<<30)
	category := q.Get("category")
	term := textnorm.Normalize(q.Get("q"))
	inStock := q.Get("in_stock") == "true"

	filtered := []model.Product{}
	for _, p := range snap.Products {
		if category != "" && !catalog.SameCategory(p.Category, category) {
			continue
		}
		if inStock && !p.InStock() {
			continue
		}
		if term != "" && !matchesTerm(p, term) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"total":   total,
		"data":    filtered[offset:end],
	})
}

func matchesTerm(p model.Product, term string) bool {
	for _, t := range catalog.SearchTerms(p) {
		if textnorm.HasWordPrefix(t, term) {
			return true
		}
	}
	return false
}

// GetCategories handles GET /api/catalog/categories.
func (s *Service) GetCategories(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	cats := snap.Categories
	if cats == nil {
		cats = []model.Category{}
	}
	writeData(w, cats)
}

// GetOffers handles GET /api/catalog/offers, optionally scoped by category.
func (s *Service) GetOffers(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	items := catalog.OfferProducts(snap.Products, catalog.OfferFilter{Category: r.URL.Query().Get("category")}, 0)
	if items == nil {
		items = []model.Product{}
	}
	writeData(w, items)
}

func (s *Service) snapshot(w http.ResponseWriter, r *http.Request) (*model.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("catalog snapshot failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"error":   "catalog unavailable",
		})
		return nil, false
	}
	return snap, true
}

func intParam(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
