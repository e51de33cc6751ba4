package account

import (
	"context"
	"sort"
	"sync"

	"storefront-assistant/internal/model"
)

// Static is an in-process account provider for local runs and tests.
type Static struct {
	mu        sync.RWMutex
	carts     map[string][]model.CartItem
	wishlists map[string][]model.WishlistItem
	orders    map[string][]model.Order
}

// NewStatic returns an empty provider.
func NewStatic() *Static {
	return &Static{
		carts:     map[string][]model.CartItem{},
		wishlists: map[string][]model.WishlistItem{},
		orders:    map[string][]model.Order{},
	}
}

// SetCart replaces a user's cart.
func (s *Static) SetCart(userID string, items ...model.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append([]model.CartItem(nil), items...)
}

// SetWishlist replaces a user's wishlist.
func (s *Static) SetWishlist(userID string, items ...model.WishlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wishlists[userID] = append([]model.WishlistItem(nil), items...)
}

// AddOrder records an order for a user.
func (s *Static) AddOrder(userID string, o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[userID] = append(s.orders[userID], o)
}

func (s *Static) Cart(_ context.Context, userID string) ([]model.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CartItem(nil), s.carts[userID]...), nil
}

func (s *Static) Wishlist(_ context.Context, userID string) ([]model.WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WishlistItem(nil), s.wishlists[userID]...), nil
}

func (s *Static) Order(_ context.Context, userID string, orderID int64) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders[userID] {
		if o.ID == orderID {
			cp := o
			return &cp, nil
		}
	}
	return nil, nil
}

// LatestOrder returns the order with the newest CreatedAt.
func (s *Static) LatestOrder(_ context.Context, userID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := append([]model.Order(nil), s.orders[userID]...)
	if len(orders) == 0 {
		return nil, nil
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return &orders[0], nil
}
