package model

import "time"

// Caller identifies who is asking. Account-scoped replies require
// Authenticated.
type Caller struct {
	UserID        string `json:"user_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// CartItem is one row of the caller's cart.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// WishlistItem is one product on the caller's wishlist.
type WishlistItem struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
}

// Order is the read model of a placed order.
type Order struct {
	ID               int64      `json:"id"`
	Status           string     `json:"status"`
	Amount           float64    `json:"amount"`
	PaymentID        string     `json:"payment_id,omitempty"`
	PaymentStatus    string     `json:"payment_status,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
