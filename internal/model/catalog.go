package model

// Product is one sellable catalog entry as seen by the assistant.
// NormalizedTitle and Aliases are lower-case and whitespace-insensitive.
type Product struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title" validate:"required"`
	NormalizedTitle string   `json:"title_lower"`
	Category        string   `json:"category"`
	BasePrice       float64  `json:"base_price" validate:"gte=0"`
	OfferPrice      float64  `json:"offer_price" validate:"gte=0"`
	DiscountPercent int      `json:"discount_percent" validate:"gte=0,lte=100"`
	Stock           int      `json:"stock"`
	Rating          float64  `json:"rating"`
	OfferActive     bool     `json:"is_offer"`
	URL             string   `json:"url,omitempty"`
	ImageURL        string   `json:"image,omitempty"`
	Aliases         []string `json:"search_terms,omitempty"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Category is a catalog category with its listing page.
type Category struct {
	Name           string `json:"name" validate:"required"`
	NormalizedName string `json:"name_lower"`
	ProductCount   int    `json:"count"`
	URL            string `json:"url,omitempty"`
}

// Offer is a denormalized view of a product currently on discount.
type Offer struct {
	ProductID       int64   `json:"product_id"`
	Title           string  `json:"title"`
	NormalizedTitle string  `json:"title_lower"`
	DiscountPercent int     `json:"discount_percent"`
	Price           float64 `json:"price"`
	URL             string  `json:"url,omitempty"`
}

// Snapshot is the read-only catalog view used for one turn.
type Snapshot struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
	Offers     []Offer    `json:"offers"`
}

// CategoryNames lists category names in snapshot order.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		names = append(names, c.Name)
	}
	return names
}
