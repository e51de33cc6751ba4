// Package intent decides what a shopper is asking for from the normalized
// query and the catalog match signals.
package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"storefront-assistant/internal/lexicon"
	"storefront-assistant/internal/textnorm"
)

// Intent is the closed set of requests the assistant can answer.
type Intent int

const (
	Fallback Intent = iota
	Greeting
	MeaninglessInput
	Cart
	Wishlist
	PriceAndImage
	ImageOnly
	Offer
	ProductHealthBenefit
	ProductAvailability
	ProductGeneral
	CategoryGeneral
	DietOrNutrition
	GeneralHealth
	CategoryFallback
	OrderOrPaymentOrTracking
)

var names = map[Intent]string{
	Fallback:                 "fallback",
	Greeting:                 "greeting",
	MeaninglessInput:         "meaningless_input",
	Cart:                     "cart",
	Wishlist:                 "wishlist",
	PriceAndImage:            "price_and_image",
	ImageOnly:                "image_only",
	Offer:                    "offer",
	ProductHealthBenefit:     "product_health_benefit",
	ProductAvailability:      "product_availability",
	ProductGeneral:           "product_general",
	CategoryGeneral:          "category_general",
	DietOrNutrition:          "diet_or_nutrition",
	GeneralHealth:            "general_health",
	CategoryFallback:         "category_fallback",
	OrderOrPaymentOrTracking: "order_payment_tracking",
}

func (i Intent) String() string {
	if n, ok := names[i]; ok {
		return n
	}
	return "intent(" + strconv.Itoa(int(i)) + ")"
}

// Signals are the catalog facts the classifier needs.
type Signals struct {
	HasProduct  bool
	HasCategory bool
}

// Decision is one classified intent plus its sub-type, if any.
type Decision struct {
	Intent   Intent
	Greeting string // time-of-day bucket for Greeting
	Diet     string // diet type for DietOrNutrition
}

// Classifier tests keyword sets in a fixed precedence order.
type Classifier struct {
	lex *lexicon.Lexicon
}

// NewClassifier builds a classifier over the given lexicon.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify returns the highest-precedence intent of q.
func (c *Classifier) Classify(q textnorm.Query, sig Signals) Decision {
	return c.Candidates(q, sig)[0]
}

// Terminal reports the decisions that end classification before any catalog
// lookup: greetings and meaningless input.
func (c *Classifier) Terminal(q textnorm.Query) (Decision, bool) {
	if bucket := c.GreetingBucket(q.Raw); bucket != "" {
		return Decision{Intent: Greeting, Greeting: bucket}, true
	}
	if textnorm.IsMeaningless(q.Raw, c.lex.MeaninglessWords) {
		return Decision{Intent: MeaninglessInput}, true
	}
	return Decision{}, false
}

// Candidates lists every intent q matches, in precedence order. The list
// always ends with Fallback. Handlers that cannot answer pass the turn to the
// next candidate.
func (c *Classifier) Candidates(q textnorm.Query, sig Signals) []Decision {
	if d, ok := c.Terminal(q); ok {
		return []Decision{d}
	}

	n := q.Normalized
	kw := c.lex.Keywords
	// Whole words only: "pic" must not fire on "pickle", nor "cart" on "carton".
	has := func(words []string) bool { return textnorm.ContainsAnyPhrase(n, words) }

	var out []Decision
	add := func(i Intent) { out = append(out, Decision{Intent: i}) }

	if has(kw.Cart) {
		add(Cart)
	}
	if has(kw.Wishlist) {
		add(Wishlist)
	}
	if has(kw.Image) {
		if has(kw.Price) {
			add(PriceAndImage)
		}
		add(ImageOnly)
	}
	if has(kw.Offer) {
		add(Offer)
	}
	if sig.HasProduct && has(kw.HealthBenefit) {
		add(ProductHealthBenefit)
	}
	if sig.HasProduct && has(kw.Availability) {
		add(ProductAvailability)
	}
	if sig.HasProduct {
		add(ProductGeneral)
	}
	if sig.HasCategory {
		add(CategoryGeneral)
	}
	if !sig.HasProduct {
		if diet := c.DietType(n); diet != "" {
			out = append(out, Decision{Intent: DietOrNutrition, Diet: diet})
		}
		if has(kw.GeneralHealth) {
			add(GeneralHealth)
		}
		if !sig.HasCategory && textnorm.LooksLikeGroceryWord(q.Raw) {
			add(CategoryFallback)
		}
	}
	if has(kw.Tracking) || has(kw.Payment) || has(kw.Order) {
		add(OrderOrPaymentOrTracking)
	}
	add(Fallback)
	return out
}

// GreetingBucket returns the time-of-day bucket of the first greeting phrase
// found in the lower-cased raw text, or "".
func (c *Classifier) GreetingBucket(raw string) string {
	text := strings.ToLower(raw)
	for _, g := range c.lex.Greetings {
		if textnorm.ContainsAnyPhrase(text, g.Phrases) {
			return g.Bucket
		}
	}
	return ""
}

// DietType resolves the diet type of a normalized query, or "". Audience and
// time-of-day combinations are checked before the single buckets.
func (c *Classifier) DietType(normalized string) string {
	d := c.lex.Diet
	has := func(words []string) bool { return textnorm.HasAnyWordPrefix(normalized, words) }

	kids, gym := has(d.Kids), has(d.Gym)
	morning, noon, evening, night := has(d.Morning), has(d.Noon), has(d.Evening), has(d.Night)

	switch {
	case kids && noon:
		return "kids_noon"
	case kids && night:
		return "kids_night"
	case gym && morning:
		return "gym_morning"
	case gym && noon:
		return "gym_noon"
	case gym && night:
		return "gym_night"
	case morning:
		return "morning"
	case noon:
		return "noon"
	case evening:
		return "evening"
	case night:
		return "night"
	case has(d.WeightLoss):
		return "weight_loss"
	case gym:
		return "gym"
	case kids:
		return "kids"
	case has(d.General):
		return "general"
	}
	return ""
}

// Topic is the subject area of an out-of-catalog question. Queries with store
// keywords are "store"; otherwise the first lexicon topic (by name) with a
// matching keyword, or "general".
func (c *Classifier) Topic(normalized string) string {
	if textnorm.HasAnyWordPrefix(normalized, c.lex.Keywords.Store) {
		return "store"
	}
	topics := make([]string, 0, len(c.lex.Topics))
	for t := range c.lex.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		if textnorm.HasAnyWordPrefix(normalized, c.lex.Topics[t]) {
			return t
		}
	}
	return "general"
}

var orderID = regexp.MustCompile(`order\s*(id)?\s*[:#]?\s*(\d+)`)

// ExtractOrderID finds an explicit order number such as "order #42" or
// "order id: 42".
func ExtractOrderID(raw string) (int64, bool) {
	m := orderID.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
