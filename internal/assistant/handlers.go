package assistant

import (
	"context"
	"fmt"
	"html"
	"strings"

	"storefront-assistant/internal/catalog"
	"storefront-assistant/internal/intent"
	"storefront-assistant/internal/llm"
	"storefront-assistant/internal/model"
)

// A handler returns false to pass the turn to the next candidate intent.

func (d *Dispatcher) greeting(_ context.Context, t *turn) (string, bool) {
	return d.lex.GreetingReply(t.decision.Greeting), true
}

func (d *Dispatcher) meaningless(context.Context, *turn) (string, bool) {
	return msgMeaningless, true
}

func (d *Dispatcher) cart(ctx context.Context, t *turn) (string, bool) {
	if !t.req.Caller.Authenticated {
		return msgCartLogin, true
	}
	if d.accounts == nil {
		return msgAccountDown, true
	}
	items, err := d.accounts.Cart(ctx, t.req.Caller.UserID)
	if err != nil {
		d.log.Error().Err(err).Str("user", t.req.Caller.UserID).Msg("read cart failed")
		return msgAccountDown, true
	}
	if len(items) == 0 {
		return msgCartEmpty, true
	}

	var b strings.Builder
	var total float64
	b.WriteString("<b>🛒 Your cart items:</b><br>")
	for _, it := range items {
		line := it.UnitPrice * float64(it.Quantity)
		total += line
		fmt.Fprintf(&b, "• %s × %d — %s<br>", html.EscapeString(it.Title), it.Quantity, price(line))
	}
	fmt.Fprintf(&b, "<br><b>Total: %s</b>", price(total))
	return b.String(), true
}

func (d *Dispatcher) wishlist(ctx context.Context, t *turn) (string, bool) {
	if !t.req.Caller.Authenticated {
		return msgWishlistLogin, true
	}
	if d.accounts == nil {
		return msgAccountDown, true
	}
	items, err := d.accounts.Wishlist(ctx, t.req.Caller.UserID)
	if err != nil {
		d.log.Error().Err(err).Str("user", t.req.Caller.UserID).Msg("read wishlist failed")
		return msgAccountDown, true
	}
	if len(items) == 0 {
		return msgWishlistEmpty, true
	}

	var b strings.Builder
	b.WriteString("<b>⭐ Your wishlist items:</b><br>")
	for _, it := range items {
		fmt.Fprintf(&b, "• %s<br>", link(it.URL, it.Title))
	}
	return b.String(), true
}

// priceAndImage answers "price and photo of X" with the price of an exact
// title match, or with the matched category's items. Without either the
// turn falls through to the plain image reply.
func (d *Dispatcher) priceAndImage(_ context.Context, t *turn) (string, bool) {
	if p := d.resolver.ResolveTitle(t.query.Clean, t.snap.Products); p != nil {
		return fmt.Sprintf("<b>%s</b> price is %s<br><br>View images here:<br>%s",
			html.EscapeString(p.Title), stockPrice(*p), imageLinks(p.Title)), true
	}
	if t.match.Category == nil {
		return "", false
	}
	cat := t.match.Category.Name
	items := catalog.RelatedProducts(cat, t.snap.Products, d.lex.Limits.Related)
	if len(items) == 0 {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Available %s items:</b><br>", html.EscapeString(categoryTitle(cat)))
	for _, p := range items {
		b.WriteString(bullet(p, stockPrice(p)))
	}
	b.WriteString("<br>View images here:<br>")
	b.WriteString(imageLinks(t.query.Raw))
	return b.String(), true
}

func (d *Dispatcher) imageOnly(_ context.Context, t *turn) (string, bool) {
	return "I can’t generate images directly, but you can view images here 👇<br><br>" + imageLinks(t.query.Raw), true
}

func (d *Dispatcher) offers(_ context.Context, t *turn) (string, bool) {
	var f catalog.OfferFilter
	switch {
	case t.match.Product != nil:
		f.ProductTitle = t.match.Product.Title
	case t.match.Category != nil:
		f.Category = t.match.Category.Name
	}
	items := catalog.OfferProducts(t.snap.Products, f, d.lex.Limits.Offers)
	if len(items) == 0 {
		return msgNoOffers, true
	}

	var b strings.Builder
	b.WriteString("<b>🔥 Available Offers:</b><br>")
	for _, p := range items {
		status := outOfStockSpan
		if p.InStock() {
			status = fmt.Sprintf("<b>Offer: %s</b>", price(p.OfferPrice))
		}
		fmt.Fprintf(&b, "• %s<br>MRP: %s | %s (%d%% OFF)<br><br>",
			link(p.URL, p.Title), price(p.BasePrice), status, p.DiscountPercent)
	}
	return b.String(), true
}

func (d *Dispatcher) healthBenefit(ctx context.Context, t *turn) (string, bool) {
	p := t.match.Product
	return fmt.Sprintf("<b>🌿 Health benefits of %s:</b><br>%s<br><br>Price: %s",
		link(p.URL, p.Title), d.benefit(ctx, *p), stockPrice(*p)), true
}

func (d *Dispatcher) availability(_ context.Context, t *turn) (string, bool) {
	p := t.match.Product
	title := html.EscapeString(p.Title)
	if !p.InStock() {
		return fmt.Sprintf("❌ <b>%s</b> is currently out of stock.", title), true
	}
	return fmt.Sprintf("✅ <b>%s</b> is available in stock.<br>Price: %s", title, price(p.BasePrice)), true
}

// productCard renders the matched product with its benefit and in-stock
// alternatives from the same category.
func (d *Dispatcher) productCard(ctx context.Context, t *turn) (string, bool) {
	p := *t.match.Product

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b><br>", link(p.URL, p.Title))
	if p.ImageURL != "" {
		fmt.Fprintf(&b, "<img src='%s' style='width:120px;border-radius:8px;margin:6px 0;'><br>", html.EscapeString(p.ImageURL))
	}
	fmt.Fprintf(&b, "Price: %s", stockPrice(p))
	if p.InStock() && p.OfferActive && p.OfferPrice > 0 {
		fmt.Fprintf(&b, " | <b>Offer: %s</b> (%d%% OFF)", price(p.OfferPrice), p.DiscountPercent)
	}
	fmt.Fprintf(&b, "<br>🌿 %s", d.benefit(ctx, p))

	if related := catalog.Alternatives(p, t.snap.Products, d.lex.Limits.Related); len(related) > 0 {
		fmt.Fprintf(&b, "<br><br><b>More %s items:</b><br>", html.EscapeString(categoryTitle(p.Category)))
		for _, r := range related {
			b.WriteString(bullet(r, price(r.BasePrice)))
		}
	}
	return b.String(), true
}

func (d *Dispatcher) categoryListing(_ context.Context, t *turn) (string, bool) {
	cat := t.match.Category.Name
	items := catalog.RelatedProducts(cat, t.snap.Products, d.lex.Limits.Related)
	if len(items) == 0 {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s items available:</b><br>", html.EscapeString(categoryTitle(cat)))
	for _, p := range items {
		b.WriteString(bullet(p, stockPrice(p)))
	}
	b.WriteString(viewAll(cat, catalog.CategoryURL(cat, t.snap.Categories)))
	return b.String(), true
}

func (d *Dispatcher) diet(_ context.Context, t *turn) (string, bool) {
	diet := t.decision.Diet
	items := catalog.InStockIn(d.lex.Diet.Categories[diet], t.snap.Products, d.lex.Limits.Diet)
	if len(items) == 0 {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b><br><br>", d.lex.Diet.Intros[diet])
	for _, p := range items {
		b.WriteString(bullet(p, price(p.BasePrice)))
	}
	return b.String(), true
}

func (d *Dispatcher) generalHealth(_ context.Context, t *turn) (string, bool) {
	items := catalog.InStockIn(d.lex.GeneralHealthCategories, t.snap.Products, d.lex.Limits.GeneralHealth)
	if len(items) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("<b>🥗 Foods that are good for health:</b><br><br>")
	for _, p := range items {
		b.WriteString(bullet(p, price(p.BasePrice)))
	}
	b.WriteString(msgHealthTip)
	return b.String(), true
}

// categoryFallback handles a single grocery word the catalog does not carry:
// it apologises and lists what the inferred category has instead.
func (d *Dispatcher) categoryFallback(ctx context.Context, t *turn) (string, bool) {
	word := strings.TrimSpace(t.query.Raw)
	d.publishMiss(ctx, t.query.Normalized)

	cat := d.resolver.InferCategory(ctx, word, t.snap)
	if cat == "" {
		return "", false
	}
	items := catalog.RelatedProducts(cat, t.snap.Products, d.lex.Limits.Related)
	if len(items) == 0 {
		return "", false
	}
	t.inferred = cat

	var b strings.Builder
	fmt.Fprintf(&b, "Sorry, we don’t have <b>%s</b> right now ❌<br><br>", html.EscapeString(word))
	fmt.Fprintf(&b, "<b>Available %s items:</b><br>", html.EscapeString(categoryTitle(cat)))
	for _, p := range items {
		b.WriteString(bullet(p, stockPrice(p)))
	}
	b.WriteString(viewAll(cat, catalog.CategoryURL(cat, t.snap.Categories)))
	return b.String(), true
}

func (d *Dispatcher) order(ctx context.Context, t *turn) (string, bool) {
	if !t.req.Caller.Authenticated {
		return msgOrderLogin, true
	}
	if d.accounts == nil {
		return msgAccountDown, true
	}
	user := t.req.Caller.UserID

	if id, ok := intent.ExtractOrderID(t.query.Raw); ok {
		o, err := d.accounts.Order(ctx, user, id)
		if err != nil {
			d.log.Error().Err(err).Str("user", user).Int64("order", id).Msg("read order failed")
			return msgAccountDown, true
		}
		if o == nil {
			return fmt.Sprintf("No order found with ID %d ❌", id), true
		}
		return renderOrder(o), true
	}

	o, err := d.accounts.LatestOrder(ctx, user)
	if err != nil {
		d.log.Error().Err(err).Str("user", user).Msg("read latest order failed")
		return msgAccountDown, true
	}
	if o == nil {
		return msgNoOrders, true
	}
	return renderOrder(o), true
}

// fallback answers out-of-catalog questions with a short model answer and
// search links. Store questions, and any question the model cannot answer,
// get the capabilities message.
func (d *Dispatcher) fallback(ctx context.Context, t *turn) (string, bool) {
	topic := d.classifier.Topic(t.query.Normalized)
	if topic == "store" {
		return msgCapabilities, true
	}
	answer := llm.ShortAnswer(d.complete(ctx, llm.AnswerPrompt(t.query.Raw)))
	if answer == "" {
		return msgCapabilities, true
	}
	return html.EscapeString(answer) + "<br><br>" + exploreLinks(t.query.Raw, topic), true
}

// benefit prefers a model-written sentence and falls back to canned copy.
func (d *Dispatcher) benefit(ctx context.Context, p model.Product) string {
	if ai := d.complete(ctx, llm.BenefitPrompt(p.Title)); ai != "" {
		return html.EscapeString(ai)
	}
	return d.lex.Benefit(p.Title, p.Category)
}
