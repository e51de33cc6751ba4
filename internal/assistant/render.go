package assistant

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storefront-assistant/internal/model"
)

// Canned replies.
const (
	msgMeaningless    = "🙂 Please type a product or category name, for example: apple, milk, vegetables."
	msgCapabilities   = "👋 I’m your shopping assistant! Try asking: product price, today’s offers, my cart, or order status."
	msgCartLogin      = "Please log in to view your cart 😊"
	msgCartEmpty      = "Your cart is empty 🛒"
	msgWishlistLogin  = "Please log in to view wishlist 😊"
	msgWishlistEmpty  = "Your wishlist is empty ⭐"
	msgNoOffers       = "Currently there are no active offers 😔"
	msgOrderLogin     = "Please log in to view order details 🔐"
	msgNoOrders       = "You don’t have any orders yet 📦"
	msgAccountDown    = "Sorry, I couldn’t load your account details right now. Please try again in a moment."
	msgHealthTip      = "<br><small>Tip: A balanced diet with fruits and vegetables helps maintain good health.</small>"
	outOfStockSpan    = "<span style='color:red'>Out of stock ❌</span>"
	deliveryTimestamp = "02 Jan 2006, 03:04 PM"
)

var titleCaser = cases.Title(language.English)

// price renders an amount in rupees, without decimals for whole numbers.
func price(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("₹%.0f", v)
	}
	return fmt.Sprintf("₹%.2f", v)
}

// stockPrice is the base price, or the out-of-stock marker.
func stockPrice(p model.Product) string {
	if !p.InStock() {
		return outOfStockSpan
	}
	return price(p.BasePrice)
}

func link(href, text string) string {
	if href == "" {
		href = "#"
	}
	return fmt.Sprintf("<a href='%s' target='_blank'>%s</a>", html.EscapeString(href), html.EscapeString(text))
}

func bullet(p model.Product, status string) string {
	return fmt.Sprintf("• %s — %s<br>", link(p.URL, p.Title), status)
}

func categoryTitle(name string) string {
	return titleCaser.String(strings.ToLower(name))
}

// viewAll links to a category page when the catalog knows one.
func viewAll(category, href string) string {
	if href == "" || href == "#" {
		return ""
	}
	return fmt.Sprintf("<br>%s", link(href, fmt.Sprintf("View all %s items →", categoryTitle(category))))
}

func searchQuery(raw string) string {
	return url.QueryEscape(strings.TrimSpace(raw))
}

func imageLinks(raw string) string {
	q := searchQuery(raw)
	return "🖼️ " + link("https://www.google.com/search?tbm=isch&q="+q, "Google Images") + "<br>" +
		"📸 " + link("https://www.bing.com/images/search?q="+q, "Bing Images") + "<br>" +
		"🎥 " + link("https://www.youtube.com/results?search_query="+q, "YouTube Videos")
}

// exploreLinks decorates a short general answer with search links suited to
// its topic.
func exploreLinks(raw, topic string) string {
	q := searchQuery(raw)
	links := []string{
		link("https://www.google.com/search?q="+q, "Google"),
		link("https://www.google.com/search?tbm=isch&q="+q, "Images"),
		link("https://www.youtube.com/results?search_query="+q, "YouTube"),
	}
	label := "Explore"
	switch topic {
	case "movie":
		label = "More"
		links = append(links, link("https://www.imdb.com/find?q="+q, "IMDb"))
	case "travel":
		links = append(links,
			link("https://www.google.com/maps/search/"+q, "Maps"),
			link("https://www.booking.com/searchresults.html?ss="+q, "Hotels"))
	case "food":
		links = append(links, link("https://www.sanjeevkapoor.com/RecipeSearch.aspx?search="+q, "Recipe"))
	}
	return label + ": " + strings.Join(links, " | ")
}

func renderOrder(o *model.Order) string {
	var b strings.Builder
	b.WriteString("<b>📦 Order Details</b><br>")
	fmt.Fprintf(&b, "Order ID: %d<br>", o.ID)
	fmt.Fprintf(&b, "Status: %s<br>", html.EscapeString(o.Status))
	fmt.Fprintf(&b, "Amount: %s<br>", price(o.Amount))
	if o.PaymentID != "" {
		fmt.Fprintf(&b, "Payment ID: %s<br>", html.EscapeString(o.PaymentID))
	}
	if o.PaymentStatus != "" {
		fmt.Fprintf(&b, "Payment Status: %s<br>", html.EscapeString(o.PaymentStatus))
	}
	if o.ExpectedDelivery != nil {
		fmt.Fprintf(&b, "Expected Delivery: %s<br>", o.ExpectedDelivery.In(time.Local).Format(deliveryTimestamp))
	}
	return b.String()
}
