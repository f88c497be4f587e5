package chat

import (
	"fmt"
	"strings"

	"github.com/shopmate-ai/shopmate/internal/database"
)

// Reply kinds. Each canned template and formatter output carries a distinct
// kind so callers and tests can discriminate outcomes without parsing text.
const (
	KindGreeting  = "greeting"
	KindProducts  = "products"
	KindNoResults = "no_results"
	KindCart      = "cart"
	KindEmptyCart = "empty_cart"
	KindHelp      = "help"
	KindError     = "error"
	KindDefault   = "default"
)

// ProductRef is the structured payload entry accompanying product replies.
type ProductRef struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// BotReply is the structured output of processing one inbound message, prior
// to transport rendering. It is never persisted as a distinct entity; only
// its text becomes a bot message.
type BotReply struct {
	Message  string       `json:"message"`
	Kind     string       `json:"type"`
	Products []ProductRef `json:"products,omitempty"`
	Total    *float64     `json:"total,omitempty"`
}

// formatProducts renders a product list: title, price to two decimals,
// rating, category, and an actionable cart-add reference keyed by product ID.
// Entries keep input order and are separated by blank lines.
func formatProducts(products []database.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "🛍️ **%s**\n", p.Title)
		fmt.Fprintf(&b, "💰 $%.2f | ⭐ %g/5\n", p.Price, p.Rating)
		fmt.Fprintf(&b, "📦 %s\n", p.Category)
		fmt.Fprintf(&b, "[Add to Cart](javascript:addToCart(%d))\n\n", p.ID)
	}
	return b.String()
}

func productRefs(products []database.Product) []ProductRef {
	refs := make([]ProductRef, 0, len(products))
	for _, p := range products {
		refs = append(refs, ProductRef{ID: p.ID, Title: p.Title, Price: p.Price})
	}
	return refs
}

func productsReply(products []database.Product, header string) BotReply {
	return BotReply{
		Message:  header + "\n\n" + formatProducts(products),
		Kind:     KindProducts,
		Products: productRefs(products),
	}
}

// formatCart renders the cart as one line per entry (title × quantity = line
// subtotal) plus a grand total to two decimals. An empty cart yields a
// distinct canned message with no total.
func formatCart(lines []database.CartLine) BotReply {
	if len(lines) == 0 {
		return BotReply{
			Message: "Your cart is empty! 🛒\n\nStart shopping by asking me to show you products:\n" +
				"• 'Show me electronics'\n• 'Find books'\n• 'Search for headphones'",
			Kind: KindEmptyCart,
		}
	}

	var total float64
	var b strings.Builder
	b.WriteString("🛒 **Your Cart:**\n\n")
	for _, line := range lines {
		subtotal := float64(line.Quantity) * line.Price
		total += subtotal
		fmt.Fprintf(&b, "• %s x%d - $%.2f\n", line.Title, line.Quantity, subtotal)
	}
	fmt.Fprintf(&b, "\n💰 **Total: $%.2f**\n\n", total)
	b.WriteString("Ready to checkout? Just let me know!")

	return BotReply{Message: b.String(), Kind: KindCart, Total: &total}
}

func greetingReply() BotReply {
	return BotReply{
		Message: "Hi there! 👋 Welcome to ShopMate! I'm here to help you find amazing products. You can try:\n\n" +
			"• 'Show me electronics'\n• 'Find books under $20'\n• 'Search for headphones'\n• 'Show my cart'\n\n" +
			"What are you looking for today?",
		Kind: KindGreeting,
	}
}

func helpReply() BotReply {
	return BotReply{
		Message: "I can help you with:\n\n" +
			"🛍️ **Product Search:**\n• 'Show me electronics'\n• 'Find books under $25'\n• 'Search for wireless headphones'\n\n" +
			"🛒 **Shopping Cart:**\n• 'Show my cart'\n• 'Add [product] to cart'\n\n" +
			"💬 **Other Commands:**\n• 'Clear chat' - Start fresh\n• 'Help' - Show this menu\n\n" +
			"Just tell me what you're looking for!",
		Kind: KindHelp,
	}
}

func addToCartHintReply() BotReply {
	return BotReply{
		Message: "I can help you add items to your cart! When I show you products, " +
			"just click the 'Add to Cart' button on any item you like.",
		Kind: KindHelp,
	}
}

func searchNoResultsReply() BotReply {
	return BotReply{
		Message: "Sorry, I couldn't find any products matching your search. Try:\n" +
			"• 'Show me electronics'\n• 'Find books'\n• 'Search for textiles'",
		Kind: KindNoResults,
	}
}

func categoryNoResultsReply(word string) BotReply {
	return BotReply{
		Message: fmt.Sprintf("Sorry, no %s available right now. Try browsing other categories!", word),
		Kind:    KindNoResults,
	}
}

func priceErrorReply() BotReply {
	return BotReply{
		Message: "I couldn't understand the price range. Try: 'Show me products under $50'",
		Kind:    KindError,
	}
}

func fallbackReply() BotReply {
	return BotReply{
		Message: "I'm not sure I understand that. Try asking me to:\n" +
			"• Show products by category\n• Search for specific items\n• Check your cart\n• Filter by price\n\n" +
			"Type 'help' for more options!",
		Kind: KindDefault,
	}
}
