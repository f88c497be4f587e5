// Package chat implements the message-understanding pipeline: intent
// classification over raw text, catalog query building, response formatting,
// and the conversation orchestrator tying them together.
package chat

import "strings"

// Intent is the discrete category of user request inferred from text,
// driving which handler executes. Intents are transient classification
// results and are never persisted.
type Intent int

const (
	IntentGreeting Intent = iota
	IntentSearch
	IntentCartView
	IntentAddToCartHint
	IntentPriceFilter
	IntentCategoryBrowse
	IntentHelp
	IntentFallback
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentSearch:
		return "search"
	case IntentCartView:
		return "cart_view"
	case IntentAddToCartHint:
		return "add_to_cart_hint"
	case IntentPriceFilter:
		return "price_filter"
	case IntentCategoryBrowse:
		return "category_browse"
	case IntentHelp:
		return "help"
	default:
		return "fallback"
	}
}

// categoryWords are the spoken category names recognized by the classifier
// and the category-browse handler, checked in this order.
var categoryWords = []string{"electronics", "books", "textiles", "clothing", "accessories"}

// classifierRules is the ordered rule chain. Evaluation is top-to-bottom and
// the first matching rule wins; it is deliberately NOT best-match. The
// ordering is significant and overlapping on purpose: "hello, any
// electronics?" resolves as a greeting because the greeting rule runs first.
// Do not re-order.
var classifierRules = []struct {
	match  func(string) bool
	intent Intent
}{
	{containsAnyWord("hello", "hi", "hey", "start"), IntentGreeting},
	{containsAnyWord("show", "find", "search", "looking", "want"), IntentSearch},
	{containsAnyWord("cart", "basket", "added"), IntentCartView},
	{containsAnyWord("add to cart"), IntentAddToCartHint},
	{containsAnyWord("under", "below", "less than", "cheaper"), IntentPriceFilter},
	{matchesCategoryWord, IntentCategoryBrowse},
	{containsAnyWord("help", "what can you do", "commands"), IntentHelp},
}

// Normalize lowercases raw message text for classification. Lowercasing via
// strings.ToLower is Unicode-aware.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify inspects normalized message text and selects exactly one intent.
// Input must already be normalized with Normalize.
func Classify(normalized string) Intent {
	for _, rule := range classifierRules {
		if rule.match(normalized) {
			return rule.intent
		}
	}
	return IntentFallback
}

func containsAnyWord(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func matchesCategoryWord(text string) bool {
	_, ok := categoryWord(text)
	return ok
}

// categoryWord returns the first recognized category name contained in the
// normalized text.
func categoryWord(text string) (string, bool) {
	for _, c := range categoryWords {
		if strings.Contains(text, c) {
			return c, true
		}
	}
	return "", false
}
