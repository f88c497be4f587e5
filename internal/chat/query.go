package chat

import (
	"context"
	"regexp"
	"strconv"
	"unicode"

	"github.com/shopmate-ai/shopmate/internal/database"
)

// CatalogStore is the read-only product catalog collaborator. All queries
// return rows in catalog order.
type CatalogStore interface {
	ProductsByCategory(ctx context.Context, category string, limit int) ([]database.Product, error)
	ProductsByTitleKeywords(ctx context.Context, tokens []string, limit int) ([]database.Product, error)
	ProductsByMaxPrice(ctx context.Context, maxPrice float64, limit int) ([]database.Product, error)
	FirstProducts(ctx context.Context, limit int) ([]database.Product, error)
	ProductByID(ctx context.Context, id int64) (*database.Product, error)
}

// categorySynonyms maps spoken tokens to canonical catalog categories for the
// search handler. Static configuration data, built once.
var categorySynonyms = map[string]string{
	"electronics": "Electronics",
	"electronic":  "Electronics",
	"tech":        "Electronics",
	"gadget":      "Electronics",
	"gadgets":     "Electronics",
	"books":       "Books",
	"book":        "Books",
	"reading":     "Books",
	"novel":       "Books",
	"textbook":    "Books",
	"textiles":    "Textiles",
	"textile":     "Textiles",
	"clothing":    "Textiles",
	"clothes":     "Textiles",
	"shirt":       "Textiles",
	"jacket":      "Textiles",
	"scarf":       "Textiles",
}

// browseCategories maps the spoken category names the classifier recognizes
// to their canonical catalog categories.
var browseCategories = map[string]string{
	"electronics": "Electronics",
	"books":       "Books",
	"textiles":    "Textiles",
	"clothing":    "Textiles",
	"accessories": "Textiles",
}

// stopWords are dropped from keyword search because they carry no product
// signal.
var stopWords = map[string]struct{}{
	"show": {}, "me": {}, "find": {}, "search": {}, "for": {}, "the": {},
	"a": {}, "an": {}, "get": {}, "want": {}, "need": {}, "looking": {}, "some": {},
}

var (
	wordPattern  = regexp.MustCompile(`\w+`)
	pricePattern = regexp.MustCompile(`\$?(\d+)`)
)

// buildSearch turns a normalized search message into a capped product list.
// A category synonym anywhere in the text filters by that category
// exclusively; otherwise the remaining non-stop-word tokens are matched
// against titles with OR semantics. With no usable tokens at all, the first
// entries of the catalog are returned in catalog order.
func buildSearch(ctx context.Context, catalog CatalogStore, normalized string, limit int) ([]database.Product, error) {
	tokens := wordPattern.FindAllString(normalized, -1)

	// First matching token wins; stop scanning once a category is found.
	for _, token := range tokens {
		if category, ok := categorySynonyms[token]; ok {
			return catalog.ProductsByCategory(ctx, category, limit)
		}
	}

	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, skip := stopWords[token]; !skip {
			keywords = append(keywords, token)
		}
	}

	if len(keywords) == 0 {
		return catalog.FirstProducts(ctx, limit)
	}
	return catalog.ProductsByTitleKeywords(ctx, keywords, limit)
}

// buildCategoryBrowse maps a spoken category word to its canonical catalog
// category and returns up to 'limit' matching products. Unknown words pass
// through title-cased as a best effort.
func buildCategoryBrowse(ctx context.Context, catalog CatalogStore, word string, limit int) ([]database.Product, error) {
	category, ok := browseCategories[word]
	if !ok {
		category = titleCase(word)
	}
	return catalog.ProductsByCategory(ctx, category, limit)
}

// buildPriceFilter extracts the first run of digits (optionally preceded by
// a dollar sign) from the text and filters the catalog to prices at or below
// it. Returns ErrUnparsablePrice when no digits are found.
func buildPriceFilter(ctx context.Context, catalog CatalogStore, normalized string, limit int) ([]database.Product, float64, error) {
	m := pricePattern.FindStringSubmatch(normalized)
	if m == nil {
		return nil, 0, ErrUnparsablePrice
	}

	maxPrice, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, 0, ErrUnparsablePrice
	}

	products, err := catalog.ProductsByMaxPrice(ctx, maxPrice, limit)
	if err != nil {
		return nil, 0, err
	}
	return products, maxPrice, nil
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
