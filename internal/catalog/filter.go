package catalog

import (
	"strings"

	model "github.com/duisenbekovayan/devstore/internal/models"
)

// Filter keeps products matching both the category and the search text, in input order.
// Category "all" (or empty) matches everything; an empty trimmed search matches everything,
// otherwise the case-folded search must be a substring of "title desc tag".
func Filter(products []model.Product, category model.Category, text string) []model.Product {
	q := strings.ToLower(strings.TrimSpace(text))
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !matchesCategory(p, category) {
			continue
		}
		if q != "" && !strings.Contains(haystack(p), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesCategory(p model.Product, c model.Category) bool {
	return c == "" || c == model.CategoryAll || p.Category == c
}

func haystack(p model.Product) string {
	return strings.ToLower(p.Title + " " + p.Desc + " " + p.Tag)
}
