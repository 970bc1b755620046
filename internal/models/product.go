package models

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryBooks Category = "books"
	CategoryDev   Category = "dev"
	CategoryMerch Category = "merch"

	// CategoryAll is only valid as a filter, never on a product.
	CategoryAll Category = "all"
)

// Categories lists product categories in selector order.
var Categories = []Category{CategoryBooks, CategoryDev, CategoryMerch}

type Product struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Desc     string   `json:"desc" yaml:"desc"`
	Price    int64    `json:"price" yaml:"price"`
	Category Category `json:"category" yaml:"category"`
	Tag      string   `json:"tag" yaml:"tag"`
}

// ParseCategory accepts only product categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseFilter is lenient: anything that is not a product category means "all".
func ParseFilter(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		return CategoryAll
	}
	return c
}
