// Package catalog holds the fixed product list and the search/category filter.
//
// The catalog is loaded once (embedded YAML or an override file) and is
// read-only afterwards, so a *Catalog can be shared between sessions.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	model "github.com/duisenbekovayan/devstore/internal/models"
)

var ErrInvalidCatalog = errors.New("catalog: invalid")

//go:embed catalog.yaml
var builtin []byte

type file struct {
	Products []model.Product `yaml:"products"`
}

type Catalog struct {
	products []model.Product
	byID     map[string]int
}

// Default returns the built-in demo catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// Load reads a YAML catalog from path; an empty path means the built-in one.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Markup in text fields is stripped.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(f.Products)
}

// New validates products and builds a catalog preserving their order.
func New(products []model.Product) (*Catalog, error) {
	p := bluemonday.StrictPolicy()
	c := &Catalog{
		products: make([]model.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, pr := range products {
		pr.ID = strings.TrimSpace(pr.ID)
		if pr.ID == "" {
			return nil, fmt.Errorf("%w: product #%d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[pr.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, pr.ID)
		}
		if pr.Price < 0 {
			return nil, fmt.Errorf("%w: %s has negative price", ErrInvalidCatalog, pr.ID)
		}
		cat, err := model.ParseCategory(string(pr.Category))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, pr.ID, err)
		}
		pr.Category = cat
		pr.Title = plain(p, pr.Title)
		pr.Desc = plain(p, pr.Desc)
		pr.Tag = plain(p, pr.Tag)

		c.byID[pr.ID] = len(c.products)
		c.products = append(c.products, pr)
	}
	return c, nil
}

// plain drops markup but keeps entities decoded; templates escape on output.
func plain(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}

// Products returns a copy of the catalog in catalog order.
func (c *Catalog) Products() []model.Product {
	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Lookup(id string) (model.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) Len() int { return len(c.products) }

// Price implements cart.Pricer.
func (c *Catalog) Price(id string) (int64, bool) {
	p, ok := c.Lookup(id)
	return p.Price, ok
}

// Search filters the whole catalog.
func (c *Catalog) Search(category model.Category, text string) []model.Product {
	return Filter(c.products, category, text)
}
