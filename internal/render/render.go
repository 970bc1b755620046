// Package render projects catalog and cart state into view models and HTML
// fragments. Every projection is recomputed in full from its inputs.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/duisenbekovayan/devstore/internal/cart"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	model "github.com/duisenbekovayan/devstore/internal/models"
)

const (
	NoProducts = "No products found"
	EmptyCart  = "Your cart is empty"
)

var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR formats whole rupees with Indian digit grouping, without the symbol.
func FormatINR(n int64) string { return inr.Sprintf("%d", n) }

type ProductCard struct {
	model.Product
	Badge string
}

type ProductView struct {
	Cards []ProductCard
	Empty bool
}

// Products builds the grid for an already filtered list.
func Products(ps []model.Product) ProductView {
	v := ProductView{Cards: make([]ProductCard, 0, len(ps)), Empty: len(ps) == 0}
	for _, p := range ps {
		v.Cards = append(v.Cards, ProductCard{Product: p, Badge: strings.ToUpper(string(p.Category))})
	}
	return v
}

type LineItem struct {
	Product   model.Product
	Qty       int
	LineTotal int64
}

type CartView struct {
	Items []LineItem
	Count int
	Total int64
	Empty bool
}

// Cart joins the cart against the catalog. An id with no product behind it is
// an invariant violation and returns cart.ErrUnknownProduct; no partial view is produced.
func Cart(cat *catalog.Catalog, c cart.Cart) (CartView, error) {
	v := CartView{Items: make([]LineItem, 0, c.Len())}
	for _, id := range c.IDs() {
		p, ok := cat.Lookup(id)
		if !ok {
			return CartView{}, fmt.Errorf("render cart: %w: %s", cart.ErrUnknownProduct, id)
		}
		qty := c.Qty(id)
		li := LineItem{Product: p, Qty: qty, LineTotal: p.Price * int64(qty)}
		v.Items = append(v.Items, li)
		v.Count += qty
		v.Total += li.LineTotal
	}
	v.Empty = len(v.Items) == 0
	return v, nil
}

//go:embed templates/*.html
var files embed.FS

type Renderer struct {
	t *template.Template
}

func New() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"inr": FormatINR,
	}).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Must is New for package init and tests.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

type Toast struct {
	Text  string
	Alert bool
	// TTL is how much longer the message stays up; the client hides it then.
	TTL time.Duration
}

type Page struct {
	Categories []model.Category
	Category   model.Category
	Search     string
	Products   ProductView
	Cart       CartView
	Toast      *Toast
	ResumeURL  string
	Year       int
}

func (r *Renderer) Page(w io.Writer, p Page) error { return r.t.ExecuteTemplate(w, "page", p) }

func (r *Renderer) Products(w io.Writer, v ProductView) error {
	return r.t.ExecuteTemplate(w, "products", v)
}

func (r *Renderer) Cart(w io.Writer, v CartView) error { return r.t.ExecuteTemplate(w, "cart", v) }

func (r *Renderer) Toast(w io.Writer, t *Toast) error { return r.t.ExecuteTemplate(w, "toast", t) }
