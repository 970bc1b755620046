// Package cart keeps the product id → quantity mapping and its persistence.
package cart

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownProduct = errors.New("cart: unknown product")

// Pricer resolves a product price by id. *catalog.Catalog implements it.
type Pricer interface {
	Price(id string) (int64, bool)
}

// Cart maps product id to quantity. A present id always has qty >= 1.
// The zero value is an empty cart ready to use.
type Cart struct {
	items map[string]int
}

func New() Cart { return Cart{items: map[string]int{}} }

// FromMap builds a cart, dropping non-positive quantities.
func FromMap(m map[string]int) Cart {
	c := New()
	for id, q := range m {
		if id != "" && q > 0 {
			c.items[id] = q
		}
	}
	return c
}

func (c *Cart) ensure() {
	if c.items == nil {
		c.items = map[string]int{}
	}
}

// Add increments the quantity for id, creating the entry at 1.
func (c *Cart) Add(id string) int {
	c.ensure()
	c.items[id]++
	return c.items[id]
}

// ChangeQty applies delta and returns the resulting quantity.
// A result <= 0 removes the entry and returns 0.
func (c *Cart) ChangeQty(id string, delta int) int {
	c.ensure()
	next := c.items[id] + delta
	if next <= 0 {
		delete(c.items, id)
		return 0
	}
	c.items[id] = next
	return next
}

func (c *Cart) Remove(id string) {
	delete(c.items, id)
}

// Clear empties the cart. It reports false and does nothing if it was already empty.
func (c *Cart) Clear() bool {
	if len(c.items) == 0 {
		return false
	}
	c.items = map[string]int{}
	return true
}

func (c Cart) Qty(id string) int { return c.items[id] }

func (c Cart) Len() int { return len(c.items) }

func (c Cart) Empty() bool { return len(c.items) == 0 }

// TotalCount is the sum of all quantities.
func (c Cart) TotalCount() int {
	n := 0
	for _, q := range c.items {
		n += q
	}
	return n
}

// TotalValue is the sum of price × qty. Ids the pricer doesn't know are an error.
func (c Cart) TotalValue(p Pricer) (int64, error) {
	var total int64
	for id, q := range c.items {
		price, ok := p.Price(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
		total += price * int64(q)
	}
	return total, nil
}

// IDs returns the cart ids sorted, so renders are stable.
func (c Cart) IDs() []string {
	out := make([]string, 0, len(c.items))
	for id := range c.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the mapping.
func (c Cart) Map() map[string]int {
	out := make(map[string]int, len(c.items))
	for id, q := range c.items {
		out[id] = q
	}
	return out
}

func (c Cart) Clone() Cart { return Cart{items: c.Map()} }

func (c Cart) Equal(o Cart) bool {
	if len(c.items) != len(o.items) {
		return false
	}
	for id, q := range c.items {
		if o.items[id] != q {
			return false
		}
	}
	return true
}

// Retain drops every id keep rejects and returns the dropped ids.
func (c *Cart) Retain(keep func(id string) bool) []string {
	var dropped []string
	for id := range c.items {
		if !keep(id) {
			dropped = append(dropped, id)
			delete(c.items, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}
