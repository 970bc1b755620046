// Package shop is the storefront state machine: Reduce takes the current state
// and one user event and returns the next state plus the effects the caller
// must carry out (persist, notify, schedule, render, publish). It does no I/O.
package shop

import (
	"fmt"

	"github.com/duisenbekovayan/devstore/internal/cart"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	model "github.com/duisenbekovayan/devstore/internal/models"
	"github.com/duisenbekovayan/devstore/internal/notify"
)

// ResumeURL is opened directly when the client has no dialog support.
const ResumeURL = "/assets/resume.pdf"

const (
	MsgItemRemoved   = "Item removed"
	MsgCartCleared   = "Cart cleared"
	MsgAlreadyEmpty  = "Cart already empty"
	MsgCheckoutEmpty = "Your cart is empty."
	MsgCheckoutDemo  = "Demo checkout only. Integrate a payment gateway for real orders."
)

type Query struct {
	SearchText string
	Category   model.Category
}

type State struct {
	Cart  cart.Cart
	Query Query
	// PendingSearch is the latest search input not yet applied.
	PendingSearch *string
	ResumeOpen    bool
}

// NewState starts with the given (loaded) cart and an empty query.
func NewState(c cart.Cart) State {
	return State{Cart: c, Query: Query{Category: model.CategoryAll}}
}

// Clone deep-copies the parts of State that are mutable.
func (s State) Clone() State {
	out := s
	out.Cart = s.Cart.Clone()
	if s.PendingSearch != nil {
		p := *s.PendingSearch
		out.PendingSearch = &p
	}
	return out
}

// Reduce applies ev to a copy of s. The input state is never modified.
func Reduce(cat *catalog.Catalog, s State, ev Event) (State, []Effect, error) {
	next := s.Clone()

	switch e := ev.(type) {
	case AddToCart:
		p, ok := cat.Lookup(e.ID)
		if !ok {
			return s, nil, fmt.Errorf("%w: %s", cart.ErrUnknownProduct, e.ID)
		}
		qty := next.Cart.Add(e.ID)
		return next, []Effect{
			Persist{Cart: next.Cart.Clone()},
			RenderCart{},
			Notify{Message: "Added: " + p.Title, Kind: notify.KindToast},
			Publish{Event: CartEvent{Type: EventAdded, ProductID: e.ID, Qty: qty}},
		}, nil

	case ChangeQty:
		if e.Delta == 0 {
			return s, nil, nil
		}
		if !cat.Has(e.ID) {
			return s, nil, fmt.Errorf("%w: %s", cart.ErrUnknownProduct, e.ID)
		}
		qty := next.Cart.ChangeQty(e.ID, e.Delta)
		msg := fmt.Sprintf("Quantity: %d", qty)
		typ := EventQtyChanged
		if qty == 0 {
			msg = MsgItemRemoved
			typ = EventRemoved
		}
		return next, []Effect{
			Persist{Cart: next.Cart.Clone()},
			RenderCart{},
			Notify{Message: msg, Kind: notify.KindToast},
			Publish{Event: CartEvent{Type: typ, ProductID: e.ID, Qty: qty}},
		}, nil

	case RemoveItem:
		next.Cart.Remove(e.ID)
		return next, []Effect{
			Persist{Cart: next.Cart.Clone()},
			RenderCart{},
			Notify{Message: MsgItemRemoved, Kind: notify.KindToast},
			Publish{Event: CartEvent{Type: EventRemoved, ProductID: e.ID}},
		}, nil

	case ClearCart:
		if !next.Cart.Clear() {
			return s, []Effect{Notify{Message: MsgAlreadyEmpty, Kind: notify.KindToast}}, nil
		}
		return next, []Effect{
			Persist{Cart: next.Cart.Clone()},
			RenderCart{},
			Notify{Message: MsgCartCleared, Kind: notify.KindToast},
			Publish{Event: CartEvent{Type: EventCleared}},
		}, nil

	case SearchInput:
		text := e.Text
		next.PendingSearch = &text
		return next, []Effect{Debounce{Text: text}}, nil

	case ApplySearch:
		// a stale timer for an older input is ignored
		if next.PendingSearch == nil || *next.PendingSearch != e.Text {
			return s, nil, nil
		}
		next.PendingSearch = nil
		next.Query.SearchText = e.Text
		return next, []Effect{RenderProducts{}}, nil

	case SelectCategory:
		next.Query.Category = model.ParseFilter(string(e.Category))
		return next, []Effect{RenderProducts{}}, nil

	case Checkout:
		if next.Cart.Empty() {
			return s, []Effect{Notify{Message: MsgCheckoutEmpty, Kind: notify.KindToast}}, nil
		}
		total, err := next.Cart.TotalValue(cat)
		if err != nil {
			return s, nil, err
		}
		return s, []Effect{
			Notify{Message: MsgCheckoutDemo, Kind: notify.KindAlert},
			Publish{Event: CartEvent{
				Type:  EventCheckout,
				Qty:   next.Cart.TotalCount(),
				Total: total,
				Items: next.Cart.Map(),
			}},
		}, nil

	case OpenResume:
		if !e.DialogSupported {
			return s, []Effect{OpenDocument{URL: ResumeURL}}, nil
		}
		next.ResumeOpen = true
		return next, nil, nil

	case CloseResume:
		if !next.ResumeOpen {
			return s, nil, nil
		}
		next.ResumeOpen = false
		return next, nil, nil
	}

	return s, nil, fmt.Errorf("shop: unhandled event %T", ev)
}
