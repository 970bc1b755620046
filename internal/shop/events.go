package shop

import (
	"time"

	"github.com/duisenbekovayan/devstore/internal/cart"
	model "github.com/duisenbekovayan/devstore/internal/models"
	"github.com/duisenbekovayan/devstore/internal/notify"
)

// Event is a user action.
type Event interface{ event() }

type AddToCart struct{ ID string }

type ChangeQty struct {
	ID    string
	Delta int
}

type RemoveItem struct{ ID string }

type ClearCart struct{}

// SearchInput is a keystroke in the search box; it is applied later via ApplySearch.
type SearchInput struct{ Text string }

type ApplySearch struct{ Text string }

type SelectCategory struct{ Category model.Category }

type Checkout struct{}

type OpenResume struct{ DialogSupported bool }

type CloseResume struct{ Reason CloseReason }

type CloseReason string

const (
	CloseButton   CloseReason = "button"
	CloseBackdrop CloseReason = "backdrop"
	CloseEscape   CloseReason = "escape"

	// CloseReload is a page load; the document never reopens on its own.
	CloseReload CloseReason = "reload"
)

func (AddToCart) event()      {}
func (ChangeQty) event()      {}
func (RemoveItem) event()     {}
func (ClearCart) event()      {}
func (SearchInput) event()    {}
func (ApplySearch) event()    {}
func (SelectCategory) event() {}
func (Checkout) event()       {}
func (OpenResume) event()     {}
func (CloseResume) event()    {}

// Effect is work Reduce asks the caller to do, in order.
type Effect interface{ effect() }

type Persist struct{ Cart cart.Cart }

type Notify struct {
	Message string
	Kind    notify.Kind
}

// Debounce schedules ApplySearch{Text} after the quiet interval.
type Debounce struct{ Text string }

type RenderProducts struct{}

type RenderCart struct{}

type OpenDocument struct{ URL string }

type Publish struct{ Event CartEvent }

func (Persist) effect()        {}
func (Notify) effect()         {}
func (Debounce) effect()       {}
func (RenderProducts) effect() {}
func (RenderCart) effect()     {}
func (OpenDocument) effect()   {}
func (Publish) effect()        {}

type CartEventType string

const (
	EventAdded      CartEventType = "added"
	EventQtyChanged CartEventType = "qty_changed"
	EventRemoved    CartEventType = "removed"
	EventCleared    CartEventType = "cleared"
	EventCheckout   CartEventType = "checkout"
)

// CartEvent is what gets published to the event stream.
type CartEvent struct {
	Type      CartEventType  `json:"type"`
	Session   string         `json:"session,omitempty"`
	ProductID string         `json:"product_id,omitempty"`
	Qty       int            `json:"qty,omitempty"`
	Total     int64          `json:"total,omitempty"`
	Items     map[string]int `json:"items,omitempty"`
	At        time.Time      `json:"at"`
}
