// Package app owns the per-browser storefront state and carries out the
// effects that shop.Reduce asks for.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duisenbekovayan/devstore/internal/cart"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	"github.com/duisenbekovayan/devstore/internal/notify"
	"github.com/duisenbekovayan/devstore/internal/render"
	"github.com/duisenbekovayan/devstore/internal/shop"
	"github.com/duisenbekovayan/devstore/internal/timer"
)

const (
	DefaultSearchDelay = 180 * time.Millisecond

	MsgSaveFailed = "Cart could not be saved"
)

// Publisher receives cart events. kafka.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, ev shop.CartEvent) error
}

type Deps struct {
	Catalog     *catalog.Catalog
	KV          cart.KV
	Clock       timer.Clock
	SearchDelay time.Duration
	ToastTTL    time.Duration
	Publisher   Publisher // optional
	Logger      *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = timer.Real{}
	}
	if d.SearchDelay <= 0 {
		d.SearchDelay = DefaultSearchDelay
	}
	if d.ToastTTL <= 0 {
		d.ToastTTL = notify.DefaultTTL
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Session is one browser's storefront. All transitions run under mu, one at a time.
type Session struct {
	ID string

	cat      *catalog.Catalog
	store    *cart.Store
	clock    timer.Clock
	notifier *notify.Notifier
	toastTTL time.Duration
	search   *timer.Debouncer
	pub      Publisher
	log      *zap.Logger

	mu       sync.Mutex
	state    shop.State
	lastSeen time.Time
}

// Result tells the transport what a dispatch changed.
type Result struct {
	Products bool
	Cart     bool
	// OpenURL is set when the client should open a document itself.
	OpenURL string
	// Search receives true once the debounced search is applied, false if a
	// newer input superseded it.
	Search <-chan bool
}

// Open loads the persisted cart for id and returns a ready session.
func Open(ctx context.Context, id string, d Deps) (*Session, error) {
	d = d.withDefaults()
	s := &Session{
		ID:       id,
		cat:      d.Catalog,
		store:    cart.NewStore(d.KV, id),
		clock:    d.Clock,
		notifier: notify.New(d.Clock, d.ToastTTL),
		toastTTL: d.ToastTTL,
		search:   timer.NewDebouncer(d.Clock, d.SearchDelay),
		pub:      d.Publisher,
		log:      d.Logger.With(zap.String("session", id)),
	}
	c, dropped, err := s.store.Load(ctx, d.Catalog.Has)
	if len(dropped) > 0 {
		s.log.Info("dropped unknown products from stored cart", zap.Strings("ids", dropped))
	}
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", id, err)
	}
	s.state = shop.NewState(c)
	s.lastSeen = d.Clock.Now()
	return s, nil
}

// Dispatch runs one event to completion.
func (s *Session) Dispatch(ctx context.Context, ev shop.Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.clock.Now()
	return s.dispatchLocked(ctx, ev)
}

// Search feeds a search-box input through the debouncer.
func (s *Session) Search(ctx context.Context, text string) (<-chan bool, error) {
	res, err := s.Dispatch(ctx, shop.SearchInput{Text: text})
	if err != nil {
		return nil, err
	}
	return res.Search, nil
}

func (s *Session) dispatchLocked(ctx context.Context, ev shop.Event) (Result, error) {
	next, effects, err := shop.Reduce(s.cat, s.state, ev)
	if err != nil {
		return Result{}, err
	}
	s.state = next

	var (
		res        Result
		persistErr error
	)
	for _, eff := range effects {
		switch e := eff.(type) {
		case shop.Persist:
			if err := s.store.Save(ctx, e.Cart); err != nil {
				s.log.Error("persist cart", zap.Error(err))
				s.notifier.Show(MsgSaveFailed, notify.KindToast)
				persistErr = err
			}
		case shop.Notify:
			// keep the failure visible instead of the success message
			if persistErr == nil {
				s.notifier.Show(e.Message, e.Kind)
			}
		case shop.Debounce:
			text := e.Text
			res.Search = s.search.Trigger(func() bool {
				s.mu.Lock()
				defer s.mu.Unlock()
				applied, err := s.dispatchLocked(context.Background(), shop.ApplySearch{Text: text})
				if err != nil {
					s.log.Warn("apply search", zap.Error(err))
					return false
				}
				// a newer input may have arrived while this timer waited for mu
				return applied.Products
			})
		case shop.RenderProducts:
			res.Products = true
		case shop.RenderCart:
			res.Cart = true
		case shop.OpenDocument:
			res.OpenURL = e.URL
		case shop.Publish:
			if persistErr == nil {
				s.publish(ctx, e.Event)
			}
		}
	}
	if persistErr != nil {
		return res, fmt.Errorf("persist cart: %w", persistErr)
	}
	return res, nil
}

func (s *Session) publish(ctx context.Context, ev shop.CartEvent) {
	if s.pub == nil {
		return
	}
	ev.Session = s.ID
	ev.At = s.clock.Now().UTC()
	if err := s.pub.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish cart event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// View is a consistent copy of everything a page render needs.
type View struct {
	State shop.State
	Toast *render.Toast
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	st := s.state.Clone()
	s.mu.Unlock()

	v := View{State: st}
	if m, ok := s.notifier.Current(); ok {
		v.Toast = &render.Toast{
			Text:  m.Text,
			Alert: m.Kind == notify.KindAlert,
			TTL:   s.toastTTL - s.clock.Now().Sub(m.At),
		}
	}
	return v
}

// Products renders the grid for the current query.
func (s *Session) Products() render.ProductView {
	v := s.Snapshot()
	return render.Products(s.cat.Search(v.State.Query.Category, v.State.Query.SearchText))
}

// Cart renders the cart; an error means the cart references a product the catalog lacks.
func (s *Session) Cart() (render.CartView, error) {
	v := s.Snapshot()
	return render.Cart(s.cat, v.State.Cart)
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels pending timers.
func (s *Session) Close() {
	s.search.Stop()
	s.notifier.Stop()
}
