package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duisenbekovayan/devstore/internal/app"
	"github.com/duisenbekovayan/devstore/internal/cache"
	"github.com/duisenbekovayan/devstore/internal/cart"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	model "github.com/duisenbekovayan/devstore/internal/models"
	"github.com/duisenbekovayan/devstore/internal/render"
	"github.com/duisenbekovayan/devstore/internal/shop"
)

const CookieName = "devstore_sid"

type Server struct {
	srv      *http.Server
	sessions *cache.Store
	deps     app.Deps
	cat      *catalog.Catalog
	tpl      *render.Renderer
	log      *zap.Logger
}

type Options struct {
	Addr      string
	StaticDir string
	Deps      app.Deps
	Sessions  *cache.Store
	Renderer  *render.Renderer
	Logger    *zap.Logger
}

func New(o Options) *Server {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Sessions == nil {
		o.Sessions = cache.New()
	}
	if o.Renderer == nil {
		o.Renderer = render.Must()
	}
	if o.Deps.Logger == nil {
		o.Deps.Logger = o.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(o.Logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		srv:      &http.Server{Addr: o.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
		sessions: o.Sessions,
		deps:     o.Deps,
		cat:      o.Deps.Catalog,
		tpl:      o.Renderer,
		log:      o.Logger,
	}

	r.Get("/", s.page)

	r.Route("/fragments", func(r chi.Router) {
		r.Get("/products", s.productsFragment)
		r.Get("/cart", s.cartFragment)
		r.Get("/toast", s.toastFragment)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Post("/add/{id}", s.cartAction(func(id string) shop.Event { return shop.AddToCart{ID: id} }))
		r.Post("/inc/{id}", s.cartAction(func(id string) shop.Event { return shop.ChangeQty{ID: id, Delta: 1} }))
		r.Post("/dec/{id}", s.cartAction(func(id string) shop.Event { return shop.ChangeQty{ID: id, Delta: -1} }))
		r.Post("/remove/{id}", s.cartAction(func(id string) shop.Event { return shop.RemoveItem{ID: id} }))
		r.Post("/clear", s.cartAction(func(string) shop.Event { return shop.ClearCart{} }))
	})
	r.Post("/checkout", s.cartAction(func(string) shop.Event { return shop.Checkout{} }))

	r.Post("/search", s.search)
	r.Post("/category", s.category)

	r.Post("/resume/open", s.resumeOpen)
	r.Post("/resume/close", s.resumeClose)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", s.apiCart)
		r.Get("/products", s.apiProducts)
	})

	// статика: css/js и резюме
	if o.StaticDir != "" {
		fs := http.FileServer(http.Dir(o.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
		r.Handle("/assets/*", fs)
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	s.log.Info("http listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// session resolves the browser's session from its cookie, issuing one if needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	id := ""
	if c, err := r.Cookie(CookieName); err == nil {
		if u, err := uuid.Parse(c.Value); err == nil {
			id = u.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		})
	}

	sess, err := s.sessions.GetOrOpen(id, func() (*app.Session, error) {
		return app.Open(r.Context(), id, s.deps)
	})
	if err != nil {
		s.log.Error("open session", zap.String("session", id), zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return sess, true
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Dispatch(r.Context(), shop.CloseResume{Reason: shop.CloseReload}); err != nil {
		s.invariant(w, err)
		return
	}
	cv, err := sess.Cart()
	if err != nil {
		s.invariant(w, err)
		return
	}
	v := sess.Snapshot()

	var buf bytes.Buffer
	err = s.tpl.Page(&buf, render.Page{
		Categories: model.Categories,
		Category:   v.State.Query.Category,
		Search:     v.State.Query.SearchText,
		Products:   sess.Products(),
		Cart:       cv,
		Toast:      v.Toast,
		ResumeURL:  shop.ResumeURL,
		Year:       time.Now().Year(),
	})
	if err != nil {
		s.invariant(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (s *Server) productsFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeProducts(w, sess)
}

func (s *Server) cartFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeCart(w, sess)
}

func (s *Server) toastFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.tpl.Toast(&buf, sess.Snapshot().Toast); err != nil {
		s.invariant(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// cartAction dispatches a cart event and answers with the redrawn cart and toast.
func (s *Server) cartAction(build func(id string) shop.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		_, err := sess.Dispatch(r.Context(), build(chi.URLParam(r, "id")))
		switch {
		case errors.Is(err, cart.ErrUnknownProduct):
			http.Error(w, "unknown product", http.StatusNotFound)
			return
		case err != nil:
			// состояние в памяти сохранено, пользователь видит toast об ошибке
			s.log.Warn("cart action", zap.String("session", sess.ID), zap.Error(err))
		}
		s.writeCart(w, sess)
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	done, err := sess.Search(r.Context(), r.FormValue("q"))
	if err != nil {
		s.invariant(w, err)
		return
	}
	select {
	case applied := <-done:
		if !applied {
			// a newer keystroke took over; that request will answer
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeProducts(w, sess)
	case <-r.Context().Done():
	}
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ev := shop.SelectCategory{Category: model.ParseFilter(r.FormValue("category"))}
	if _, err := sess.Dispatch(r.Context(), ev); err != nil {
		s.invariant(w, err)
		return
	}
	s.writeProducts(w, sess)
}

type resumeResponse struct {
	Open bool   `json:"open"`
	URL  string `json:"url,omitempty"`
}

func (s *Server) resumeOpen(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	supported := r.FormValue("dialog") != "0"
	res, err := sess.Dispatch(r.Context(), shop.OpenResume{DialogSupported: supported})
	if err != nil {
		s.invariant(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeResponse{Open: sess.Snapshot().State.ResumeOpen, URL: res.OpenURL})
}

func (s *Server) resumeClose(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	reason := shop.CloseReason(strings.ToLower(r.FormValue("reason")))
	switch reason {
	case shop.CloseButton, shop.CloseBackdrop, shop.CloseEscape:
	default:
		reason = shop.CloseButton
	}
	if _, err := sess.Dispatch(r.Context(), shop.CloseResume{Reason: reason}); err != nil {
		s.invariant(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeResponse{Open: sess.Snapshot().State.ResumeOpen})
}

type apiLine struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Qty       int    `json:"qty"`
	LineTotal int64  `json:"line_total"`
}

type apiCart struct {
	Items []apiLine `json:"items"`
	Count int       `json:"count"`
	Total int64     `json:"total"`
}

func (s *Server) apiCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	cv, err := sess.Cart()
	if err != nil {
		s.invariant(w, err)
		return
	}
	out := apiCart{Items: make([]apiLine, 0, len(cv.Items)), Count: cv.Count, Total: cv.Total}
	for _, li := range cv.Items {
		out.Items = append(out.Items, apiLine{
			ID: li.Product.ID, Title: li.Product.Title, Price: li.Product.Price,
			Qty: li.Qty, LineTotal: li.LineTotal,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.cat.Search(model.ParseFilter(q.Get("category")), q.Get("q")))
}

func (s *Server) writeProducts(w http.ResponseWriter, sess *app.Session) {
	var buf bytes.Buffer
	if err := s.tpl.Products(&buf, sess.Products()); err != nil {
		s.invariant(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// writeCart sends the cart fragment followed by the toast fragment.
func (s *Server) writeCart(w http.ResponseWriter, sess *app.Session) {
	cv, err := sess.Cart()
	if err != nil {
		s.invariant(w, err)
		return
	}
	var buf bytes.Buffer
	if err := s.tpl.Cart(&buf, cv); err != nil {
		s.invariant(w, err)
		return
	}
	if err := s.tpl.Toast(&buf, sess.Snapshot().Toast); err != nil {
		s.invariant(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// invariant reports a state the app should never reach.
func (s *Server) invariant(w http.ResponseWriter, err error) {
	s.log.Error("render", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
