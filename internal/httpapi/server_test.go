package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duisenbekovayan/devstore/internal/app"
	"github.com/duisenbekovayan/devstore/internal/cache"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	"github.com/duisenbekovayan/devstore/internal/storage"
	"github.com/duisenbekovayan/devstore/internal/timer"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T, kv storage.KV, delay time.Duration) (*client, *cache.Store) {
	t.Helper()
	sessions := cache.New()
	srv := New(Options{
		Deps: app.Deps{
			Catalog:     catalog.Default(),
			KV:          kv,
			Clock:       timer.Real{},
			SearchDelay: delay,
		},
		Sessions: sessions,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newClient(t, ts.URL), sessions
}

func newClient(t *testing.T, base string) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: base, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, form url.Values) (int, string) {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, string(b)
}

func (c *client) cart() apiCart {
	c.t.Helper()
	code, body := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(c.t, http.StatusOK, code)
	var out apiCart
	require.NoError(c.t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestPage(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)
	code, body := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `data-id="bk-java"`)
	assert.Contains(t, body, "Your cart is empty")

	u, _ := url.Parse(c.base)
	cookies := c.http.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
}

func TestCartFlow(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)

	code, body := c.do(http.MethodPost, "/cart/add/bk-java", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Added: Java Programming")
	assert.Contains(t, body, `class="toast show" role="status" data-ttl="`)
	c.do(http.MethodPost, "/cart/add/bk-java", nil)
	c.do(http.MethodPost, "/cart/add/dev-py", nil)

	got := c.cart()
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, int64(2197), got.Total)

	_, body = c.do(http.MethodPost, "/cart/inc/dev-py", nil)
	assert.Contains(t, body, "Quantity: 2")
	c.do(http.MethodPost, "/cart/dec/dev-py", nil)
	_, body = c.do(http.MethodPost, "/cart/dec/dev-py", nil)
	assert.Contains(t, body, "Item removed")

	got = c.cart()
	require.Len(t, got.Items, 1)
	assert.Equal(t, "bk-java", got.Items[0].ID)
	assert.Equal(t, 2, got.Items[0].Qty)

	_, body = c.do(http.MethodPost, "/checkout", nil)
	assert.Contains(t, body, "Demo checkout only.")
	assert.Contains(t, body, "alert")

	_, body = c.do(http.MethodPost, "/cart/remove/bk-java", nil)
	assert.Contains(t, body, "Your cart is empty")

	_, body = c.do(http.MethodPost, "/cart/clear", nil)
	assert.Contains(t, body, "Cart already empty")

	_, body = c.do(http.MethodPost, "/checkout", nil)
	assert.Contains(t, body, "Your cart is empty.")
}

func TestUnknownProduct(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)
	code, _ := c.do(http.MethodPost, "/cart/add/ghost", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCartSurvivesSessionEviction(t *testing.T) {
	kv := storage.NewMemory()
	c, sessions := newTestServer(t, kv, 0)
	c.do(http.MethodPost, "/cart/add/merch-tee", nil)
	require.Equal(t, 1, sessions.Len())

	sessions.Sweep(time.Now().Add(time.Hour), time.Minute)
	require.Zero(t, sessions.Len())

	got := c.cart()
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, int64(899), got.Total)
}

func TestBrowsersAreIsolated(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)
	c.do(http.MethodPost, "/cart/add/merch-tee", nil)

	other := newClient(t, c.base)
	assert.Zero(t, other.cart().Count)
}

func TestCategory(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)
	code, body := c.do(http.MethodPost, "/category", url.Values{"category": {"merch"}})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "merch-tee")
	assert.Contains(t, body, "merch-sticker")
	assert.NotContains(t, body, "dev-py")

	// sticky for later renders
	_, body = c.do(http.MethodGet, "/fragments/products", nil)
	assert.NotContains(t, body, "dev-py")
}

func TestSearchDebounced(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 300*time.Millisecond)
	// both keystrokes must come from the same browser
	c.do(http.MethodGet, "/", nil)

	var (
		wg        sync.WaitGroup
		firstCode int
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstCode, _ = c.do(http.MethodPost, "/search", url.Values{"q": {"py"}})
	}()
	time.Sleep(50 * time.Millisecond)

	code, body := c.do(http.MethodPost, "/search", url.Values{"q": {"python"}})
	wg.Wait()

	assert.Equal(t, http.StatusNoContent, firstCode)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `data-id="dev-py"`)
	assert.NotContains(t, body, `data-id="bk-java"`)
}

func TestSearchNoResults(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), time.Millisecond)
	code, body := c.do(http.MethodPost, "/search", url.Values{"q": {"haskell"}})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No products found")
}

func TestAPIProducts(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)
	_, body := c.do(http.MethodGet, "/api/products?category=all&q=python", nil)
	var ps []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &ps))
	require.Len(t, ps, 1)
	assert.Equal(t, "dev-py", ps[0].ID)
}

func TestResume(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)

	_, body := c.do(http.MethodPost, "/resume/open", url.Values{"dialog": {"0"}})
	assert.JSONEq(t, `{"open":false,"url":"/assets/resume.pdf"}`, body)

	_, body = c.do(http.MethodPost, "/resume/open", url.Values{"dialog": {"1"}})
	assert.JSONEq(t, `{"open":true}`, body)

	_, body = c.do(http.MethodPost, "/resume/close", url.Values{"reason": {"escape"}})
	assert.JSONEq(t, `{"open":false}`, body)
}

func TestReloadClosesResume(t *testing.T) {
	c, _ := newTestServer(t, storage.NewMemory(), 0)

	_, body := c.do(http.MethodPost, "/resume/open", url.Values{"dialog": {"1"}})
	assert.JSONEq(t, `{"open":true}`, body)

	code, body := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<dialog id="resume-modal">`)

	_, body = c.do(http.MethodPost, "/resume/close", url.Values{"reason": {"button"}})
	assert.JSONEq(t, `{"open":false}`, body)
	_, body = c.do(http.MethodPost, "/resume/open", url.Values{"dialog": {"1"}})
	assert.JSONEq(t, `{"open":true}`, body)
}
