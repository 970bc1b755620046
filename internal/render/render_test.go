package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duisenbekovayan/devstore/internal/cart"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	model "github.com/duisenbekovayan/devstore/internal/models"
)

var cat = catalog.Default()

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "0", FormatINR(0))
	assert.Equal(t, "799", FormatINR(799))
	assert.Equal(t, "2,197", FormatINR(2197))
}

func TestCartView(t *testing.T) {
	c := cart.New()
	c.Add("bk-java")
	c.Add("bk-java")
	c.Add("dev-py")

	v, err := Cart(cat, c)
	require.NoError(t, err)
	assert.False(t, v.Empty)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, int64(2197), v.Total)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "bk-java", v.Items[0].Product.ID)
	assert.Equal(t, int64(1598), v.Items[0].LineTotal)
	assert.Equal(t, "dev-py", v.Items[1].Product.ID)
	assert.Equal(t, int64(599), v.Items[1].LineTotal)
}

func TestCartViewEmpty(t *testing.T) {
	v, err := Cart(cat, cart.New())
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Zero(t, v.Total)

	var buf bytes.Buffer
	require.NoError(t, Must().Cart(&buf, v))
	assert.Contains(t, buf.String(), EmptyCart)
	assert.NotContains(t, buf.String(), "Total")
}

func TestCartViewUnknownProductFails(t *testing.T) {
	c := cart.FromMap(map[string]int{"bk-java": 1, "ghost": 2})
	_, err := Cart(cat, c)
	assert.ErrorIs(t, err, cart.ErrUnknownProduct)
}

func TestProductsFragment(t *testing.T) {
	r := Must()

	var buf bytes.Buffer
	require.NoError(t, r.Products(&buf, Products(cat.Search(model.CategoryMerch, ""))))
	out := buf.String()
	assert.Contains(t, out, `data-id="merch-tee"`)
	assert.Contains(t, out, `data-id="merch-sticker"`)
	assert.NotContains(t, out, `data-id="bk-java"`)
	assert.Contains(t, out, "MERCH")
	assert.Contains(t, out, "₹899")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("merch-tee")), bytes.Index(buf.Bytes(), []byte("merch-sticker")))

	buf.Reset()
	require.NoError(t, r.Products(&buf, Products(nil)))
	assert.Contains(t, buf.String(), NoProducts)
	assert.NotContains(t, buf.String(), "<article")
}

func TestProductsFragmentEscapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Must().Products(&buf, Products(cat.Search(model.CategoryBooks, "c++"))))
	assert.Contains(t, buf.String(), "Data Structures &amp; Algorithms in C&#43;&#43;")
}

func TestCartFragmentBindsActions(t *testing.T) {
	c := cart.New()
	c.Add("dev-py")
	v, err := Cart(cat, c)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Must().Cart(&buf, v))
	out := buf.String()
	for _, action := range []string{"inc", "dec", "rm"} {
		assert.Contains(t, out, `data-action="`+action+`" data-id="dev-py"`)
	}
	assert.Contains(t, out, "₹599 × 1 = ₹599")
	assert.Contains(t, out, `data-count="1"`)
}

func TestPageAndToast(t *testing.T) {
	r := Must()
	v, err := Cart(cat, cart.New())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, Page{
		Categories: model.Categories,
		Category:   model.CategoryDev,
		Products:   Products(cat.Search(model.CategoryDev, "")),
		Cart:       v,
		Toast:      &Toast{Text: "Cart cleared", TTL: 1600 * time.Millisecond},
		ResumeURL:  "/assets/resume.pdf",
		Year:       2026,
	}))
	out := buf.String()
	assert.Contains(t, out, `<option value="dev" selected>`)
	assert.Contains(t, out, "Cart cleared")
	assert.Contains(t, out, `data-ttl="1600"`)
	assert.Contains(t, out, `data-id="dev-vscode"`)
	assert.NotContains(t, out, "<dialog id=\"resume-modal\" open")

	buf.Reset()
	require.NoError(t, r.Toast(&buf, nil))
	assert.Equal(t, `<div id="toast" class="toast" role="status"></div>`, buf.String())
}
