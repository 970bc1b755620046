package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/duisenbekovayan/devstore/internal/models"
)

func ids(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 7, c.Len())

	p, ok := c.Lookup("bk-java")
	require.True(t, ok)
	assert.Equal(t, int64(799), p.Price)
	assert.Equal(t, model.CategoryBooks, p.Category)

	p, ok = c.Lookup("bk-dsa")
	require.True(t, ok)
	assert.Equal(t, "Data Structures & Algorithms in C++", p.Title)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestSearchPython(t *testing.T) {
	got := Default().Search(model.CategoryAll, "python")
	assert.Equal(t, []string{"dev-py"}, ids(got))
}

func TestSearchMerchCategory(t *testing.T) {
	got := Default().Search(model.CategoryMerch, "")
	assert.Equal(t, []string{"merch-tee", "merch-sticker"}, ids(got))
}

func TestFilter(t *testing.T) {
	all := Default().Products()

	tests := []struct {
		name     string
		category model.Category
		text     string
		want     []string
	}{
		{"everything", model.CategoryAll, "", ids(all)},
		{"blank search", model.CategoryAll, "   ", ids(all)},
		{"case folded and trimmed", model.CategoryAll, "  PYTHON ", []string{"dev-py"}},
		{"matches desc", model.CategoryAll, "vinyl", []string{"merch-sticker"}},
		{"matches tag", model.CategoryAll, "bash", []string{"dev-linux"}},
		{"category and text", model.CategoryBooks, "c++", []string{"bk-dsa"}},
		{"category excludes text match", model.CategoryMerch, "python", []string{}},
		{"books in order", model.CategoryBooks, "", []string{"bk-java", "bk-dsa"}},
		{"empty category is all", "", "java", []string{"bk-java"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(all, tt.category, tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	all := Default().Products()
	for _, c := range []model.Category{model.CategoryAll, model.CategoryDev, model.CategoryMerch} {
		for _, q := range []string{"", "s", "pack", "o"} {
			once := Filter(all, c, q)
			twice := Filter(once, c, q)
			assert.Equal(t, once, twice, "category=%s q=%q", c, q)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `
products:
  - {id: a, title: A, price: 1, category: dev}
  - {id: a, title: B, price: 2, category: dev}`,
		"negative price": `
products:
  - {id: a, title: A, price: -1, category: dev}`,
		"unknown category": `
products:
  - {id: a, title: A, price: 1, category: toys}`,
		"missing id": `
products:
  - {title: A, price: 1, category: dev}`,
		"not yaml": `products: [`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestParseStripsMarkup(t *testing.T) {
	c, err := Parse([]byte(`
products:
  - {id: x, title: "<b>Bold</b> Tee", desc: "<script>alert(1)</script>soft", price: 10, category: merch, tag: tee}`))
	require.NoError(t, err)
	p, _ := c.Lookup("x")
	assert.Equal(t, "Bold Tee", p.Title)
	assert.Equal(t, "soft", p.Desc)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - {id: only, title: Only One, price: 5, category: books, tag: one}`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	price, ok := c.Price("only")
	assert.True(t, ok)
	assert.Equal(t, int64(5), price)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Len())
}
