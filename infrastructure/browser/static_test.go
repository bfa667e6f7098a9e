package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/application/storefront"
	"storefront_e2e/domain/entities"
)

func loadFixture(t *testing.T) *StaticDocument {
	t.Helper()
	f, err := os.Open("testdata/product.html")
	require.NoError(t, err)
	defer f.Close()
	doc, err := ParseHTML(f)
	require.NoError(t, err)
	return doc
}

func TestStaticDocument_Query(t *testing.T) {
	ctx := context.Background()
	doc := loadFixture(t)

	els, err := doc.Query(ctx, `[id^="ProductSubmitButton"]`)
	require.NoError(t, err)
	require.Len(t, els, 1)

	text, err := els[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Add to cart", text)

	_, disabled, err := els[0].Attribute(ctx, "disabled")
	require.NoError(t, err)
	assert.True(t, disabled)

	_, err = doc.Query(ctx, "div[")
	assert.Error(t, err)

	assert.Equal(t, "Essentials | Test Shop", doc.Title())
}

func TestStaticDocument_Visible(t *testing.T) {
	ctx := context.Background()
	doc := loadFixture(t)

	tests := []struct {
		selector string
		visible  bool
	}{
		{".header__heading-logo", true},
		{`a[href="/products/extras"]`, false},
		{"#styled", false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			els, err := doc.Query(ctx, tt.selector)
			require.NoError(t, err)
			require.Len(t, els, 1)
			visible, err := els[0].Visible(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.visible, visible)
		})
	}
}

func TestStaticDocument_Closest(t *testing.T) {
	ctx := context.Background()
	doc := loadFixture(t)

	els, err := doc.Query(ctx, "#CartDrawer-Checkout")
	require.NoError(t, err)
	require.Len(t, els, 1)

	inside, err := els[0].Closest(ctx, "cart-drawer")
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = els[0].Closest(ctx, "[js-hb-popup]")
	require.NoError(t, err)
	assert.False(t, inside)
}

func TestStaticDocument_RemoveDetaches(t *testing.T) {
	ctx := context.Background()
	doc := loadFixture(t)

	els, err := doc.Query(ctx, ".needsclick")
	require.NoError(t, err)
	require.Len(t, els, 1)
	require.NoError(t, els[0].Remove(ctx))

	visible, err := els[0].Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)

	els, err = doc.Query(ctx, ".needsclick")
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestStaticDocument_ClickUnsupported(t *testing.T) {
	ctx := context.Background()
	doc := loadFixture(t)
	els, err := doc.Query(ctx, "#CartDrawer-Checkout")
	require.NoError(t, err)
	assert.ErrorIs(t, els[0].Click(ctx, entities.ClickNormal), ErrUnsupported)
}

func TestSuppress_StaticDocument(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	doc := loadFixture(t)

	removed := storefront.Suppress(ctx, doc, storefront.DefaultSuppressionPolicy(), logger)
	assert.Equal(t, 2, removed)

	for _, selector := range []string{".needsclick", `[data-testid="klaviyo-form-container"]`} {
		els, err := doc.Query(ctx, selector)
		require.NoError(t, err)
		assert.Empty(t, els, selector)
	}
	for _, selector := range []string{"cart-drawer", "#CartDrawer", "[js-hb-popup]", ".drawer__inner"} {
		els, err := doc.Query(ctx, selector)
		require.NoError(t, err)
		assert.Len(t, els, 1, selector)
	}

	assert.Zero(t, storefront.Suppress(ctx, doc, storefront.DefaultSuppressionPolicy(), logger))

	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.NotContains(t, rendered, "10% off")
	assert.Contains(t, rendered, "Check out")
}

func TestAudit_StaticDocument(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	h := storefront.NewHelpers(storefront.DefaultOptions("https://shop.test"), logger)
	doc := loadFixture(t)

	audit := h.Audit(ctx, doc, "https://shop.test/products/essentials", doc.Title())

	entries := map[string]entities.AuditEntry{}
	for _, e := range audit.Entries {
		entries[e.Set] = e
	}
	require.Contains(t, entries, "add_to_cart")
	require.NotNil(t, entries["add_to_cart"].Matched)
	assert.Equal(t, `[id^="ProductSubmitButton"]`, entries["add_to_cart"].Matched.Pattern)

	require.NotNil(t, entries["shop_menu"].Matched)
	assert.Equal(t, 1, entries["shop_menu"].Count)

	assert.Contains(t, audit.Missing(), "quick_add_trigger")
	assert.Contains(t, audit.Missing(), "consent_accept")
	assert.NotContains(t, audit.Missing(), "checkout")
}

func TestFetchDocument(t *testing.T) {
	fixture, err := os.ReadFile("testdata/product.html")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/essentials" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	doc, err := FetchDocument(context.Background(), srv.Client(), srv.URL+"/products/essentials")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.URL(), "/products/essentials"))
	assert.Equal(t, "Essentials | Test Shop", doc.Title())

	_, err = FetchDocument(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
}
