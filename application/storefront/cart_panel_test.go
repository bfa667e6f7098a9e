package storefront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/application/storefront/storefronttest"
	"storefront_e2e/domain/entities"
)

func TestOpenAndCloseCartDrawer(t *testing.T) {
	h, _ := newTestHelpers(t)
	ctx := context.Background()
	drawer := storefronttest.NewElement().WithClasses("drawer")
	icon := storefronttest.NewElement().OnClick(func(entities.ClickMode) error {
		drawer.SetClasses("drawer opening", "drawer opening animate active", "drawer active")
		return nil
	})
	closeBtn := storefronttest.NewElement().OnClick(func(entities.ClickMode) error {
		drawer.SetClasses("drawer")
		return nil
	})
	page := storefronttest.NewPage().
		Add("#cart-icon-bubble", icon).
		Add(".drawer__close", closeBtn).
		Add("cart-drawer", drawer)

	require.NoError(t, h.OpenCartDrawer(ctx, page))
	assert.Equal(t, []entities.ClickMode{entities.ClickForced}, icon.Clicks())

	require.NoError(t, h.CloseCartDrawer(ctx, page))
	open, err := h.DrawerOpen(ctx, page)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestCartCount(t *testing.T) {
	h, _ := newTestHelpers(t)
	ctx := context.Background()

	n, err := h.CartCount(ctx, storefronttest.NewPage())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	page := storefronttest.NewPage().Add(".cart-count-bubble span", storefronttest.NewElement().WithText(" 3 "))
	n, err = h.CartCount(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page = storefronttest.NewPage().Add(".cart-count-bubble span", storefronttest.NewElement().WithText("many"))
	_, err = h.CartCount(ctx, page)
	require.Error(t, err)
}

func TestClearCart(t *testing.T) {
	h, _ := newTestHelpers(t)
	ctx := context.Background()
	page := storefronttest.NewPage().Define("cart-drawer")
	for i := 0; i < 2; i++ {
		item := storefronttest.NewElement()
		remove := storefronttest.NewElement()
		remove.OnClick(func(entities.ClickMode) error {
			_ = item.Remove(ctx)
			return remove.Remove(ctx)
		})
		page.Add(".cart-item", item).Add(".cart-item cart-remove-button a", remove)
	}

	require.NoError(t, h.ClearCart(ctx, page))

	assert.Equal(t, []string{testBaseURL + "/cart"}, page.Visits())
	assert.Equal(t, 0, h.Count(ctx, page, h.Selectors().CartItem))
}

func TestClearCart_RemoveHasNoEffect(t *testing.T) {
	h, _ := newTestHelpers(t)
	page := storefronttest.NewPage().
		Add(".cart-item", storefronttest.NewElement()).
		Add(".cart-item cart-remove-button a", storefronttest.NewElement())

	err := h.ClearCart(context.Background(), page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 items remain")
}

func TestProceedToCheckout(t *testing.T) {
	h, _ := newTestHelpers(t)
	page := storefronttest.NewPage()
	page.SetURL(testBaseURL + "/products/essentials")
	checkout := storefronttest.NewElement().OnClick(func(entities.ClickMode) error {
		page.SetURL(testBaseURL + "/checkouts/cn/abc123")
		return nil
	})
	page.Add("#CartDrawer-Checkout", checkout)

	url, err := h.ProceedToCheckout(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/checkouts/cn/abc123", url)
}
