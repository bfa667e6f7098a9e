package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/application/storefront/storefronttest"
	"storefront_e2e/domain/entities"
)

// quickAddPage is a listing page whose quick-add trigger injects the popup on click
func quickAddPage() (*storefronttest.Page, *storefronttest.Element, *storefronttest.Element) {
	page := storefronttest.NewPage()
	drawer := storefronttest.NewElement().WithClasses("")
	submit := storefronttest.NewElement().Within("[js-hb-popup]")
	trigger := storefronttest.NewElement().OnClick(func(entities.ClickMode) error {
		page.Add("[js-hb-popup].active", storefronttest.NewElement().Within("[js-hb-popup]"))
		page.Add("#product-form-hb-popup-ajax", storefronttest.NewElement().Within("[js-hb-popup]"))
		page.Add("#ProductSubmitButton-hb-popup-ajax", submit)
		return nil
	})
	page.Add("[quick-add__submit]", trigger).Add("cart-drawer", drawer)
	return page, submit, drawer
}

func TestOpenQuickAdd(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, _, _ := quickAddPage()

	require.NoError(t, h.OpenQuickAdd(context.Background(), page))
}

func TestOpenQuickAdd_NoTrigger(t *testing.T) {
	h, _ := newTestHelpers(t)

	err := h.OpenQuickAdd(context.Background(), storefronttest.NewPage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrElementNotFound))
}

func TestAddToCartFromQuickAdd_DeferredDrawer(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, submit, drawer := quickAddPage()
	base := storefronttest.RespondAfter(1, storefronttest.OK(testBaseURL+"/cart/add.js"))
	page.Respond(func(call int) (*entities.NetworkResponse, error) {
		resp, err := base(call)
		if err == nil {
			// the panel opens a few ticks after the response resolves
			drawer.SetClasses("", "", "opening", "opening animate active", "active")
		}
		return resp, err
	})
	ctx := context.Background()

	require.NoError(t, h.OpenQuickAdd(ctx, page))
	outcome, err := h.AddToCartFromQuickAdd(ctx, page)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeNetworkConfirmed, outcome.Kind)
	assert.Equal(t, 2, outcome.Attempt)
	assert.Equal(t, []entities.ClickMode{entities.ClickNormal, entities.ClickForced}, submit.Clicks())
	assert.Len(t, page.Matched(), 1)
}

func TestAddToCartFromQuickAdd_RequiresNetworkConfirmation(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, submit, drawer := quickAddPage()
	submit.OnClick(func(entities.ClickMode) error {
		drawer.SetClasses("active")
		return nil
	})
	ctx := context.Background()

	require.NoError(t, h.OpenQuickAdd(ctx, page))
	_, err := h.AddToCartFromQuickAdd(ctx, page)
	require.Error(t, err)

	var cerr *ConfirmationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "quick add to cart", cerr.Action)
	assert.Len(t, submit.Clicks(), 3)
}

func TestQuickAddControls(t *testing.T) {
	h, _ := newTestHelpers(t)
	ctx := context.Background()
	small := storefronttest.NewElement()
	large := storefronttest.NewElement()
	quantity := storefronttest.NewElement()
	closeBtn := storefronttest.NewElement()
	modal := storefronttest.NewElement()
	closeBtn.OnClick(func(entities.ClickMode) error {
		modal.Hide(true)
		return nil
	})
	page := storefronttest.NewPage().
		Add("#variant-selects-hb-popup-ajax label", small, large).
		Add("#Quantity-hb-popup-ajax", quantity).
		Add("[js-hb-close-popup]", closeBtn).
		Add("[js-hb-popup].active", modal)

	require.NoError(t, h.SelectQuickAddVariant(ctx, page, 1))
	assert.Empty(t, small.Clicks())
	assert.Len(t, large.Clicks(), 1)

	err := h.SelectQuickAddVariant(ctx, page, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	require.NoError(t, h.SetQuickAddQuantity(ctx, page, 2))
	assert.Equal(t, "2", quantity.Value())
	require.Error(t, h.SetQuickAddQuantity(ctx, page, 0))

	require.NoError(t, h.CloseQuickAdd(ctx, page))
}
