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

func TestAddToCart_WaitsForEnablement(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, _ := productPage()
	button.DisabledFor(5)
	page.Respond(openDrawerOn(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")), page))

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.False(t, button.ClickedWhileDisabled())
	assert.Len(t, button.Clicks(), 1)
	assert.Equal(t, entities.OutcomeNetworkConfirmed, outcome.Kind)
	assert.Equal(t, 1, outcome.Attempt)
}

func TestAddToCart_RetriesUntilConfirmed(t *testing.T) {
	h, hook := newTestHelpers(t)
	page, button, _ := productPage()
	page.Respond(openDrawerOn(storefronttest.RespondAfter(2, storefronttest.OK(testBaseURL+"/cart/add.js")), page))

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, []entities.ClickMode{entities.ClickNormal, entities.ClickForced, entities.ClickForced}, button.Clicks())
	assert.Equal(t, entities.OutcomeNetworkConfirmed, outcome.Kind)
	assert.Equal(t, 3, outcome.Attempt)
	require.NotNil(t, outcome.Response)
	assert.Equal(t, 200, outcome.Response.Status)
	assert.Equal(t, 2, warnings(hook))
	assert.Len(t, page.Matched(), 1)
}

func TestAddToCart_FailsAfterBoundedAttempts(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, _ := productPage()

	_, err := h.AddToCart(context.Background(), page)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrNotConfirmed))
	var cerr *ConfirmationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 3, cerr.Attempts)
	assert.Len(t, cerr.Outcomes, 3)
	for _, o := range cerr.Outcomes {
		assert.False(t, o.Confirmed())
		assert.Contains(t, o.Cause, "no cart mutation response")
	}
	assert.Len(t, button.Clicks(), 3)
	assert.Equal(t, 3, page.ExpectCalls())
	assert.Contains(t, err.Error(), "add to cart: not confirmed after 3 attempts")
}

func TestAddToCart_ConfirmsByDrawerState(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, drawer := productPage()
	button.OnClick(func(entities.ClickMode) error {
		drawer.SetClasses("animate active")
		return nil
	})

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeDOMConfirmed, outcome.Kind)
	assert.Nil(t, outcome.Response)
	assert.Len(t, button.Clicks(), 1)
}

func TestAddToCart_RetriesWhenDrawerStaysClosedAfterResponse(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, drawer := productPage()
	page.Respond(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")))
	clicks := 0
	button.OnClick(func(entities.ClickMode) error {
		clicks++
		if clicks == 2 {
			drawer.SetClasses("opening animate active", "active")
		}
		return nil
	})

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, []entities.ClickMode{entities.ClickNormal, entities.ClickForced}, button.Clicks())
	assert.Equal(t, entities.OutcomeNetworkConfirmed, outcome.Kind)
	assert.Equal(t, 2, outcome.Attempt)
	assert.Len(t, page.Matched(), 2)
}

func TestAddToCart_ResponseWithoutDrawerIsNotConfirmed(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, _ := productPage()
	page.Respond(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")))

	_, err := h.AddToCart(context.Background(), page)
	require.Error(t, err)

	var cerr *ConfirmationError
	require.True(t, errors.As(err, &cerr))
	require.Len(t, cerr.Outcomes, 3)
	for _, o := range cerr.Outcomes {
		assert.False(t, o.Confirmed())
		require.NotNil(t, o.Response)
		assert.Contains(t, o.Cause, "drawer did not open")
	}
	assert.Len(t, button.Clicks(), 3)
	assert.False(t, errors.Is(err, ErrDrawerTimeout))
}

func TestAddToCart_AlreadyOpenDrawerDoesNotConfirm(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, drawer := productPage()
	drawer.SetClasses("drawer animate active")

	_, err := h.AddToCart(context.Background(), page)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrNotConfirmed))
	var cerr *ConfirmationError
	require.True(t, errors.As(err, &cerr))
	for _, o := range cerr.Outcomes {
		assert.Equal(t, entities.OutcomeUnconfirmed, o.Kind)
		assert.Contains(t, o.Cause, "drawer was already open")
	}
	assert.Len(t, button.Clicks(), 3)
}

func TestAddToCart_OpenDrawerStillConfirmsByResponse(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, drawer := productPage()
	drawer.SetClasses("drawer animate active")
	page.Respond(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")))

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeNetworkConfirmed, outcome.Kind)
	assert.Len(t, button.Clicks(), 1)
}

func TestAddToCart_ClickFailureIsRetried(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, button, _ := productPage()
	clicks := 0
	button.OnClick(func(entities.ClickMode) error {
		clicks++
		if clicks == 1 {
			return errors.New("element is covered by another element")
		}
		return nil
	})
	page.Respond(openDrawerOn(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")), page))

	outcome, err := h.AddToCart(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Attempt)
	assert.Equal(t, entities.ClickForced, outcome.ClickMode)
	// the failed click never reached the responder
	assert.Equal(t, 1, page.ExpectCalls())
}

func TestAddToCart_MissingButton(t *testing.T) {
	h, _ := newTestHelpers(t)
	page := storefronttest.NewPage()

	_, err := h.AddToCart(context.Background(), page)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.False(t, errors.Is(err, ErrNotConfirmed))
}

func TestAddToCart_ProductEssentialsOpensDrawer(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, _, _ := productPage()
	page.Respond(openDrawerOn(storefronttest.RespondAfter(0, storefronttest.OK(testBaseURL+"/cart/add.js")), page))
	ctx := context.Background()

	require.NoError(t, h.FastVisit(ctx, page, "/products/essentials"))
	_, err := h.AddToCart(ctx, page)
	require.NoError(t, err)

	open, err := h.DrawerOpen(ctx, page)
	require.NoError(t, err)
	assert.True(t, open)
	assert.Len(t, page.Matched(), 1)
}

// openDrawerOn wraps r so a delivered response slides the cart panel open
func openDrawerOn(r storefronttest.Responder, page *storefronttest.Page) storefronttest.Responder {
	return func(call int) (*entities.NetworkResponse, error) {
		resp, err := r(call)
		if err == nil && resp != nil {
			els, _ := page.Query(context.Background(), "cart-drawer")
			for _, el := range els {
				el.(*storefronttest.Element).SetClasses("opening animate active", "active")
			}
		}
		return resp, err
	}
}
