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

var openingSequence = []string{"", "opening", "opening animate active", "active"}

func drawerPage(seq ...string) (*storefronttest.Page, *storefronttest.Element) {
	drawer := storefronttest.NewElement().WithClasses(seq...)
	return storefronttest.NewPage().Add("cart-drawer", drawer), drawer
}

func TestDrawerPredicates_OpeningSequence(t *testing.T) {
	firstPass := func(pred func(entities.ClassList) bool) int {
		for i, classes := range openingSequence {
			if pred(entities.ParseClassList(classes)) {
				return i + 1
			}
		}
		return -1
	}

	assert.Equal(t, 3, firstPass(entities.IsDrawerOpen))
	assert.Equal(t, 4, firstPass(entities.IsDrawerReady))
}

func TestWaitDrawerOpen(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, drawer := drawerPage(openingSequence...)

	require.NoError(t, h.WaitDrawerOpen(context.Background(), page))
	assert.Equal(t, 3, drawer.ClassReads())
}

func TestWaitDrawerReady(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, drawer := drawerPage(openingSequence...)

	require.NoError(t, h.WaitDrawerReady(context.Background(), page))
	assert.Equal(t, 4, drawer.ClassReads())
}

func TestWaitDrawerReady_StuckOpening(t *testing.T) {
	h, _ := newTestHelpers(t)
	page, _ := drawerPage("opening animate active")

	err := h.WaitDrawerReady(context.Background(), page)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDrawerTimeout))
	assert.Contains(t, err.Error(), "active animate opening")
}

func TestWaitDrawerOpen_MissingDrawer(t *testing.T) {
	h, _ := newTestHelpers(t)

	err := h.WaitDrawerOpen(context.Background(), storefronttest.NewPage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDrawerTimeout))
}

func TestDrawerOpen(t *testing.T) {
	h, _ := newTestHelpers(t)
	ctx := context.Background()

	open, err := h.DrawerOpen(ctx, storefronttest.NewPage())
	require.NoError(t, err)
	assert.False(t, open)

	page, _ := drawerPage("drawer animate")
	open, err = h.DrawerOpen(ctx, page)
	require.NoError(t, err)
	assert.True(t, open)
}
