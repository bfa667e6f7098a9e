package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// maxCartClears bounds ClearCart when remove controls stop working
const maxCartClears = 20

// OpenCartDrawer opens the cart panel from the header cart icon
func (h *Helpers) OpenCartDrawer(ctx context.Context, page interfaces.Page) error {
	h.Suppress(ctx, page)
	icon, err := h.WaitVisible(ctx, page, h.opts.Selectors.CartIcon, h.opts.Timeouts.Visible)
	if err != nil {
		return fmt.Errorf("open cart drawer: %w", err)
	}
	if err := icon.Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("open cart drawer: click: %w", err)
	}
	if err := h.WaitDrawerOpen(ctx, page); err != nil {
		return fmt.Errorf("open cart drawer: %w", err)
	}
	return h.WaitDrawerReady(ctx, page)
}

// CloseCartDrawer closes the cart panel and waits until no open marker remains
func (h *Helpers) CloseCartDrawer(ctx context.Context, page interfaces.Page) error {
	btn, err := h.WaitVisible(ctx, page, h.opts.Selectors.CartDrawerClose, h.opts.Timeouts.Visible)
	if err != nil {
		return fmt.Errorf("close cart drawer: %w", err)
	}
	if err := btn.Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("close cart drawer: click: %w", err)
	}
	err = h.poll(ctx, h.opts.Timeouts.Drawer, func(ctx context.Context) (bool, error) {
		open, err := h.DrawerOpen(ctx, page)
		return !open, err
	})
	if err != nil {
		return fmt.Errorf("close cart drawer: %w: %w", ErrDrawerTimeout, err)
	}
	return nil
}

// CartCount returns the item count shown on the cart icon bubble, zero when no bubble is rendered
func (h *Helpers) CartCount(ctx context.Context, doc interfaces.Document) (int, error) {
	el, _, err := h.First(ctx, doc, h.opts.Selectors.CartCount)
	if errors.Is(err, ErrElementNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return 0, fmt.Errorf("cart count: %w", err)
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("cart count %q: %w", text, err)
	}
	return n, nil
}

// ClearCart empties the remote cart session through the cart page
func (h *Helpers) ClearCart(ctx context.Context, page interfaces.Page) error {
	if err := h.FastVisit(ctx, page, "/cart"); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	sel := h.opts.Selectors
	for i := 0; i < maxCartClears; i++ {
		before := h.Count(ctx, page, sel.CartItem)
		if before == 0 {
			h.logger.Debug("cart is empty")
			return nil
		}
		remove, _, err := h.First(ctx, page, sel.CartItemRemove)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := remove.Click(ctx, entities.ClickForced); err != nil {
			return fmt.Errorf("clear cart: remove: %w", err)
		}
		err = h.poll(ctx, h.opts.Timeouts.CartUpdate, func(ctx context.Context) (bool, error) {
			return h.Count(ctx, page, sel.CartItem) < before, nil
		})
		if err != nil {
			return fmt.Errorf("clear cart: %d items remain: %w", before, err)
		}
	}
	return fmt.Errorf("clear cart: items remain after %d removals", maxCartClears)
}

// ProceedToCheckout clicks the checkout control and waits for the checkout handoff
func (h *Helpers) ProceedToCheckout(ctx context.Context, page interfaces.Page) (string, error) {
	btn, err := h.WaitVisible(ctx, page, h.opts.Selectors.Checkout, h.opts.Timeouts.Visible)
	if err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	if err := btn.Click(ctx, entities.ClickForced); err != nil {
		return "", fmt.Errorf("checkout: click: %w", err)
	}
	return h.WaitURL(ctx, page, h.opts.Timeouts.Navigation, func(u string) bool {
		return strings.Contains(u, "checkout") || strings.Contains(u, "/cart")
	})
}
