package storefront

import (
	"context"
	"fmt"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

const scrollBottomScript = `(() => { window.scrollTo(0, document.body.scrollHeight); return window.scrollY; })()`

// OpenMobileNav opens the hamburger menu drawer
func (h *Helpers) OpenMobileNav(ctx context.Context, page interfaces.Page) error {
	t := h.opts.Timeouts
	h.Suppress(ctx, page)
	btn, err := h.WaitVisible(ctx, page, h.opts.Selectors.Hamburger, t.Visible)
	if err != nil {
		return fmt.Errorf("mobile nav: %w", err)
	}
	if err := btn.Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("mobile nav: click: %w", err)
	}
	if _, err := h.WaitVisible(ctx, page, h.opts.Selectors.MobileDrawer, t.Visible); err != nil {
		return fmt.Errorf("mobile nav: %w", err)
	}
	return nil
}

// OpenMegaMenu opens the "Shop" mega menu from the header navigation
func (h *Helpers) OpenMegaMenu(ctx context.Context, page interfaces.Page) error {
	t := h.opts.Timeouts
	h.Suppress(ctx, page)
	shop, err := h.WaitVisible(ctx, page, h.opts.Selectors.ShopMenu, t.Visible)
	if err != nil {
		return fmt.Errorf("mega menu: %w", err)
	}
	if err := shop.Click(ctx, entities.ClickNormal); err != nil {
		return fmt.Errorf("mega menu: click: %w", err)
	}
	if _, err := h.WaitVisible(ctx, page, h.opts.Selectors.MegaMenu, t.Visible); err != nil {
		return fmt.Errorf("mega menu: %w", err)
	}
	return nil
}

// SetViewport resizes the page, a zero viewport keeps the driver default
func (h *Helpers) SetViewport(ctx context.Context, page interfaces.Page, viewport entities.Viewport) error {
	if viewport.IsZero() {
		return nil
	}
	if err := page.SetViewport(ctx, viewport); err != nil {
		return fmt.Errorf("viewport %s: %w", viewport, err)
	}
	return nil
}

// ScrollToBottom scrolls the window to the end of the document
func (h *Helpers) ScrollToBottom(ctx context.Context, page interfaces.Page) error {
	if _, err := page.Evaluate(ctx, scrollBottomScript); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return sleep(ctx, h.opts.Timeouts.VariantSettle)
}
