package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// OpenQuickAdd opens the quick-add popup from the first visible trigger on a listing page
func (h *Helpers) OpenQuickAdd(ctx context.Context, page interfaces.Page) error {
	t := h.opts.Timeouts
	sel := h.opts.Selectors

	h.Suppress(ctx, page)
	trigger, err := h.WaitVisible(ctx, page, sel.QuickAddTrigger, t.Visible)
	if err != nil {
		return fmt.Errorf("open quick add: %w", err)
	}
	if err := trigger.ScrollIntoView(ctx); err != nil {
		h.logger.Debugf("quick add trigger scroll failed: %v", err)
	}
	if err := trigger.Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("open quick add: click: %w", err)
	}
	// popup content is fetched after the click
	if _, err := h.WaitVisible(ctx, page, sel.QuickAddModal, t.Popup); err != nil {
		return fmt.Errorf("open quick add: %w", err)
	}
	return nil
}

// AddToCartFromQuickAdd submits the open quick-add popup.
//
// Only a cart mutation response confirms an attempt. The panel open call is
// deferred after the response, so the open and ready states are polled afterwards.
func (h *Helpers) AddToCartFromQuickAdd(ctx context.Context, page interfaces.Page) (entities.Outcome, error) {
	t := h.opts.Timeouts
	sel := h.opts.Selectors

	if _, err := h.WaitPresent(ctx, page, sel.QuickAddForm, t.Popup); err != nil {
		return entities.Outcome{}, fmt.Errorf("quick add: %w", err)
	}
	target := func(ctx context.Context) (interfaces.Element, error) {
		return h.WaitEnabled(ctx, page, sel.QuickAddSubmit, t.Enable)
	}
	if _, err := h.WaitEnabled(ctx, page, sel.QuickAddSubmit, t.Popup); err != nil {
		return entities.Outcome{}, fmt.Errorf("quick add: %w", err)
	}
	if err := sleep(ctx, t.VariantSettle); err != nil {
		return entities.Outcome{}, err
	}

	outcome, err := h.confirm(ctx, page, confirmation{
		action: "quick add to cart",
		target: target,
	})
	if err != nil {
		return outcome, err
	}
	if err := h.WaitDrawerOpen(ctx, page); err != nil {
		return outcome, fmt.Errorf("quick add: %w", err)
	}
	if err := h.WaitDrawerReady(ctx, page); err != nil {
		return outcome, fmt.Errorf("quick add: %w", err)
	}
	return outcome, nil
}

// SelectQuickAddVariant picks the variant option at index in the open popup
func (h *Helpers) SelectQuickAddVariant(ctx context.Context, page interfaces.Page, index int) error {
	options, err := h.WaitPresent(ctx, page, h.opts.Selectors.QuickAddVariant, h.opts.Timeouts.Popup)
	if err != nil {
		return fmt.Errorf("select variant: %w", err)
	}
	if index < 0 || index >= len(options) {
		return fmt.Errorf("select variant: index %d out of range (%d options)", index, len(options))
	}
	if err := options[index].Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("select variant %d: %w", index, err)
	}
	return sleep(ctx, h.opts.Timeouts.VariantSettle)
}

// SetQuickAddQuantity sets the quantity input of the open popup
func (h *Helpers) SetQuickAddQuantity(ctx context.Context, page interfaces.Page, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("set quantity: invalid quantity %d", quantity)
	}
	input, err := h.WaitVisible(ctx, page, h.opts.Selectors.QuickAddQuantity, h.opts.Timeouts.Popup)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	return input.Fill(ctx, strconv.Itoa(quantity))
}

// CloseQuickAdd closes the popup and waits until it is hidden
func (h *Helpers) CloseQuickAdd(ctx context.Context, page interfaces.Page) error {
	sel := h.opts.Selectors
	btn, err := h.WaitVisible(ctx, page, sel.QuickAddClose, h.opts.Timeouts.Visible)
	if err != nil {
		return fmt.Errorf("close quick add: %w", err)
	}
	if err := btn.Click(ctx, entities.ClickForced); err != nil {
		return fmt.Errorf("close quick add: click: %w", err)
	}
	return h.waitHidden(ctx, page, sel.QuickAddModal, h.opts.Timeouts.Popup)
}

// waitHidden waits until no element of set is visible
func (h *Helpers) waitHidden(ctx context.Context, doc interfaces.Document, set entities.SelectorSet, timeout time.Duration) error {
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		_, _, err := h.FirstVisible(ctx, doc, set)
		if errors.Is(err, ErrElementNotFound) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return fmt.Errorf("%s still visible: %w: %w", set.Name, ErrNotReady, err)
	}
	return nil
}
