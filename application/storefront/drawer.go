package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// WaitDrawerOpen waits until the cart panel carries any open marker
func (h *Helpers) WaitDrawerOpen(ctx context.Context, doc interfaces.Document) error {
	return h.waitDrawer(ctx, doc, "open", entities.IsDrawerOpen, h.opts.Timeouts.Drawer)
}

// WaitDrawerReady waits until the cart panel animation has settled
func (h *Helpers) WaitDrawerReady(ctx context.Context, doc interfaces.Document) error {
	return h.waitDrawer(ctx, doc, "ready", entities.IsDrawerReady, h.opts.Timeouts.Drawer)
}

// DrawerOpen reports the current open state without waiting
func (h *Helpers) DrawerOpen(ctx context.Context, doc interfaces.Document) (bool, error) {
	classes, err := h.drawerClasses(ctx, doc)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return false, nil
		}
		return false, err
	}
	return entities.IsDrawerOpen(classes), nil
}

func (h *Helpers) waitDrawer(ctx context.Context, doc interfaces.Document, state string, pred func(entities.ClassList) bool, timeout time.Duration) error {
	var last entities.ClassList
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		classes, err := h.drawerClasses(ctx, doc)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return false, nil
			}
			return false, err
		}
		last = classes
		return pred(classes), nil
	})
	if err != nil {
		return fmt.Errorf("drawer %s (classes %q): %w: %w", state, last.String(), ErrDrawerTimeout, err)
	}
	h.logger.WithField("classes", last.String()).Debugf("drawer %s", state)
	return nil
}

func (h *Helpers) drawerClasses(ctx context.Context, doc interfaces.Document) (entities.ClassList, error) {
	el, _, err := h.First(ctx, doc, h.opts.Selectors.CartDrawer)
	if err != nil {
		return entities.ClassList{}, err
	}
	return el.Classes(ctx)
}
