package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// condition is polled until it reports done. Errors are treated as "not yet"
// and the last one is attached to the timeout error.
type condition func(ctx context.Context) (bool, error)

func (h *Helpers) poll(ctx context.Context, timeout time.Duration, cond condition) error {
	var last error
	err := wait.PollUntilContextTimeout(ctx, h.opts.Timeouts.PollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			done, err := cond(ctx)
			if err != nil {
				last = err
				return false, nil
			}
			return done, nil
		})
	if err == nil {
		return nil
	}
	if last != nil {
		return fmt.Errorf("%w (last error: %v)", err, last)
	}
	return err
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitVisible waits for the first visible element of a selector set
func (h *Helpers) WaitVisible(ctx context.Context, doc interfaces.Document, set entities.SelectorSet, timeout time.Duration) (interfaces.Element, error) {
	var found interfaces.Element
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, _, err := h.FirstVisible(ctx, doc, set)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return false, nil
			}
			return false, err
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s not visible: %w: %w", set.Name, ErrElementNotFound, err)
	}
	return found, nil
}

// WaitPresent waits until a selector set matches at least one element
func (h *Helpers) WaitPresent(ctx context.Context, doc interfaces.Document, set entities.SelectorSet, timeout time.Duration) ([]interfaces.Element, error) {
	var found []interfaces.Element
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		els, _, err := h.Resolve(ctx, doc, set)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return false, nil
			}
			return false, err
		}
		found = els
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s not present: %w: %w", set.Name, ErrElementNotFound, err)
	}
	return found, nil
}

// WaitEnabled waits until the first element of set is visible and enabled.
// Enabled means no disabled attribute and aria-disabled is not "true".
func (h *Helpers) WaitEnabled(ctx context.Context, doc interfaces.Document, set entities.SelectorSet, timeout time.Duration) (interfaces.Element, error) {
	var found interfaces.Element
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, _, err := h.FirstVisible(ctx, doc, set)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return false, nil
			}
			return false, err
		}
		enabled, err := isEnabled(ctx, el)
		if err != nil || !enabled {
			return false, err
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s not enabled: %w: %w", set.Name, ErrNotReady, err)
	}
	return found, nil
}

func isEnabled(ctx context.Context, el interfaces.Element) (bool, error) {
	if _, disabled, err := el.Attribute(ctx, "disabled"); err != nil || disabled {
		return false, err
	}
	aria, ok, err := el.Attribute(ctx, "aria-disabled")
	if err != nil {
		return false, err
	}
	return !ok || aria != "true", nil
}

// WaitCustomElement waits for a custom element to be registered
func (h *Helpers) WaitCustomElement(ctx context.Context, page interfaces.Page, name string, timeout time.Duration) error {
	expr := fmt.Sprintf(`typeof customElements !== 'undefined' && customElements.get(%q) !== undefined`, name)
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		v, err := page.Evaluate(ctx, expr)
		if err != nil {
			return false, err
		}
		ok, _ := v.(bool)
		return ok, nil
	})
	if err != nil {
		return fmt.Errorf("custom element %s: %w: %w", name, ErrNotReady, err)
	}
	return nil
}

// WaitURL waits until the page URL satisfies match
func (h *Helpers) WaitURL(ctx context.Context, page interfaces.Page, timeout time.Duration, match func(string) bool) (string, error) {
	var current string
	err := h.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		u, err := page.URL(ctx)
		if err != nil {
			return false, err
		}
		current = u
		return match(u), nil
	})
	if err != nil {
		return current, fmt.Errorf("url %q: %w: %w", current, ErrNotReady, err)
	}
	return current, nil
}
