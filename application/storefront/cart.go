package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// confirmation describes one retried, confirmed interaction
type confirmation struct {
	action string
	// target resolves the control to click, once per attempt
	target func(ctx context.Context) (interfaces.Element, error)
	// domFallback ties confirmation to the cart panel: a matched response must
	// be followed by the panel opening, and without a response a panel that
	// went from closed to open confirms the attempt
	domFallback bool
}

// AddToCart clicks the product add-to-cart control and waits until the cart
// mutation is confirmed and the cart panel has settled open.
//
// The control is never clicked before it is visible and enabled. Each attempt
// is confirmed by a successful cart mutation response followed by the cart
// panel opening or, without a response, by the panel going from closed to
// open. Attempts after the first use forced clicks. Exhausting
// the retry policy returns a *ConfirmationError.
func (h *Helpers) AddToCart(ctx context.Context, page interfaces.Page) (entities.Outcome, error) {
	t := h.opts.Timeouts
	sel := h.opts.Selectors

	h.Suppress(ctx, page)
	if h.opts.FormElement != "" {
		if err := h.WaitCustomElement(ctx, page, h.opts.FormElement, t.Enable); err != nil {
			h.logger.Debugf("%v", err)
		}
	}
	if form, _, err := h.First(ctx, page, sel.ProductForm); err == nil {
		if err := form.ScrollIntoView(ctx); err != nil {
			h.logger.Debugf("product form scroll failed: %v", err)
		}
	}

	target := func(ctx context.Context) (interfaces.Element, error) {
		return h.WaitEnabled(ctx, page, sel.AddToCart, t.Enable)
	}
	if _, err := target(ctx); err != nil {
		return entities.Outcome{}, fmt.Errorf("add to cart: %w", err)
	}

	outcome, err := h.confirm(ctx, page, confirmation{
		action:      "add to cart",
		target:      target,
		domFallback: true,
	})
	if err != nil {
		return outcome, err
	}
	if err := h.WaitDrawerOpen(ctx, page); err != nil {
		return outcome, fmt.Errorf("add to cart: %w", err)
	}
	if err := h.WaitDrawerReady(ctx, page); err != nil {
		return outcome, fmt.Errorf("add to cart: %w", err)
	}
	return outcome, nil
}

// confirm runs the attempts of c under the retry policy and returns the first
// confirmed outcome
func (h *Helpers) confirm(ctx context.Context, page interfaces.Page, c confirmation) (entities.Outcome, error) {
	policy := h.opts.Retry
	attempts := policy.Attempts()
	outcomes := make([]entities.Outcome, 0, attempts)
	var causes error

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, policy.Backoff); err != nil {
				return entities.Outcome{}, err
			}
		}
		log := h.logger.WithFields(logrus.Fields{
			"action":  c.action,
			"attempt": i + 1,
		})

		outcome := h.attempt(ctx, page, c, i, log)
		outcomes = append(outcomes, outcome)
		if outcome.Confirmed() {
			log.WithField("outcome", outcome.Kind).Info("interaction confirmed")
			return outcome, nil
		}
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		log.Warnf("interaction not confirmed: %s", outcome.Cause)
		causes = multierr.Append(causes, fmt.Errorf("attempt %d: %s", i+1, outcome.Cause))
	}

	return outcomes[len(outcomes)-1], &ConfirmationError{
		Action:   c.action,
		Attempts: attempts,
		Outcomes: outcomes,
		Cause:    causes,
	}
}

func (h *Helpers) attempt(ctx context.Context, page interfaces.Page, c confirmation, i int, log logrus.FieldLogger) entities.Outcome {
	mode := h.opts.Retry.ClickModeFor(i)
	outcome := entities.Outcome{Attempt: i + 1, ClickMode: mode}

	h.Suppress(ctx, page)
	el, err := c.target(ctx)
	if err != nil {
		outcome.Cause = err.Error()
		return outcome
	}

	// an open panel only confirms the click when it was closed before
	wasOpen := false
	if c.domFallback {
		if wasOpen, err = h.DrawerOpen(ctx, page); err != nil {
			log.Debugf("drawer state before click: %v", err)
		}
	}

	var clickErr error
	respCtx, cancel := context.WithTimeout(ctx, h.opts.Timeouts.Response)
	resp, err := page.ExpectResponse(respCtx, h.isCartMutation, func(ctx context.Context) error {
		clickErr = el.Click(ctx, mode)
		return clickErr
	})
	cancel()

	switch {
	case clickErr != nil:
		outcome.Cause = fmt.Sprintf("%s click: %v", mode, clickErr)
		return outcome
	case err == nil && resp != nil:
		outcome.Response = resp
		if c.domFallback {
			if err := h.WaitDrawerOpen(ctx, page); err != nil {
				outcome.Cause = fmt.Sprintf("cart mutation %d but drawer did not open", resp.Status)
				return outcome
			}
		}
		outcome.Kind = entities.OutcomeNetworkConfirmed
		return outcome
	case ctx.Err() != nil:
		outcome.Cause = ctx.Err().Error()
		return outcome
	}

	netCause := "no cart mutation response"
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		netCause = fmt.Sprintf("%s: %v", netCause, err)
	}
	if !c.domFallback {
		outcome.Cause = netCause
		return outcome
	}

	if wasOpen {
		outcome.Cause = netCause + "; drawer was already open"
		return outcome
	}
	log.Debug("no cart response observed, probing drawer state")
	probe := h.waitDrawer(ctx, page, "open", entities.IsDrawerOpen, h.opts.Timeouts.DrawerProbe)
	if probe == nil {
		outcome.Kind = entities.OutcomeDOMConfirmed
		return outcome
	}
	outcome.Cause = netCause + "; drawer did not open"
	return outcome
}
