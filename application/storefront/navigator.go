package storefront

import (
	"context"
	"fmt"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

const readyStateExpr = `document.readyState`

// FastVisit navigates to path and returns once the page is interactive.
//
// Readiness is judged by, in order: the theme custom element being registered,
// a bounded settle delay when it never registers, then document.readyState.
// Popups are suppressed before and after accepting a cookie banner. Pending
// network requests are not awaited.
func (h *Helpers) FastVisit(ctx context.Context, page interfaces.Page, path string) error {
	t := h.opts.Timeouts
	url := h.URL(path)
	log := h.logger.WithField("url", url)

	if len(h.opts.BlockPatterns) > 0 {
		if err := page.BlockRequests(ctx, h.opts.BlockPatterns); err != nil {
			log.Debugf("request blocking unavailable: %v", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, t.Navigation)
	err := page.Goto(navCtx, url)
	cancel()
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	if err := h.waitInteractive(ctx, page); err != nil {
		return fmt.Errorf("visit %s: %w", url, err)
	}

	h.Suppress(ctx, page)
	if h.AcceptConsent(ctx, page) {
		log.Debug("cookie consent accepted")
	}
	h.Suppress(ctx, page)
	log.Info("page ready")
	return nil
}

func (h *Helpers) waitInteractive(ctx context.Context, page interfaces.Page) error {
	t := h.opts.Timeouts
	if h.opts.ReadyElement != "" {
		if err := h.WaitCustomElement(ctx, page, h.opts.ReadyElement, t.CustomElement); err != nil {
			// not every page defines the element
			h.logger.Debugf("%v; falling back to settle delay", err)
			if err := sleep(ctx, t.SettleDelay); err != nil {
				return err
			}
		}
	}
	err := h.poll(ctx, t.Ready, func(ctx context.Context) (bool, error) {
		v, err := page.Evaluate(ctx, readyStateExpr)
		if err != nil {
			return false, err
		}
		state, _ := v.(string)
		return state == "interactive" || state == "complete", nil
	})
	if err != nil {
		return fmt.Errorf("document: %w: %w", ErrNotReady, err)
	}
	return nil
}

// AcceptConsent clicks a visible cookie consent button and reports whether it did.
// A missing banner is not an error.
func (h *Helpers) AcceptConsent(ctx context.Context, page interfaces.Page) bool {
	btn, err := h.WaitVisible(ctx, page, h.opts.Selectors.Consent, h.opts.Timeouts.Consent)
	if err != nil {
		return false
	}
	if err := btn.Click(ctx, entities.ClickForced); err != nil {
		h.logger.Debugf("consent click failed: %v", err)
		return false
	}
	return true
}
