package storefront

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront_e2e/domain/interfaces"
)

// SuppressionPolicy lists the overlays to remove and the subtrees that must survive
type SuppressionPolicy struct {
	Overlays   []string
	Exclusions []string
}

// DefaultSuppressionPolicy covers marketing popups and generic modals while
// keeping the cart panel and the quick-add modal intact
func DefaultSuppressionPolicy() SuppressionPolicy {
	return SuppressionPolicy{
		Overlays: []string{
			`[class*="klaviyo"]`,
			".needsclick",
			".kl-private-reset-css-Xuajs1",
			`[data-testid="klaviyo-form-container"]`,
			`div[aria-label*="POPUP"]`,
			`div[aria-label*="Form"]`,
			`[role="dialog"]`,
			`[aria-modal="true"]`,
		},
		Exclusions: []string{
			"cart-drawer",
			"#CartDrawer",
			"[js-hb-popup]",
			".drawer__inner",
		},
	}
}

// unlockBodyScript undoes the scroll lock overlays put on the body
const unlockBodyScript = `(() => {
	if (!document.body) return false;
	document.body.classList.remove('klaviyo-prevent-body-scrolling');
	document.body.style.display = '';
	document.body.style.overflow = '';
	return true;
})()`

// Suppress removes every overlay element of policy that is not inside an
// excluded subtree and returns how many were removed. A selector or element
// that fails is logged and skipped. Calling it with nothing to remove is a no-op.
func Suppress(ctx context.Context, doc interfaces.Document, policy SuppressionPolicy, logger logrus.FieldLogger) int {
	removed := 0
	for _, selector := range policy.Overlays {
		els, err := doc.Query(ctx, selector)
		if err != nil {
			logger.WithField("selector", selector).Debugf("overlay query failed: %v", err)
			continue
		}
		for _, el := range els {
			excluded, err := isExcluded(ctx, el, policy.Exclusions)
			if err != nil {
				logger.WithField("selector", selector).Debugf("exclusion check failed: %v", err)
				continue
			}
			if excluded {
				continue
			}
			if err := el.Remove(ctx); err != nil {
				logger.WithField("selector", selector).Debugf("overlay removal failed: %v", err)
				continue
			}
			removed++
		}
	}
	return removed
}

func isExcluded(ctx context.Context, el interfaces.Element, exclusions []string) (bool, error) {
	for _, ex := range exclusions {
		inside, err := el.Closest(ctx, ex)
		if err != nil {
			return false, err
		}
		if inside {
			return true, nil
		}
	}
	return false, nil
}

// Suppress runs the configured suppression against doc. Pages also get their
// body scroll lock released.
func (h *Helpers) Suppress(ctx context.Context, doc interfaces.Document) int {
	if page, ok := doc.(interfaces.Page); ok {
		if _, err := page.Evaluate(ctx, unlockBodyScript); err != nil {
			h.logger.Debugf("body unlock failed: %v", err)
		}
	}
	n := Suppress(ctx, doc, h.opts.Suppression, h.logger)
	if n > 0 {
		h.logger.Debugf("suppressed %d overlay elements", n)
	}
	return n
}
