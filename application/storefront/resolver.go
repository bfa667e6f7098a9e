package storefront

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// Resolve returns the elements of the first locator in set that matches anything.
// Locators that fail to evaluate are skipped.
func (h *Helpers) Resolve(ctx context.Context, doc interfaces.Document, set entities.SelectorSet) ([]interfaces.Element, entities.Locator, error) {
	for _, loc := range set.Locators {
		els, err := locate(ctx, doc, loc)
		if err != nil {
			h.logger.WithField("set", set.Name).Debugf("locator %s skipped: %v", loc, err)
			continue
		}
		if len(els) > 0 {
			return els, loc, nil
		}
	}
	return nil, entities.Locator{}, fmt.Errorf("%s: %w", set.Name, ErrElementNotFound)
}

// First returns the first element of the first matching locator
func (h *Helpers) First(ctx context.Context, doc interfaces.Document, set entities.SelectorSet) (interfaces.Element, entities.Locator, error) {
	els, loc, err := h.Resolve(ctx, doc, set)
	if err != nil {
		return nil, loc, err
	}
	return els[0], loc, nil
}

// FirstVisible returns the first visible element across the set, in locator order
func (h *Helpers) FirstVisible(ctx context.Context, doc interfaces.Document, set entities.SelectorSet) (interfaces.Element, entities.Locator, error) {
	for _, loc := range set.Locators {
		els, err := locate(ctx, doc, loc)
		if err != nil {
			h.logger.WithField("set", set.Name).Debugf("locator %s skipped: %v", loc, err)
			continue
		}
		for _, el := range els {
			visible, err := el.Visible(ctx)
			if err == nil && visible {
				return el, loc, nil
			}
		}
	}
	return nil, entities.Locator{}, fmt.Errorf("%s: %w", set.Name, ErrElementNotFound)
}

// Count returns the number of elements matched by the first matching locator
func (h *Helpers) Count(ctx context.Context, doc interfaces.Document, set entities.SelectorSet) int {
	els, _, err := h.Resolve(ctx, doc, set)
	if err != nil {
		return 0
	}
	return len(els)
}

func locate(ctx context.Context, doc interfaces.Document, loc entities.Locator) ([]interfaces.Element, error) {
	switch loc.Kind {
	case entities.LocatorCSS, "":
		return doc.Query(ctx, loc.Pattern)
	case entities.LocatorText:
		re, err := regexp.Compile("(?i)" + loc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("text pattern %q: %w", loc.Pattern, err)
		}
		candidates, err := doc.Query(ctx, loc.Scope)
		if err != nil {
			return nil, err
		}
		var matched []interfaces.Element
		for _, el := range candidates {
			text, err := el.Text(ctx)
			if err != nil {
				continue
			}
			if re.MatchString(strings.TrimSpace(text)) {
				matched = append(matched, el)
			}
		}
		return matched, nil
	default:
		return nil, fmt.Errorf("unknown locator kind %q", loc.Kind)
	}
}
