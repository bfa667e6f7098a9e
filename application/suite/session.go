package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront_e2e/application/storefront"
	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// Session is the page and helper layer handed to one scenario attempt.
// It records every step and add-to-cart outcome for the report.
type Session struct {
	Page    interfaces.Page
	Helpers *storefront.Helpers
	Log     logrus.FieldLogger

	steps    []entities.StepRecord
	outcomes []entities.Outcome
}

func newSession(page interfaces.Page, helpers *storefront.Helpers, log logrus.FieldLogger) *Session {
	return &Session{Page: page, Helpers: helpers.WithLogger(log), Log: log}
}

// Step runs fn and records it
func (s *Session) Step(kind entities.StepKind, description string, fn func() error) error {
	start := time.Now()
	err := fn()
	rec := entities.StepRecord{Kind: kind, Description: description, Duration: time.Since(start)}
	if err != nil {
		rec.Error = err.Error()
		s.Log.WithField("step", description).Warnf("step failed: %v", err)
	} else {
		s.Log.WithField("step", description).Debug("step done")
	}
	s.steps = append(s.steps, rec)
	return err
}

// Visit performs a fast visit of path
func (s *Session) Visit(ctx context.Context, path string) error {
	return s.Step(entities.StepNavigate, "visit "+path, func() error {
		return s.Helpers.FastVisit(ctx, s.Page, path)
	})
}

// AddToCart adds the product on the current page and records the outcome
func (s *Session) AddToCart(ctx context.Context) error {
	return s.Step(entities.StepCart, "add to cart", func() error {
		outcome, err := s.Helpers.AddToCart(ctx, s.Page)
		s.record(outcome, err)
		return err
	})
}

// QuickAdd opens the first quick-add popup and adds its product to the cart
func (s *Session) QuickAdd(ctx context.Context) error {
	if err := s.Step(entities.StepClick, "open quick add", func() error {
		return s.Helpers.OpenQuickAdd(ctx, s.Page)
	}); err != nil {
		return err
	}
	return s.Step(entities.StepCart, "add to cart from quick add", func() error {
		outcome, err := s.Helpers.AddToCartFromQuickAdd(ctx, s.Page)
		s.record(outcome, err)
		return err
	})
}

func (s *Session) record(last entities.Outcome, err error) {
	var cerr *storefront.ConfirmationError
	if errors.As(err, &cerr) {
		s.outcomes = append(s.outcomes, cerr.Outcomes...)
		return
	}
	if last.Attempt > 0 {
		s.outcomes = append(s.outcomes, last)
	}
}

// ExpectVisible waits until set has a visible element
func (s *Session) ExpectVisible(ctx context.Context, set entities.SelectorSet) error {
	return s.Step(entities.StepAssert, set.Name+" visible", func() error {
		_, err := s.Helpers.WaitVisible(ctx, s.Page, set, s.Helpers.Options().Timeouts.Visible)
		return err
	})
}

// ExpectCount waits until set matches at least min elements
func (s *Session) ExpectCount(ctx context.Context, set entities.SelectorSet, min int) error {
	return s.Step(entities.StepAssert, fmt.Sprintf("%s count >= %d", set.Name, min), func() error {
		els, err := s.Helpers.WaitPresent(ctx, s.Page, set, s.Helpers.Options().Timeouts.Visible)
		if err != nil {
			return err
		}
		if len(els) < min {
			return fmt.Errorf("%s: found %d elements, want at least %d", set.Name, len(els), min)
		}
		return nil
	})
}

// ExpectURL checks that the current URL contains fragment
func (s *Session) ExpectURL(ctx context.Context, fragment string) error {
	return s.Step(entities.StepAssert, "url contains "+fragment, func() error {
		u, err := s.Page.URL(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(u, fragment) {
			return fmt.Errorf("url %s does not contain %q", u, fragment)
		}
		return nil
	})
}
