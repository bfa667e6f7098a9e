package suite

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"storefront_e2e/domain/entities"
)

// Check is the body of a scenario, run after the runner opened Path
type Check func(ctx context.Context, s *Session) error

// Definition is a runnable scenario
type Definition struct {
	entities.Scenario
	Run Check
}

// Paths are the storefront pages the catalog visits
type Paths struct {
	Home       string
	Product    string
	Collection string
}

// DefaultPaths - the pages of the storefront under test
func DefaultPaths() Paths {
	return Paths{
		Home:       "/",
		Product:    "/products/essentials",
		Collection: "/collections/all",
	}
}

// cartPageCheckout is the checkout control of the full cart page
var cartPageCheckout = entities.CSSSet("cart_page_checkout",
	`button[name="checkout"]`,
	`input[name="checkout"]`)

func define(group, name, description, path string, viewport entities.Viewport, run Check) Definition {
	return Definition{
		Scenario: entities.Scenario{
			ID:          group + "/" + name,
			Group:       group,
			Name:        name,
			Description: description,
			Path:        path,
			Viewport:    viewport,
		},
		Run: run,
	}
}

func emptyCart(d Definition) Definition {
	d.EmptyCart = true
	return d
}

// Catalog returns every storefront scenario in execution order
func Catalog(paths Paths) []Definition {
	desktop, mobile := entities.ViewportDesktop, entities.ViewportMobile
	return []Definition{
		define("homepage", "loads", "homepage loads on the storefront host", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				base, err := url.Parse(s.Helpers.Options().BaseURL)
				if err != nil {
					return fmt.Errorf("base url: %w", err)
				}
				if err := s.ExpectURL(ctx, base.Host); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, s.Helpers.Selectors().Header)
			}),
		define("homepage", "product-links", "homepage links to products", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				return s.ExpectCount(ctx, s.Helpers.Selectors().ProductLinks, 1)
			}),

		define("add-to-cart", "button-visible", "product page shows the add-to-cart control", paths.Product, desktop,
			func(ctx context.Context, s *Session) error {
				if err := s.ExpectURL(ctx, "/products/"); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, s.Helpers.Selectors().AddToCart)
			}),
		emptyCart(define("add-to-cart", "drawer-opens", "adding to cart opens the cart drawer", paths.Product, desktop,
			func(ctx context.Context, s *Session) error {
				return s.AddToCart(ctx)
			})),

		define("cart-drawer", "icon-visible", "header cart icon is visible", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				return s.ExpectVisible(ctx, s.Helpers.Selectors().CartIcon)
			}),
		define("cart-drawer", "icon-opens-drawer", "clicking the cart icon opens the drawer", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				return s.Step(entities.StepClick, "open cart drawer", func() error {
					return s.Helpers.OpenCartDrawer(ctx, s.Page)
				})
			}),
		emptyCart(define("cart-drawer", "checkout-button", "drawer offers checkout once the cart has items", paths.Product, desktop,
			func(ctx context.Context, s *Session) error {
				if err := s.AddToCart(ctx); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, s.Helpers.Selectors().Checkout)
			})),

		emptyCart(define("checkout", "handoff", "checkout button hands off to checkout", paths.Product, desktop,
			func(ctx context.Context, s *Session) error {
				if err := s.AddToCart(ctx); err != nil {
					return err
				}
				var landed string
				if err := s.Step(entities.StepClick, "proceed to checkout", func() error {
					u, err := s.Helpers.ProceedToCheckout(ctx, s.Page)
					if err == nil {
						s.Log.Infof("checkout handoff at %s", u)
					}
					landed = u
					return err
				}); err != nil {
					return err
				}
				// the storefront may stop on the cart page before checkout
				if strings.Contains(landed, "/cart") && !strings.Contains(landed, "checkout") {
					return s.ExpectVisible(ctx, cartPageCheckout)
				}
				return nil
			})),

		define("quick-add", "buttons-present", "collection cards have quick-add buttons", paths.Collection, desktop,
			func(ctx context.Context, s *Session) error {
				return s.ExpectCount(ctx, s.Helpers.Selectors().QuickAddTrigger, 1)
			}),
		define("quick-add", "opens", "quick-add opens the product popup with options", paths.Collection, desktop,
			func(ctx context.Context, s *Session) error {
				sel := s.Helpers.Selectors()
				if err := s.Step(entities.StepClick, "open quick add", func() error {
					return s.Helpers.OpenQuickAdd(ctx, s.Page)
				}); err != nil {
					return err
				}
				if err := s.ExpectCount(ctx, sel.QuickAddVariant, 1); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, sel.QuickAddSubmit)
			}),
		emptyCart(define("quick-add", "add-to-cart", "adding from the quick-add popup opens the drawer", paths.Collection, desktop,
			func(ctx context.Context, s *Session) error {
				return s.QuickAdd(ctx)
			})),

		define("header", "logo", "header renders with the logo", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				sel := s.Helpers.Selectors()
				if err := s.ExpectVisible(ctx, sel.Header); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, sel.Logo)
			}),
		define("header", "nav-links", "header navigation has links", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				return s.ExpectCount(ctx, s.Helpers.Selectors().NavLinks, 1)
			}),
		define("header", "mega-menu", "Shop opens the mega menu", paths.Home, desktop,
			func(ctx context.Context, s *Session) error {
				return s.Step(entities.StepClick, "open mega menu", func() error {
					return s.Helpers.OpenMegaMenu(ctx, s.Page)
				})
			}),

		define("mobile-nav", "hamburger", "hamburger button is visible on mobile", paths.Home, mobile,
			func(ctx context.Context, s *Session) error {
				return s.ExpectVisible(ctx, s.Helpers.Selectors().Hamburger)
			}),
		define("mobile-nav", "drawer-links", "mobile drawer opens with navigation links", paths.Home, mobile,
			func(ctx context.Context, s *Session) error {
				if err := s.Step(entities.StepClick, "open mobile nav", func() error {
					return s.Helpers.OpenMobileNav(ctx, s.Page)
				}); err != nil {
					return err
				}
				return s.ExpectCount(ctx, s.Helpers.Selectors().MobileDrawerLinks, 1)
			}),

		define("sticky-atc", "after-scroll", "add-to-cart stays available after scrolling", paths.Product, desktop,
			func(ctx context.Context, s *Session) error {
				if err := s.Step(entities.StepWait, "scroll to bottom", func() error {
					return s.Helpers.ScrollToBottom(ctx, s.Page)
				}); err != nil {
					return err
				}
				return s.ExpectCount(ctx, s.Helpers.Selectors().AddToCart, 1)
			}),
	}
}

// Select returns the scenarios whose id matches pattern; an empty pattern selects all
func Select(defs []Definition, pattern string) ([]Definition, error) {
	if strings.TrimSpace(pattern) == "" {
		return defs, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario pattern: %w", err)
	}
	var out []Definition
	for _, d := range defs {
		if re.MatchString(d.ID) {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario matches %q", pattern)
	}
	return out, nil
}
