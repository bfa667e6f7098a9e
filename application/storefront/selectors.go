package storefront

import (
	"fmt"
	"sort"

	"storefront_e2e/domain/entities"
)

// Selectors holds the fallback chains for every storefront target the helpers touch
type Selectors struct {
	CartDrawer      entities.SelectorSet
	CartIcon        entities.SelectorSet
	CartDrawerClose entities.SelectorSet
	CartCount       entities.SelectorSet
	CartItem        entities.SelectorSet
	CartItemRemove  entities.SelectorSet
	CartEmpty       entities.SelectorSet
	Checkout        entities.SelectorSet

	ProductForm  entities.SelectorSet
	AddToCart    entities.SelectorSet
	ProductLinks entities.SelectorSet

	QuickAddTrigger  entities.SelectorSet
	QuickAddModal    entities.SelectorSet
	QuickAddSubmit   entities.SelectorSet
	QuickAddForm     entities.SelectorSet
	QuickAddVariant  entities.SelectorSet
	QuickAddQuantity entities.SelectorSet
	QuickAddClose    entities.SelectorSet

	Consent entities.SelectorSet

	Header            entities.SelectorSet
	Logo              entities.SelectorSet
	NavLinks          entities.SelectorSet
	ShopMenu          entities.SelectorSet
	MegaMenu          entities.SelectorSet
	Hamburger         entities.SelectorSet
	MobileDrawer      entities.SelectorSet
	MobileDrawerLinks entities.SelectorSet
}

// DefaultSelectors returns the selector sets for the storefront theme markup
func DefaultSelectors() Selectors {
	return Selectors{
		CartDrawer:      entities.CSSSet("cart_drawer", "cart-drawer"),
		CartIcon:        entities.CSSSet("cart_icon", "#cart-icon-bubble"),
		CartDrawerClose: entities.CSSSet("cart_drawer_close", ".drawer__close"),
		CartCount:       entities.CSSSet("cart_count", ".cart-count-bubble span"),
		CartItem:        entities.CSSSet("cart_item", ".cart-item"),
		CartItemRemove: entities.CSSSet("cart_item_remove",
			".cart-item cart-remove-button a",
			".cart-item .cart-remove-button",
			`.cart-item [href*="change?"]`),
		CartEmpty: entities.CSSSet("cart_empty", ".cart__empty-text", ".cart-drawer__empty-content"),
		Checkout: entities.CSSSet("checkout",
			"#CartDrawer-Checkout",
			`button[name="checkout"]`,
			`input[name="checkout"]`),

		ProductForm: entities.CSSSet("product_form",
			".product-form",
			".product__info-wrapper",
			".product__info-container"),
		AddToCart: entities.CSSSet("add_to_cart",
			`[id^="ProductSubmitButton"]`,
			`button[name="add"]`,
			".product-form__submit"),
		ProductLinks: entities.CSSSet("product_links", `a[href*="/products/"]`),

		QuickAddTrigger: entities.CSSSet("quick_add_trigger",
			"[quick-add__submit]",
			".product-card__quick-add",
			"[data-quick-add]",
			".quick-add-button"),
		QuickAddModal:    entities.CSSSet("quick_add_modal", "[js-hb-popup].active", ".hb_popup.active"),
		QuickAddSubmit:   entities.CSSSet("quick_add_submit", "#ProductSubmitButton-hb-popup-ajax"),
		QuickAddForm:     entities.CSSSet("quick_add_form", "#product-form-hb-popup-ajax"),
		QuickAddVariant:  entities.CSSSet("quick_add_variant", "#variant-selects-hb-popup-ajax label", `[js-hb-popup] input[type="radio"]`),
		QuickAddQuantity: entities.CSSSet("quick_add_quantity", "#Quantity-hb-popup-ajax"),
		QuickAddClose:    entities.CSSSet("quick_add_close", "[js-hb-close-popup]", ".hb_popup__cross--icon"),

		Consent: entities.NewSelectorSet("consent_accept", entities.Text("button", `accept`)),

		Header:   entities.CSSSet("header", "header", `[role="banner"]`),
		Logo:     entities.CSSSet("logo", ".header__heading-logo", `a[href="/"]`),
		NavLinks: entities.CSSSet("nav_links", "nav a"),
		ShopMenu: entities.NewSelectorSet("shop_menu",
			entities.Text("nav a", `^\s*shop\b`),
			entities.Text(".header__menu-item", `^\s*shop\b`)),
		MegaMenu:          entities.CSSSet("mega_menu", ".mega-menu__content", `[id^="MegaMenu-Content"]`),
		Hamburger:         entities.CSSSet("hamburger", "summary.header__icon--menu"),
		MobileDrawer:      entities.CSSSet("mobile_drawer", "#menu-drawer"),
		MobileDrawerLinks: entities.CSSSet("mobile_drawer_links", "#menu-drawer a"),
	}
}

func (s *Selectors) byName() map[string]*entities.SelectorSet {
	sets := []*entities.SelectorSet{
		&s.CartDrawer, &s.CartIcon, &s.CartDrawerClose, &s.CartCount, &s.CartItem,
		&s.CartItemRemove, &s.CartEmpty, &s.Checkout, &s.ProductForm, &s.AddToCart,
		&s.ProductLinks, &s.QuickAddTrigger, &s.QuickAddModal, &s.QuickAddSubmit,
		&s.QuickAddForm, &s.QuickAddVariant, &s.QuickAddQuantity, &s.QuickAddClose,
		&s.Consent, &s.Header, &s.Logo, &s.NavLinks, &s.ShopMenu, &s.MegaMenu,
		&s.Hamburger, &s.MobileDrawer, &s.MobileDrawerLinks,
	}
	m := make(map[string]*entities.SelectorSet, len(sets))
	for _, set := range sets {
		m[set.Name] = set
	}
	return m
}

// Override replaces the locators of a named set
func (s *Selectors) Override(name string, locators []entities.Locator) error {
	set, ok := s.byName()[name]
	if !ok {
		return fmt.Errorf("unknown selector set %q", name)
	}
	if len(locators) == 0 {
		return fmt.Errorf("selector set %q: no locators", name)
	}
	set.Locators = locators
	return nil
}

// All returns every selector set ordered by name
func (s *Selectors) All() []entities.SelectorSet {
	m := s.byName()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	sets := make([]entities.SelectorSet, 0, len(names))
	for _, name := range names {
		sets = append(sets, *m[name])
	}
	return sets
}
