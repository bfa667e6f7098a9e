package storefront

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"storefront_e2e/application/storefront/storefronttest"
	"storefront_e2e/domain/entities"
)

const testBaseURL = "https://shop.test"

func testOptions() Options {
	opts := DefaultOptions(testBaseURL)
	opts.Timeouts = Timeouts{
		PollInterval:  time.Millisecond,
		CustomElement: 20 * time.Millisecond,
		Ready:         50 * time.Millisecond,
		Consent:       5 * time.Millisecond,
		Visible:       50 * time.Millisecond,
		Enable:        200 * time.Millisecond,
		Response:      10 * time.Millisecond,
		DrawerProbe:   10 * time.Millisecond,
		Drawer:        100 * time.Millisecond,
		Popup:         50 * time.Millisecond,
		CartUpdate:    50 * time.Millisecond,
		Navigation:    50 * time.Millisecond,
	}
	opts.Retry.Backoff = 0
	return opts
}

func newTestHelpers(t *testing.T) (*Helpers, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewHelpers(testOptions(), logger), hook
}

func warnings(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

// productPage is a product page with an add-to-cart button and a closed cart panel
func productPage() (*storefronttest.Page, *storefronttest.Element, *storefronttest.Element) {
	button := storefronttest.NewElement().WithText("Add to cart")
	drawer := storefronttest.NewElement().WithClasses("")
	page := storefronttest.NewPage().
		Define("cart-drawer", "product-form").
		Add(".product-form", storefronttest.NewElement()).
		Add(`[id^="ProductSubmitButton"]`, button).
		Add("cart-drawer", drawer)
	return page, button, drawer
}

func TestURL(t *testing.T) {
	h := NewHelpers(DefaultOptions("https://shop.test/"), nil)

	assert.Equal(t, "https://shop.test/products/essentials", h.URL("/products/essentials"))
	assert.Equal(t, "https://shop.test/cart", h.URL("cart"))
	assert.Equal(t, "https://other.test/x", h.URL("https://other.test/x"))
}

func TestIsCartMutation(t *testing.T) {
	h := NewHelpers(DefaultOptions(testBaseURL), nil)

	tests := []struct {
		name string
		resp entities.NetworkResponse
		want bool
	}{
		{"ajax add", entities.NetworkResponse{URL: testBaseURL + "/cart/add.js", Status: 200}, true},
		{"form add", entities.NetworkResponse{URL: testBaseURL + "/cart/add", Status: 201}, true},
		{"server error", entities.NetworkResponse{URL: testBaseURL + "/cart/add.js", Status: 500}, false},
		{"redirect", entities.NetworkResponse{URL: testBaseURL + "/cart/add", Status: 302}, false},
		{"other endpoint", entities.NetworkResponse{URL: testBaseURL + "/cart/change.js", Status: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.isCartMutation(tt.resp))
		})
	}
}

func TestNewHelpers_DefaultsPollInterval(t *testing.T) {
	opts := DefaultOptions(testBaseURL)
	opts.Timeouts.PollInterval = 0
	h := NewHelpers(opts, nil)
	assert.Equal(t, DefaultTimeouts().PollInterval, h.Options().Timeouts.PollInterval)
}
