package storefront

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront_e2e/domain/entities"
)

// Timeouts bounds every wait the helpers perform
type Timeouts struct {
	PollInterval  time.Duration
	CustomElement time.Duration
	SettleDelay   time.Duration
	Ready         time.Duration
	Consent       time.Duration
	Visible       time.Duration
	Enable        time.Duration
	Response      time.Duration
	DrawerProbe   time.Duration
	Drawer        time.Duration
	Popup         time.Duration
	VariantSettle time.Duration
	CartUpdate    time.Duration
	Navigation    time.Duration
}

// DefaultTimeouts mirrors the waits the storefront needs under test load
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PollInterval:  100 * time.Millisecond,
		CustomElement: 20 * time.Second,
		SettleDelay:   1500 * time.Millisecond,
		Ready:         15 * time.Second,
		Consent:       2 * time.Second,
		Visible:       20 * time.Second,
		Enable:        10 * time.Second,
		Response:      20 * time.Second,
		DrawerProbe:   2 * time.Second,
		Drawer:        15 * time.Second,
		Popup:         15 * time.Second,
		VariantSettle: 500 * time.Millisecond,
		CartUpdate:    10 * time.Second,
		Navigation:    30 * time.Second,
	}
}

// Options configures the helper layer
type Options struct {
	BaseURL string
	// CartEndpoint is the URL fragment of the cart mutation request
	CartEndpoint string
	// ReadyElement is the custom element whose registration marks the theme as initialized
	ReadyElement string
	// FormElement is the custom element that handles product form submission
	FormElement   string
	BlockPatterns []string
	Timeouts      Timeouts
	Retry         entities.RetryPolicy
	Selectors     Selectors
	Suppression   SuppressionPolicy
}

// DefaultOptions returns options for the storefront at baseURL
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:       baseURL,
		CartEndpoint:  "/cart/add",
		ReadyElement:  "cart-drawer",
		FormElement:   "product-form",
		BlockPatterns: []string{"**/*klaviyo*"},
		Timeouts:      DefaultTimeouts(),
		Retry:         entities.DefaultRetryPolicy(),
		Selectors:     DefaultSelectors(),
		Suppression:   DefaultSuppressionPolicy(),
	}
}

// Helpers is the resilient interaction layer used by every scenario
type Helpers struct {
	opts   Options
	logger logrus.FieldLogger
}

// NewHelpers - creates the helper layer
func NewHelpers(opts Options, logger logrus.FieldLogger) *Helpers {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Timeouts.PollInterval <= 0 {
		opts.Timeouts.PollInterval = DefaultTimeouts().PollInterval
	}
	return &Helpers{opts: opts, logger: logger}
}

// Options returns the effective options
func (h *Helpers) Options() Options {
	return h.opts
}

// Selectors returns the effective selector sets
func (h *Helpers) Selectors() Selectors {
	return h.opts.Selectors
}

// WithLogger returns a copy of the helpers logging through logger
func (h *Helpers) WithLogger(logger logrus.FieldLogger) *Helpers {
	return &Helpers{opts: h.opts, logger: logger}
}

// URL resolves a storefront path against the base URL
func (h *Helpers) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(h.opts.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (h *Helpers) isCartMutation(resp entities.NetworkResponse) bool {
	return strings.Contains(resp.URL, h.opts.CartEndpoint) && resp.Status >= 200 && resp.Status < 300
}
