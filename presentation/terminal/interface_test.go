package terminal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/application/storefront"
	"storefront_e2e/application/suite"
	"storefront_e2e/infrastructure/config"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"-base-url", "https://shop.test", "-driver", "chromedp", "-headless=false", "-run", "^header/"}, io.Discard)
	require.NoError(t, err)

	cfg := config.Default()
	f.apply(cfg)
	assert.Equal(t, "https://shop.test", cfg.BaseURL)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "^header/", f.Run)
}

func TestParseFlags_HeadlessUntouchedWhenNotGiven(t *testing.T) {
	f, err := ParseFlags(nil, io.Discard)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Browser.Headless = false
	f.apply(cfg)
	assert.False(t, cfg.Browser.Headless)
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := ParseFlags([]string{"-nope"}, io.Discard)
	assert.Error(t, err)
}

func newTestInterface(t *testing.T, baseURL string, flags Flags) (*TerminalInterface, *bytes.Buffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.BaseURL = baseURL
	opts, err := cfg.HelperOptions()
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &TerminalInterface{
		flags:   flags,
		cfg:     cfg,
		helpers: storefront.NewHelpers(opts, logger),
		logger:  logger,
		out:     out,
	}, out
}

func TestRun_List(t *testing.T) {
	ti, out := newTestInterface(t, "", Flags{List: true})

	code, err := ti.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, len(suite.Catalog(suite.DefaultPaths())))
	assert.Contains(t, out.String(), "add-to-cart/drawer-opens")
	assert.Contains(t, out.String(), "(empties cart)")
}

func TestRun_InvalidConfig(t *testing.T) {
	ti, _ := newTestInterface(t, "", Flags{})

	code, err := ti.Run(context.Background())
	assert.Equal(t, 2, code)
	assert.ErrorContains(t, err, "base_url is required")
}

func TestRun_Audit(t *testing.T) {
	page := `<html><head><title>Shop</title></head><body>
		<header><a class="header__heading-logo" href="/">Shop</a><nav><a href="/collections/all">Shop</a></nav></header>
		<a href="/products/essentials">Essentials</a>
		<button id="ProductSubmitButton-main" name="add">Add to cart</button>
		<cart-drawer class="drawer"></cart-drawer>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer srv.Close()

	ti, out := newTestInterface(t, srv.URL, Flags{Audit: true})
	code, err := ti.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, code, "quick-add markup is missing from the fixture")

	assert.Contains(t, out.String(), srv.URL+"/products/essentials (Shop)")
	assert.Regexp(t, `add_to_cart\s+1\s+\[id\^="ProductSubmitButton"\]`, out.String())
	assert.Regexp(t, `quick_add_trigger\s+MISSING`, out.String())
}
