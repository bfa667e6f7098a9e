package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	slog "github.com/tebeka/selenium/log"
	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/util/wait"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// responsePollInterval paces reads of the in-page response log
const responsePollInterval = 100 * time.Millisecond

type seleniumBrowser struct {
	service  *selenium.Service
	settings Settings
	logger   *logrus.Logger
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
		return "", fmt.Errorf("chromedriver not found at %s", configured)
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("chromedriver not found. Please install it or set STOREFRONT_CHROMEDRIVER_PATH")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// NewSeleniumBrowser - starts a ChromeDriver service; every page gets its own WebDriver session
func NewSeleniumBrowser(settings Settings, logger *logrus.Logger) (interfaces.Browser, error) {
	driverPath, err := findChromeDriver(settings.ChromeDriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	if settings.ChromeDriverPort == 0 {
		settings.ChromeDriverPort = DefaultSettings().ChromeDriverPort
	}
	service, err := selenium.NewChromeDriverService(driverPath, settings.ChromeDriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}
	settings.ChromeBinary = findChromeBinary(settings.ChromeBinary)
	if settings.ChromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", settings.ChromeBinary)
	}

	return &seleniumBrowser{service: service, settings: settings, logger: logger}, nil
}

func (b *seleniumBrowser) Name() string { return DriverSelenium }

func (b *seleniumBrowser) NewPage(ctx context.Context) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		fmt.Sprintf("--window-size=%d,%d", b.settings.Viewport.Width, b.settings.Viewport.Height),
	}
	if b.settings.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if b.settings.ChromeBinary != "" {
		chromeCaps.Path = b.settings.ChromeBinary
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)
	caps.SetLogLevel(slog.Browser, slog.Severe)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", b.settings.ChromeDriverPort))
	if err != nil {
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set chrome_binary. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}
	return &seleniumPage{wd: wd, logger: b.logger}, nil
}

// Close - stops the ChromeDriver service
func (b *seleniumBrowser) Close() error {
	if b.service == nil {
		return nil
	}
	err := b.service.Stop()
	b.service = nil
	return err
}

var _ interfaces.PageErrorFlusher = (*seleniumPage)(nil)

type seleniumPage struct {
	wd     selenium.WebDriver
	logger *logrus.Logger

	mu       sync.Mutex
	handlers []interfaces.PageErrorHandler
}

func (p *seleniumPage) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := p.wd.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	els := make([]interfaces.Element, 0, len(found))
	for _, el := range found {
		els = append(els, &seleniumElement{page: p, el: el})
	}
	return els, nil
}

// Goto - WebDriver navigation blocks until the page load strategy is satisfied
func (p *seleniumPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.FlushPageErrors()
	if err := p.wd.Get(url); err != nil {
		return err
	}
	if _, err := p.wd.ExecuteScript("return "+jsErrorHook, nil); err != nil {
		p.logger.Debugf("error hook not installed: %v", err)
	}
	return nil
}

func (p *seleniumPage) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.wd.CurrentURL()
}

func (p *seleniumPage) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.wd.ExecuteScript("return "+expression, nil)
}

// ExpectResponse - WebDriver has no network events, so fetch and XHR are hooked
// in the page and the recorded responses are polled after trigger runs
func (p *seleniumPage) ExpectResponse(ctx context.Context, match interfaces.ResponseMatcher, trigger func(context.Context) error) (*entities.NetworkResponse, error) {
	if _, err := p.wd.ExecuteScript("return "+jsResponseHook, nil); err != nil {
		return nil, fmt.Errorf("install response hook: %w", err)
	}
	if _, err := p.wd.ExecuteScript("return "+jsTakeResponses, nil); err != nil {
		return nil, err
	}
	if err := trigger(ctx); err != nil {
		return nil, err
	}

	var found *entities.NetworkResponse
	err := wait.PollUntilContextCancel(ctx, responsePollInterval, true, func(ctx context.Context) (bool, error) {
		raw, err := p.wd.ExecuteScript("return "+jsTakeResponses, nil)
		if err != nil {
			// a navigation replaced the document
			return false, nil
		}
		for _, r := range decodeResponses(raw) {
			if match(r) {
				found = &r
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func decodeResponses(raw any) []entities.NetworkResponse {
	items, _ := raw.([]any)
	out := make([]entities.NetworkResponse, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := entities.NetworkResponse{}
		r.URL, _ = m["url"].(string)
		r.Method, _ = m["method"].(string)
		if status, ok := m["status"].(float64); ok {
			r.Status = int(status)
		}
		out = append(out, r)
	}
	return out
}

func (p *seleniumPage) BlockRequests(ctx context.Context, patterns []string) error {
	return fmt.Errorf("request blocking: %w", ErrUnsupported)
}

func (p *seleniumPage) SetViewport(ctx context.Context, viewport entities.Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.wd.ResizeWindow("", viewport.Width, viewport.Height)
}

func (p *seleniumPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.FlushPageErrors()
	return p.wd.Screenshot()
}

func (p *seleniumPage) OnPageError(handler interfaces.PageErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// FlushPageErrors delivers errors recorded by the in-page hook and severe browser log entries
func (p *seleniumPage) FlushPageErrors() {
	p.mu.Lock()
	handlers := append([]interfaces.PageErrorHandler(nil), p.handlers...)
	p.mu.Unlock()
	if len(handlers) == 0 {
		return
	}

	type pageError struct{ message, source string }
	var errs []pageError
	if raw, err := p.wd.ExecuteScript("return "+jsTakeErrors, nil); err == nil {
		items, _ := raw.([]any)
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				msg, _ := m["message"].(string)
				src, _ := m["source"].(string)
				errs = append(errs, pageError{msg, src})
			}
		}
	}
	if entries, err := p.wd.Log(slog.Browser); err == nil {
		for _, e := range entries {
			if e.Level == slog.Severe {
				errs = append(errs, pageError{e.Message, ""})
			}
		}
	}
	for _, e := range errs {
		for _, h := range handlers {
			h(e.message, e.source)
		}
	}
}

func (p *seleniumPage) Close() error {
	p.FlushPageErrors()
	var closeErr error
	if err := p.wd.Quit(); err != nil {
		closeErr = multierr.Append(closeErr, fmt.Errorf("failed to quit session: %w", err))
	}
	return closeErr
}

type seleniumElement struct {
	page *seleniumPage
	el   selenium.WebElement
}

// exec runs an element script with the element as first argument
func (e *seleniumElement) exec(ctx context.Context, script string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.page.wd.ExecuteScript(
		fmt.Sprintf("return (%s)(arguments[0], arguments[1]);", script),
		[]any{e.el, arg})
}

func (e *seleniumElement) Closest(ctx context.Context, selector string) (bool, error) {
	v, err := e.exec(ctx, jsClosest, selector)
	ok, _ := v.(bool)
	return ok, err
}

func (e *seleniumElement) Classes(ctx context.Context) (entities.ClassList, error) {
	v, err := e.exec(ctx, jsClassName, nil)
	if err != nil {
		return entities.ClassList{}, err
	}
	s, _ := v.(string)
	return entities.ParseClassList(s), nil
}

func (e *seleniumElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.exec(ctx, jsAttribute, name)
	if err != nil {
		return "", false, err
	}
	s, ok := attributeResult(v)
	return s, ok, nil
}

func (e *seleniumElement) Text(ctx context.Context) (string, error) {
	v, err := e.exec(ctx, jsText, nil)
	s, _ := v.(string)
	return s, err
}

func (e *seleniumElement) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.el.IsDisplayed()
}

func (e *seleniumElement) ScrollIntoView(ctx context.Context) error {
	_, err := e.exec(ctx, jsScrollIntoView, nil)
	return err
}

func (e *seleniumElement) Click(ctx context.Context, mode entities.ClickMode) error {
	if mode == entities.ClickForced {
		_, err := e.exec(ctx, jsForceClick, nil)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.el.Click()
}

func (e *seleniumElement) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.el.Clear(); err != nil {
		e.page.logger.Warnf("Failed to clear element: %v", err)
	}
	return e.el.SendKeys(value)
}

func (e *seleniumElement) Remove(ctx context.Context) error {
	_, err := e.exec(ctx, jsRemove, nil)
	return err
}
