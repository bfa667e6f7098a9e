package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

const defaultPlaywrightTimeout = 30 * time.Second

type playwrightBrowser struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	settings Settings
	logger   *logrus.Logger
}

// NewPlaywrightBrowser - starts playwright and launches chromium
func NewPlaywrightBrowser(settings Settings, logger *logrus.Logger) (interfaces.Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(settings.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-notifications",
		},
	}
	if settings.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(settings.SlowMo.Milliseconds()))
	}
	if settings.ChromeBinary != "" {
		launch.ExecutablePath = playwright.String(settings.ChromeBinary)
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &playwrightBrowser{
		pw:       pw,
		browser:  browser,
		settings: settings,
		logger:   logger,
	}, nil
}

func (b *playwrightBrowser) Name() string { return DriverPlaywright }

// NewPage - opens a page in a fresh browser context so every scenario starts
// with an empty cart session
func (b *playwrightBrowser) NewPage(ctx context.Context) (interfaces.Page, error) {
	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  b.settings.Viewport.Width,
			Height: b.settings.Viewport.Height,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	p := &playwrightPage{page: page, context: bctx, logger: b.logger}
	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Accept()
	})
	page.OnPageError(func(err error) {
		p.dispatchPageError(err)
	})
	return p, nil
}

// Close - closes the browser and stops the playwright driver
func (b *playwrightBrowser) Close() error {
	var closeErr error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}
	return closeErr
}

type playwrightPage struct {
	page    playwright.Page
	context playwright.BrowserContext
	logger  *logrus.Logger

	mu       sync.Mutex
	handlers []interfaces.PageErrorHandler
}

func (p *playwrightPage) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	els := make([]interfaces.Element, 0, len(handles))
	for _, h := range handles {
		els = append(els, &playwrightElement{handle: h})
	}
	return els, nil
}

// Goto - navigates and returns on DOMContentLoaded, never waiting for network idle
func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMS(ctx, defaultPlaywrightTimeout),
	})
	return translateTimeout(err)
}

func (p *playwrightPage) URL(ctx context.Context) (string, error) {
	return p.page.URL(), ctx.Err()
}

func (p *playwrightPage) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Evaluate(expression)
}

// ExpectResponse - registers the response predicate before running trigger
func (p *playwrightPage) ExpectResponse(ctx context.Context, match interfaces.ResponseMatcher, trigger func(context.Context) error) (*entities.NetworkResponse, error) {
	resp, err := p.page.ExpectResponse(func(r playwright.Response) bool {
		return match(toNetworkResponse(r))
	}, func() error {
		return trigger(ctx)
	}, playwright.PageExpectResponseOptions{
		Timeout: timeoutMS(ctx, defaultPlaywrightTimeout),
	})
	if err != nil {
		return nil, translateTimeout(err)
	}
	out := toNetworkResponse(resp)
	return &out, nil
}

func (p *playwrightPage) BlockRequests(ctx context.Context, patterns []string) error {
	var errs error
	for _, pattern := range patterns {
		pattern := pattern
		err := p.page.Route(pattern, func(route playwright.Route) {
			if err := route.Abort(); err != nil {
				p.logger.Debugf("abort %s: %v", pattern, err)
			}
		})
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (p *playwrightPage) SetViewport(ctx context.Context, viewport entities.Viewport) error {
	return p.page.SetViewportSize(viewport.Width, viewport.Height)
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Timeout: timeoutMS(ctx, defaultPlaywrightTimeout),
	})
}

func (p *playwrightPage) OnPageError(handler interfaces.PageErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

func (p *playwrightPage) dispatchPageError(err error) {
	message, source := err.Error(), ""
	var pwErr *playwright.Error
	if errors.As(err, &pwErr) {
		message, source = pwErr.Message, pwErr.Stack
	}
	p.mu.Lock()
	handlers := append([]interfaces.PageErrorHandler(nil), p.handlers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(message, source)
	}
}

func (p *playwrightPage) Close() error {
	var closeErr error
	if err := p.page.Close(); err != nil && !isClosedErr(err) {
		closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close page: %w", err))
	}
	if err := p.context.Close(); err != nil && !isClosedErr(err) {
		closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close context: %w", err))
	}
	return closeErr
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) eval(ctx context.Context, script string, arg ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.handle.Evaluate(script, arg...)
}

func (e *playwrightElement) Closest(ctx context.Context, selector string) (bool, error) {
	v, err := e.eval(ctx, jsClosest, selector)
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

func (e *playwrightElement) Classes(ctx context.Context) (entities.ClassList, error) {
	v, err := e.eval(ctx, jsClassName)
	if err != nil {
		return entities.ClassList{}, err
	}
	s, _ := v.(string)
	return entities.ParseClassList(s), nil
}

func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.eval(ctx, jsAttribute, name)
	if err != nil {
		return "", false, err
	}
	s, ok := attributeResult(v)
	return s, ok, nil
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.handle.TextContent()
}

func (e *playwrightElement) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.handle.IsVisible()
}

func (e *playwrightElement) ScrollIntoView(ctx context.Context) error {
	return translateTimeout(e.handle.ScrollIntoViewIfNeeded(playwright.ElementHandleScrollIntoViewIfNeededOptions{
		Timeout: timeoutMS(ctx, 5*time.Second),
	}))
}

func (e *playwrightElement) Click(ctx context.Context, mode entities.ClickMode) error {
	opts := playwright.ElementHandleClickOptions{
		Timeout: timeoutMS(ctx, 5*time.Second),
	}
	if mode == entities.ClickForced {
		opts.Force = playwright.Bool(true)
	}
	return translateTimeout(e.handle.Click(opts))
}

func (e *playwrightElement) Fill(ctx context.Context, value string) error {
	return translateTimeout(e.handle.Fill(value, playwright.ElementHandleFillOptions{
		Timeout: timeoutMS(ctx, 5*time.Second),
	}))
}

func (e *playwrightElement) Remove(ctx context.Context) error {
	_, err := e.eval(ctx, jsRemove)
	return err
}

func toNetworkResponse(r playwright.Response) entities.NetworkResponse {
	resp := entities.NetworkResponse{URL: r.URL(), Status: r.Status()}
	if req := r.Request(); req != nil {
		resp.Method = req.Method()
	}
	return resp
}

// timeoutMS - remaining time of ctx in milliseconds, or fallback without a deadline
func timeoutMS(ctx context.Context, fallback time.Duration) *float64 {
	d := fallback
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// translateTimeout maps playwright timeouts onto context.DeadlineExceeded
func translateTimeout(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func isClosedErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}
