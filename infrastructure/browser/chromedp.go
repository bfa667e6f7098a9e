package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// queryObjectGroup collects the remote objects behind element handles
const queryObjectGroup = "storefront-query"

type chromedpBrowser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	settings      Settings
	logger        *logrus.Logger
}

// NewChromedpBrowser - launches chrome, or attaches to RemoteDebuggingURL, over the DevTools protocol
func NewChromedpBrowser(ctx context.Context, settings Settings, logger *logrus.Logger) (interfaces.Browser, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if settings.RemoteDebuggingURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), settings.RemoteDebuggingURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", settings.Headless),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(settings.Viewport.Width, settings.Viewport.Height),
			chromedp.NoSandbox,
		)
		if settings.ChromeBinary != "" {
			opts = append(opts, chromedp.ExecPath(settings.ChromeBinary))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Errorf),
	)
	// the first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &chromedpBrowser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		settings:      settings,
		logger:        logger,
	}, nil
}

func (b *chromedpBrowser) Name() string { return DriverChromedp }

// NewPage - opens a tab in a new browser context and subscribes to its events
func (b *chromedpBrowser) NewPage(ctx context.Context) (interfaces.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	p := &chromedpPage{
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		logger:    b.logger,
		methods:   make(map[network.RequestID]string),
		waiters:   make(map[int]responseWaiter),
	}
	chromedp.ListenTarget(tabCtx, p.onEvent)

	err := p.run(ctx,
		network.Enable(),
		runtime.Enable(),
		cdppage.Enable(),
		chromedp.EmulateViewport(int64(b.settings.Viewport.Width), int64(b.settings.Viewport.Height)),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return p, nil
}

func (b *chromedpBrowser) Close() error {
	if b.browserCancel != nil {
		// cancelling the browser context closes the browser or detaches from a remote one
		if err := chromedp.Cancel(b.browserCtx); err != nil {
			b.logger.Debugf("chromedp cancel: %v", err)
		}
		b.browserCancel()
		b.browserCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	return nil
}

type responseWaiter struct {
	match interfaces.ResponseMatcher
	ch    chan entities.NetworkResponse
}

type chromedpPage struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc
	logger    *logrus.Logger

	mu         sync.Mutex
	methods    map[network.RequestID]string
	waiters    map[int]responseWaiter
	nextWaiter int
	loaded     chan struct{}
	handlers   []interfaces.PageErrorHandler
}

// run executes actions on the tab, bounded by the caller's ctx
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// onEvent runs on the chromedp event loop and must not block
func (p *chromedpPage) onEvent(ev any) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		p.mu.Lock()
		p.methods[ev.RequestID] = ev.Request.Method
		p.mu.Unlock()
	case *network.EventResponseReceived:
		p.mu.Lock()
		resp := entities.NetworkResponse{
			URL:    ev.Response.URL,
			Method: p.methods[ev.RequestID],
			Status: int(ev.Response.Status),
		}
		delete(p.methods, ev.RequestID)
		for _, w := range p.waiters {
			if w.match(resp) {
				select {
				case w.ch <- resp:
				default:
				}
			}
		}
		p.mu.Unlock()
	case *cdppage.EventDomContentEventFired:
		p.mu.Lock()
		if p.loaded != nil {
			close(p.loaded)
			p.loaded = nil
		}
		p.mu.Unlock()
	case *runtime.EventExceptionThrown:
		details := ev.ExceptionDetails
		message := details.Text
		if details.Exception != nil && details.Exception.Description != "" {
			message = details.Exception.Description
		}
		p.mu.Lock()
		handlers := append([]interfaces.PageErrorHandler(nil), p.handlers...)
		p.mu.Unlock()
		for _, h := range handlers {
			h(message, details.URL)
		}
	}
}

// Query - element handles live in queryObjectGroup until the next navigation
func (p *chromedpPage) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, strconv.Quote(selector))
	var props []*runtime.PropertyDescriptor
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		list, exp, err := runtime.Evaluate(expr).WithObjectGroup(queryObjectGroup).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		if list == nil || list.ObjectID == "" {
			return nil
		}
		// the array itself is not needed once its items are read
		defer func() {
			if err := runtime.ReleaseObject(list.ObjectID).Do(ctx); err != nil {
				p.logger.Debugf("release query result: %v", err)
			}
		}()
		props, _, _, exp, err = runtime.GetProperties(list.ObjectID).WithOwnProperties(true).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	type indexed struct {
		i  int
		id runtime.RemoteObjectID
	}
	var nodes []indexed
	for _, prop := range props {
		i, err := strconv.Atoi(prop.Name)
		if err != nil || prop.Value == nil || prop.Value.ObjectID == "" {
			continue
		}
		nodes = append(nodes, indexed{i: i, id: prop.Value.ObjectID})
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].i < nodes[b].i })

	els := make([]interfaces.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromedpElement{page: p, id: n.id})
	}
	return els, nil
}

// Goto - navigates and waits for DOMContentLoaded of the new document
func (p *chromedpPage) Goto(ctx context.Context, url string) error {
	loaded := make(chan struct{})
	p.mu.Lock()
	p.loaded = loaded
	p.mu.Unlock()

	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := runtime.ReleaseObjectGroup(queryObjectGroup).Do(ctx); err != nil {
			p.logger.Debugf("release element handles: %v", err)
		}
		_, _, errorText, _, err := cdppage.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("page load error %s", errorText)
		}
		return nil
	}))
	if err != nil {
		return err
	}

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, chromedp.Location(&u))
	return u, err
}

func (p *chromedpPage) Evaluate(ctx context.Context, expression string) (any, error) {
	var res any
	err := p.run(ctx, chromedp.Evaluate(expression, &res))
	return res, err
}

// ExpectResponse - the waiter is registered before trigger runs so a fast response is never missed
func (p *chromedpPage) ExpectResponse(ctx context.Context, match interfaces.ResponseMatcher, trigger func(context.Context) error) (*entities.NetworkResponse, error) {
	ch := make(chan entities.NetworkResponse, 1)
	p.mu.Lock()
	id := p.nextWaiter
	p.nextWaiter++
	p.waiters[id] = responseWaiter{match: match, ch: ch}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.waiters, id)
		p.mu.Unlock()
	}()

	if err := trigger(ctx); err != nil {
		return nil, err
	}
	select {
	case resp := <-ch:
		return &resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *chromedpPage) BlockRequests(ctx context.Context, patterns []string) error {
	urls := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		urls = append(urls, globToBlockedURL(pattern))
	}
	return p.run(ctx, network.SetBlockedURLs(urls))
}

func (p *chromedpPage) SetViewport(ctx context.Context, viewport entities.Viewport) error {
	return p.run(ctx, chromedp.EmulateViewport(int64(viewport.Width), int64(viewport.Height)))
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (p *chromedpPage) OnPageError(handler interfaces.PageErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.tabCtx)
	p.tabCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}

type chromedpElement struct {
	page *chromedpPage
	id   runtime.RemoteObjectID
}

// call invokes an element script with the element bound as its first argument
func (e *chromedpElement) call(ctx context.Context, script string, res any, args ...any) error {
	decl := fmt.Sprintf(`function(arg) { return (%s)(this, arg); }`, script)
	return e.page.run(ctx, chromedp.CallFunctionOn(decl, res,
		func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(e.id)
		}, args...))
}

func (e *chromedpElement) Closest(ctx context.Context, selector string) (bool, error) {
	var ok bool
	err := e.call(ctx, jsClosest, &ok, selector)
	return ok, err
}

func (e *chromedpElement) Classes(ctx context.Context) (entities.ClassList, error) {
	var s string
	if err := e.call(ctx, jsClassName, &s); err != nil {
		return entities.ClassList{}, err
	}
	return entities.ParseClassList(s), nil
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var vals []string
	if err := e.call(ctx, jsAttribute, &vals, name); err != nil {
		return "", false, err
	}
	v, ok := attributeResult(vals)
	return v, ok, nil
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var s string
	err := e.call(ctx, jsText, &s)
	return s, err
}

func (e *chromedpElement) Visible(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, jsVisible, &ok)
	return ok, err
}

func (e *chromedpElement) ScrollIntoView(ctx context.Context) error {
	return e.call(ctx, jsScrollIntoView, nil)
}

// Click - a normal click dispatches real mouse events at the element center and
// can be intercepted by overlays; a forced click calls click() on the element
func (e *chromedpElement) Click(ctx context.Context, mode entities.ClickMode) error {
	if mode == entities.ClickForced {
		return e.call(ctx, jsForceClick, nil)
	}
	var center any
	if err := e.call(ctx, jsCenter, &center); err != nil {
		return err
	}
	x, y, err := centerResult(center)
	if err != nil {
		return err
	}
	return e.page.run(ctx, chromedp.MouseClickXY(x, y))
}

func (e *chromedpElement) Fill(ctx context.Context, value string) error {
	return e.call(ctx, jsFill, nil, value)
}

func (e *chromedpElement) Remove(ctx context.Context) error {
	return e.call(ctx, jsRemove, nil)
}
