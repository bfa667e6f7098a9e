// Package storefronttest provides scriptable in-memory pages for testing code
// built on the storefront helpers.
package storefronttest

import (
	"context"
	"regexp"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// Responder scripts the cart mutation response seen on the call-th ExpectResponse
type Responder func(call int) (*entities.NetworkResponse, error)

// RespondAfter fails the first n calls with a deadline and then answers with resp
func RespondAfter(n int, resp entities.NetworkResponse) Responder {
	return func(call int) (*entities.NetworkResponse, error) {
		if call < n {
			return nil, context.DeadlineExceeded
		}
		r := resp
		return &r, nil
	}
}

// OK is a successful cart mutation response
func OK(url string) entities.NetworkResponse {
	return entities.NetworkResponse{URL: url, Method: "POST", Status: 200}
}

var customElementRe = regexp.MustCompile(`customElements\.get\("([^"]+)"\)`)

// Page is an in-memory interfaces.Page
type Page struct {
	mu sync.Mutex

	elements    map[string][]*Element
	queryErrors map[string]error
	defined     mapset.Set[string]

	readyState string
	url        string
	visits     []string
	blocked    []string
	viewport   entities.Viewport
	gotoErr    error

	responder   Responder
	expectCalls int
	matched     []entities.NetworkResponse

	pageErrors []interfaces.PageErrorHandler
	queued     [][2]string
	closed     bool
}

// NewPage returns an empty page in the complete ready state
func NewPage() *Page {
	return &Page{
		elements:    make(map[string][]*Element),
		queryErrors: make(map[string]error),
		defined:     mapset.NewSet[string](),
		readyState:  "complete",
	}
}

// Add registers elements under a selector
func (p *Page) Add(selector string, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], els...)
	return p
}

// FailQuery makes every query of selector return err
func (p *Page) FailQuery(selector string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queryErrors[selector] = err
	return p
}

// Define registers custom element names
func (p *Page) Define(names ...string) *Page {
	p.defined.Append(names...)
	return p
}

// SetReadyState sets the value reported for document.readyState
func (p *Page) SetReadyState(state string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readyState = state
	return p
}

// SetURL sets the current URL
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// FailGoto makes navigation fail with err
func (p *Page) FailGoto(err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoErr = err
	return p
}

// Respond installs the cart mutation responder
func (p *Page) Respond(r Responder) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responder = r
	return p
}

// Query implements interfaces.Document
func (p *Page) Query(_ context.Context, selector string) ([]interfaces.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.queryErrors[selector]; ok {
		return nil, err
	}
	var out []interfaces.Element
	for _, el := range p.elements[selector] {
		if !el.Removed() {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *Page) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.url = url
	p.visits = append(p.visits, url)
	return nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// Evaluate answers the readiness probes the helpers issue; anything else evaluates to nil
func (p *Page) Evaluate(_ context.Context, expression string) (any, error) {
	if m := customElementRe.FindStringSubmatch(expression); m != nil {
		return p.defined.Contains(m[1]), nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if strings.TrimSpace(expression) == "document.readyState" {
		return p.readyState, nil
	}
	return nil, nil
}

// ExpectResponse runs trigger and then consults the responder. Responses the
// matcher rejects are treated as never arriving.
func (p *Page) ExpectResponse(ctx context.Context, match interfaces.ResponseMatcher, trigger func(context.Context) error) (*entities.NetworkResponse, error) {
	if err := trigger(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	call := p.expectCalls
	p.expectCalls++
	responder := p.responder
	p.mu.Unlock()

	if responder == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	resp, err := responder(call)
	if err != nil {
		return nil, err
	}
	if resp == nil || !match(*resp) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p.mu.Lock()
	p.matched = append(p.matched, *resp)
	p.mu.Unlock()
	return resp, nil
}

func (p *Page) BlockRequests(_ context.Context, patterns []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked = append(p.blocked, patterns...)
	return nil
}

func (p *Page) SetViewport(_ context.Context, viewport entities.Viewport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = viewport
	return nil
}

func (p *Page) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (p *Page) OnPageError(handler interfaces.PageErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageErrors = append(p.pageErrors, handler)
}

// RaisePageError delivers an uncaught script error to the registered handlers
func (p *Page) RaisePageError(message, source string) {
	p.mu.Lock()
	handlers := append([]interfaces.PageErrorHandler(nil), p.pageErrors...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(message, source)
	}
}

// QueuePageError records an error that reaches the handlers only on FlushPageErrors
func (p *Page) QueuePageError(message, source string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued = append(p.queued, [2]string{message, source})
	return p
}

// FlushPageErrors delivers the queued errors
func (p *Page) FlushPageErrors() {
	p.mu.Lock()
	queued := p.queued
	p.queued = nil
	p.mu.Unlock()
	for _, e := range queued {
		p.RaisePageError(e[0], e[1])
	}
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Visits returns the navigated URLs
func (p *Page) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

// Blocked returns the request patterns that were blocked
func (p *Page) Blocked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.blocked...)
}

// Viewport returns the last viewport set
func (p *Page) Viewport() entities.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

// ExpectCalls returns how many times a response was awaited
func (p *Page) ExpectCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expectCalls
}

// Matched returns the responses delivered to a matching observer
func (p *Page) Matched() []entities.NetworkResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.NetworkResponse(nil), p.matched...)
}

// Closed reports whether Close was called
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Browser hands out pages built by a factory
type Browser struct {
	mu      sync.Mutex
	factory func() *Page
	pages   []*Page
	closed  bool
}

// NewBrowser returns a browser whose pages are built by factory
func NewBrowser(factory func() *Page) *Browser {
	return &Browser{factory: factory}
}

func (b *Browser) NewPage(context.Context) (interfaces.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.factory()
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *Browser) Name() string { return "fake" }

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Pages returns every page opened so far
func (b *Browser) Pages() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.pages...)
}
