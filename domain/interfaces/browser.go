package interfaces

import (
	"context"

	"storefront_e2e/domain/entities"
)

// Document is the queryable DOM of a page
type Document interface {
	// Query returns all elements matching a CSS selector.
	// An invalid selector is reported as an error.
	Query(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to a single DOM element
type Element interface {
	// Closest reports whether the element or one of its ancestors matches selector
	Closest(ctx context.Context, selector string) (bool, error)

	// Classes returns the element class list
	Classes(ctx context.Context) (entities.ClassList, error)

	// Attribute returns an attribute value and whether it is present
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Text returns the element text content
	Text(ctx context.Context) (string, error)

	// Visible reports whether the element is rendered and not hidden
	Visible(ctx context.Context) (bool, error)

	// ScrollIntoView scrolls the element into the viewport if needed
	ScrollIntoView(ctx context.Context) error

	// Click clicks the element; ClickForced bypasses actionability checks
	Click(ctx context.Context, mode entities.ClickMode) error

	// Fill replaces the value of an input element
	Fill(ctx context.Context, value string) error

	// Remove detaches the element from the document
	Remove(ctx context.Context) error
}

// ResponseMatcher selects the network response an interaction waits for
type ResponseMatcher func(entities.NetworkResponse) bool

// PageErrorHandler receives uncaught script errors raised by the page
type PageErrorHandler func(message, source string)

// Page is a browser tab driven by one of the automation backends
type Page interface {
	Document

	// Goto navigates to an absolute URL and returns once the DOM is parsed
	Goto(ctx context.Context, url string) error

	// URL returns the current page URL
	URL(ctx context.Context) (string, error)

	// Evaluate evaluates a JavaScript expression and returns its JSON value
	Evaluate(ctx context.Context, expression string) (any, error)

	// ExpectResponse runs trigger and waits for a response accepted by match.
	// The observer is registered before trigger runs.
	ExpectResponse(ctx context.Context, match ResponseMatcher, trigger func(context.Context) error) (*entities.NetworkResponse, error)

	// BlockRequests aborts requests whose URL matches any of the glob patterns
	BlockRequests(ctx context.Context, patterns []string) error

	// SetViewport resizes the page
	SetViewport(ctx context.Context, viewport entities.Viewport) error

	// Screenshot captures the visible viewport as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// OnPageError registers a handler for uncaught page script errors
	OnPageError(handler PageErrorHandler)

	// Close closes the page and releases driver resources
	Close() error
}

// PageErrorFlusher is implemented by pages that collect script errors in the
// page and deliver them to the handlers only when asked
type PageErrorFlusher interface {
	FlushPageErrors()
}

// Browser opens pages
type Browser interface {
	// NewPage opens a fresh page with an isolated session
	NewPage(ctx context.Context) (Page, error)

	// Name returns the driver name
	Name() string

	// Close closes the browser
	Close() error
}
