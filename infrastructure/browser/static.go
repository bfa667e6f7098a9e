package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// StaticDocument is a parsed HTML snapshot that answers selector queries
// without a browser. Scripts never run, so it reflects server-rendered markup only.
type StaticDocument struct {
	mu   sync.Mutex
	root *html.Node
	url  string
}

// ParseHTML - parses an HTML document
func ParseHTML(r io.Reader) (*StaticDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &StaticDocument{root: root}, nil
}

// FetchDocument - downloads url and parses the response body
func FetchDocument(ctx context.Context, client *http.Client, url string) (*StaticDocument, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	doc, err := ParseHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	doc.url = resp.Request.URL.String()
	return doc, nil
}

// URL returns the final URL the document was fetched from
func (d *StaticDocument) URL() string {
	return d.url
}

// Title returns the text of the title element
func (d *StaticDocument) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := cascadia.Query(d.root, cascadia.MustCompile("title")); n != nil {
		return strings.TrimSpace(textContent(n))
	}
	return ""
}

// Render serializes the current tree
func (d *StaticDocument) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (d *StaticDocument) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := sel.MatchAll(d.root)
	els := make([]interfaces.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &staticElement{doc: d, node: n})
	}
	return els, nil
}

type staticElement struct {
	doc  *StaticDocument
	node *html.Node
}

func (e *staticElement) Closest(ctx context.Context, selector string) (bool, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return true, nil
		}
	}
	return false, nil
}

func (e *staticElement) Classes(ctx context.Context) (entities.ClassList, error) {
	value, _, err := e.Attribute(ctx, "class")
	return entities.ParseClassList(value), err
}

func (e *staticElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	value, ok := attr(e.node, name)
	return value, ok, nil
}

func (e *staticElement) Text(ctx context.Context) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return textContent(e.node), nil
}

// Visible - attached to the document and not hidden by attribute or inline style
func (e *staticElement) Visible(ctx context.Context) (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var n *html.Node
	for n = e.node; n != nil && n != e.doc.root; n = n.Parent {
		if _, hidden := attr(n, "hidden"); hidden {
			return false, nil
		}
		style, _ := attr(n, "style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
	}
	return n == e.doc.root, nil
}

func (e *staticElement) ScrollIntoView(ctx context.Context) error {
	return nil
}

func (e *staticElement) Click(ctx context.Context, mode entities.ClickMode) error {
	return fmt.Errorf("click on static document: %w", ErrUnsupported)
}

// Fill sets the value attribute
func (e *staticElement) Fill(ctx context.Context, value string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for i, a := range e.node.Attr {
		if a.Key == "value" {
			e.node.Attr[i].Val = value
			return nil
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: "value", Val: value})
	return nil
}

func (e *staticElement) Remove(ctx context.Context) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
