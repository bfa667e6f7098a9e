package storefronttest

import (
	"context"
	"sync"

	"storefront_e2e/domain/entities"
)

// Element is a scriptable interfaces.Element
type Element struct {
	mu sync.Mutex

	text   string
	attrs  map[string]string
	hidden bool
	within []string

	classSeq   []string
	classReads int

	disabledReads int
	attrReads     int

	onClick         func(entities.ClickMode) error
	clicks          []entities.ClickMode
	clickedDisabled bool

	value   string
	removed bool
}

// NewElement returns a visible, enabled element
func NewElement() *Element {
	return &Element{attrs: make(map[string]string)}
}

// WithText sets the text content
func (e *Element) WithText(text string) *Element {
	e.text = text
	return e
}

// WithAttr sets an attribute
func (e *Element) WithAttr(name, value string) *Element {
	e.attrs[name] = value
	return e
}

// Hidden makes the element invisible
func (e *Element) Hidden() *Element {
	e.hidden = true
	return e
}

// Within lists selectors matched by the element or one of its ancestors
func (e *Element) Within(selectors ...string) *Element {
	e.within = append(e.within, selectors...)
	return e
}

// DisabledFor keeps the disabled attribute present for the first n reads
func (e *Element) DisabledFor(n int) *Element {
	e.disabledReads = n
	return e
}

// OnClick runs fn on every click
func (e *Element) OnClick(fn func(entities.ClickMode) error) *Element {
	e.onClick = fn
	return e
}

// WithClasses sets the class list sequence; each read advances one step and
// the last step repeats
func (e *Element) WithClasses(seq ...string) *Element {
	e.SetClasses(seq...)
	return e
}

// SetClasses restarts the class list sequence
func (e *Element) SetClasses(seq ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classSeq = append([]string(nil), seq...)
	e.classReads = 0
}

func (e *Element) Closest(_ context.Context, selector string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.within {
		if s == selector {
			return true, nil
		}
	}
	return false, nil
}

func (e *Element) Classes(context.Context) (entities.ClassList, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.classSeq) == 0 {
		return entities.NewClassList(), nil
	}
	i := e.classReads
	if i >= len(e.classSeq) {
		i = len(e.classSeq) - 1
	}
	e.classReads++
	return entities.ParseClassList(e.classSeq[i]), nil
}

func (e *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "disabled" {
		e.attrReads++
		if e.attrReads <= e.disabledReads {
			return "", true, nil
		}
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *Element) Text(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) Visible(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.hidden && !e.removed, nil
}

func (e *Element) ScrollIntoView(context.Context) error { return nil }

func (e *Element) Click(_ context.Context, mode entities.ClickMode) error {
	e.mu.Lock()
	e.clicks = append(e.clicks, mode)
	if e.disabledReads > 0 && e.attrReads <= e.disabledReads {
		e.clickedDisabled = true
	}
	fn := e.onClick
	e.mu.Unlock()
	if fn != nil {
		return fn(mode)
	}
	return nil
}

func (e *Element) Fill(_ context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = value
	return nil
}

func (e *Element) Remove(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
	return nil
}

// Clicks returns the click modes received so far
func (e *Element) Clicks() []entities.ClickMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.ClickMode(nil), e.clicks...)
}

// ClickedWhileDisabled reports whether any click arrived before enablement
func (e *Element) ClickedWhileDisabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clickedDisabled
}

// ClassReads returns how many times the class list was read
func (e *Element) ClassReads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classReads
}

// Value returns the last filled value
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Removed reports whether the element was removed
func (e *Element) Removed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

// Hide toggles visibility
func (e *Element) Hide(hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = hidden
}
