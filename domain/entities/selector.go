package entities

import (
	"fmt"
	"strings"
)

// LocatorKind represents the strategy used to find an element
type LocatorKind string

const (
	LocatorCSS  LocatorKind = "css"
	LocatorText LocatorKind = "text"
)

// Locator is a single way of finding a UI target.
// For LocatorText, Scope is a CSS selector and Pattern a case-insensitive
// regular expression matched against the element text.
type Locator struct {
	Kind    LocatorKind `json:"kind" toml:"kind"`
	Pattern string      `json:"pattern" toml:"pattern"`
	Scope   string      `json:"scope,omitempty" toml:"scope"`
}

// CSS returns a CSS locator
func CSS(selector string) Locator {
	return Locator{Kind: LocatorCSS, Pattern: selector}
}

// Text returns a locator matching elements of scope by their text
func Text(scope, pattern string) Locator {
	return Locator{Kind: LocatorText, Scope: scope, Pattern: pattern}
}

func (l Locator) String() string {
	if l.Kind == LocatorText {
		return fmt.Sprintf("%s:text(/%s/i)", l.Scope, l.Pattern)
	}
	return l.Pattern
}

// SelectorSet is an ordered fallback chain for one logical UI target.
// The first locator that matches wins.
type SelectorSet struct {
	Name     string    `json:"name"`
	Locators []Locator `json:"locators"`
}

// NewSelectorSet creates a named selector set
func NewSelectorSet(name string, locators ...Locator) SelectorSet {
	return SelectorSet{Name: name, Locators: locators}
}

// CSSSet creates a selector set made only of CSS locators
func CSSSet(name string, selectors ...string) SelectorSet {
	locators := make([]Locator, 0, len(selectors))
	for _, s := range selectors {
		locators = append(locators, CSS(s))
	}
	return SelectorSet{Name: name, Locators: locators}
}

// Empty reports whether the set has no locators
func (s SelectorSet) Empty() bool {
	return len(s.Locators) == 0
}

func (s SelectorSet) String() string {
	parts := make([]string, 0, len(s.Locators))
	for _, l := range s.Locators {
		parts = append(parts, l.String())
	}
	return s.Name + "[" + strings.Join(parts, ", ") + "]"
}
