package entities

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// DrawerState is a class marker the cart panel passes through while opening
type DrawerState string

const (
	DrawerOpening DrawerState = "opening"
	DrawerAnimate DrawerState = "animate"
	DrawerActive  DrawerState = "active"
)

// openStates are the markers that count as "open". The bare opening marker is
// set before the slide starts, so it is not enough on its own.
var openStates = mapset.NewSet(DrawerAnimate, DrawerActive)

// ClassList is the set of classes currently on an element
type ClassList struct {
	set mapset.Set[string]
}

// NewClassList builds a class list from individual class names
func NewClassList(classes ...string) ClassList {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			set.Add(c)
		}
	}
	return ClassList{set: set}
}

// ParseClassList parses a class attribute value
func ParseClassList(attr string) ClassList {
	return NewClassList(strings.Fields(attr)...)
}

// Has reports whether the class is present
func (c ClassList) Has(class string) bool {
	if c.set == nil {
		return false
	}
	return c.set.ContainsOne(class)
}

// States returns the drawer markers present in the list
func (c ClassList) States() mapset.Set[DrawerState] {
	states := mapset.NewThreadUnsafeSet[DrawerState]()
	for _, s := range []DrawerState{DrawerOpening, DrawerAnimate, DrawerActive} {
		if c.Has(string(s)) {
			states.Add(s)
		}
	}
	return states
}

func (c ClassList) String() string {
	if c.set == nil {
		return ""
	}
	return strings.Join(mapset.Sorted(c.set), " ")
}

// IsDrawerOpen is the permissive predicate: any open marker is present
func IsDrawerOpen(c ClassList) bool {
	return c.States().ContainsAny(openStates.ToSlice()...)
}

// IsDrawerReady is the settled predicate: active and no longer opening
func IsDrawerReady(c ClassList) bool {
	states := c.States()
	return states.ContainsOne(DrawerActive) && !states.ContainsOne(DrawerOpening)
}
