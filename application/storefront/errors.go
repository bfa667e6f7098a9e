package storefront

import (
	"errors"
	"fmt"
	"strings"

	"storefront_e2e/domain/entities"
)

var (
	// ErrElementNotFound - no locator of a selector set matched in time
	ErrElementNotFound = errors.New("element not found")
	// ErrNotReady - an element or page never reached the required state
	ErrNotReady = errors.New("not ready")
	// ErrDrawerTimeout - the cart panel never reached the awaited state
	ErrDrawerTimeout = errors.New("cart drawer state timeout")
	// ErrNotConfirmed - an interaction was never confirmed within its retry bound
	ErrNotConfirmed = errors.New("interaction not confirmed")
)

// ConfirmationError is returned when every attempt of a confirmed interaction failed
type ConfirmationError struct {
	Action   string
	Attempts int
	Outcomes []entities.Outcome
	Cause    error
}

func (e *ConfirmationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: not confirmed after %d attempts", e.Action, e.Attempts)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ConfirmationError) Is(target error) bool {
	return target == ErrNotConfirmed
}

func (e *ConfirmationError) Unwrap() error {
	return e.Cause
}
