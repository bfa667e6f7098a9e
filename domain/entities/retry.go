package entities

import (
	"fmt"
	"time"
)

// ClickMode represents how a click is dispatched
type ClickMode int

const (
	ClickNormal ClickMode = iota
	// ClickForced skips actionability checks so overlays cannot intercept the click
	ClickForced
)

func (m ClickMode) String() string {
	if m == ClickForced {
		return "forced"
	}
	return "normal"
}

// MarshalText keeps reports readable
func (m ClickMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ClickMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*m = ClickNormal
	case "forced":
		*m = ClickForced
	default:
		return fmt.Errorf("unknown click mode %q", text)
	}
	return nil
}

// RetryPolicy bounds the attempts of a confirmed interaction
type RetryPolicy struct {
	MaxAttempts int `json:"max_attempts" toml:"max_attempts"`
	// ForceFrom is the zero-based attempt from which clicks are forced
	ForceFrom int           `json:"force_from" toml:"force_from"`
	Backoff   time.Duration `json:"backoff" toml:"backoff"`
}

// DefaultRetryPolicy - three attempts, forced clicks on retries
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		ForceFrom:   1,
		Backoff:     time.Second,
	}
}

// Attempts returns the attempt bound, never less than one
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ClickModeFor returns the click mode for a zero-based attempt
func (p RetryPolicy) ClickModeFor(attempt int) ClickMode {
	if p.ForceFrom >= 0 && attempt >= p.ForceFrom {
		return ClickForced
	}
	return ClickNormal
}
