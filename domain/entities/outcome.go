package entities

import "fmt"

// OutcomeKind represents how an interaction attempt was confirmed
type OutcomeKind int

const (
	OutcomeUnconfirmed OutcomeKind = iota
	OutcomeNetworkConfirmed
	OutcomeDOMConfirmed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNetworkConfirmed:
		return "network_confirmed"
	case OutcomeDOMConfirmed:
		return "dom_confirmed"
	default:
		return "unconfirmed"
	}
}

// MarshalText keeps reports readable
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "network_confirmed":
		*k = OutcomeNetworkConfirmed
	case "dom_confirmed":
		*k = OutcomeDOMConfirmed
	case "unconfirmed":
		*k = OutcomeUnconfirmed
	default:
		return fmt.Errorf("unknown outcome kind %q", text)
	}
	return nil
}

// NetworkResponse is the part of an observed HTTP response the helpers care about
type NetworkResponse struct {
	URL    string `json:"url"`
	Method string `json:"method,omitempty"`
	Status int    `json:"status"`
}

// Outcome is the tagged result of one interaction attempt
type Outcome struct {
	Kind      OutcomeKind      `json:"kind"`
	Attempt   int              `json:"attempt"`
	ClickMode ClickMode        `json:"click_mode"`
	Response  *NetworkResponse `json:"response,omitempty"`
	Cause     string           `json:"cause,omitempty"`
}

// Confirmed reports whether the attempt was confirmed by any signal
func (o Outcome) Confirmed() bool {
	return o.Kind != OutcomeUnconfirmed
}

func (o Outcome) String() string {
	s := fmt.Sprintf("attempt %d (%s): %s", o.Attempt, o.ClickMode, o.Kind)
	if o.Response != nil {
		s += fmt.Sprintf(" [%d %s]", o.Response.Status, o.Response.URL)
	}
	if o.Cause != "" {
		s += ": " + o.Cause
	}
	return s
}
