package entities

import "time"

// Scenario describes one storefront check
type Scenario struct {
	ID          string   `json:"id"`
	Group       string   `json:"group"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Viewport    Viewport `json:"viewport"`
	// EmptyCart asks the runner to clear the remote cart first
	EmptyCart bool `json:"empty_cart,omitempty"`
}

// ScenarioStatus represents the status of a scenario
type ScenarioStatus string

const (
	ScenarioPending ScenarioStatus = "pending"
	ScenarioRunning ScenarioStatus = "running"
	ScenarioPassed  ScenarioStatus = "passed"
	ScenarioFailed  ScenarioStatus = "failed"
	ScenarioSkipped ScenarioStatus = "skipped"
)

// ScenarioResult is the recorded result of a scenario run
type ScenarioResult struct {
	ScenarioID    string         `json:"scenario_id"`
	Status        ScenarioStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	Duration      time.Duration  `json:"duration"`
	Error         string         `json:"error,omitempty"`
	Outcomes      []Outcome      `json:"outcomes,omitempty"`
	IgnoredErrors []string       `json:"ignored_errors,omitempty"`
	PageErrors    []string       `json:"page_errors,omitempty"`
	Steps         []StepRecord   `json:"steps,omitempty"`
	Screenshot    string         `json:"screenshot,omitempty"`
}
