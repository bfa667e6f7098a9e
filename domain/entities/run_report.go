package entities

import "time"

// RunReport groups the results of one suite run
type RunReport struct {
	ID         string           `json:"id"`
	BaseURL    string           `json:"base_url"`
	Driver     string           `json:"driver"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
}

// Count returns the number of results with the given status
func (r *RunReport) Count(status ScenarioStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any scenario failed
func (r *RunReport) Failed() bool {
	return r.Count(ScenarioFailed) > 0
}
