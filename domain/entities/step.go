package entities

import "time"

// StepKind represents the type of step a scenario performs
type StepKind string

const (
	StepNavigate StepKind = "navigate"
	StepClick    StepKind = "click"
	StepSuppress StepKind = "suppress"
	StepWait     StepKind = "wait"
	StepAssert   StepKind = "assert"
	StepCart     StepKind = "cart"
)

// StepRecord is one executed scenario step
type StepRecord struct {
	Kind        StepKind      `json:"kind"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}
