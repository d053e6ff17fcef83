package models

import "time"

// ScenarioStatus is the outcome of one scenario
type ScenarioStatus string

const (
	StatusPassed  ScenarioStatus = "passed"
	StatusFailed  ScenarioStatus = "failed"
	StatusSkipped ScenarioStatus = "skipped"
)

// ScenarioResult records a single scenario execution
type ScenarioResult struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      ScenarioStatus  `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration_ns"`
	Error       string          `json:"error,omitempty"`
	Screenshot  string          `json:"screenshot,omitempty"` // Path to failure screenshot
	HTML        string          `json:"html,omitempty"`       // Path to failure HTML snapshot
	Events      []BrowserEvent  `json:"events,omitempty"`
	Selectors   []SelectorMatch `json:"selectors,omitempty"`
}

// Passed reports whether the scenario passed
func (r *ScenarioResult) Passed() bool {
	return r.Status == StatusPassed
}

// RunReport aggregates the results of one suite run
type RunReport struct {
	RunID       string           `json:"run_id"`
	Environment string           `json:"environment"`
	Engine      string           `json:"engine"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Results     []ScenarioResult `json:"results"`
	ResultsDir  string           `json:"results_dir"`
}

// Counts returns the number of passed, failed and skipped scenarios
func (r *RunReport) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Success returns true when no scenario failed
func (r *RunReport) Success() bool {
	_, failed, _ := r.Counts()
	return failed == 0
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
