package harness

import (
	"github.com/roach88/cqlsem/internal/plan"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every case passed.
	Pass bool `json:"pass"`

	// Cases holds one result per case, in scenario order.
	Cases []CaseResult `json:"cases"`
}

// NewResult creates a passing result with room for n cases.
func NewResult(name string, n int) *Result {
	return &Result{Scenario: name, Pass: true, Cases: make([]CaseResult, n)}
}

// Failed returns the cases that did not pass.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// Err is the analysis error, nil when analysis succeeded.
	Err error `json:"-"`

	// Plan is set when analysis succeeded.
	Plan *plan.Plan `json:"-"`

	// Errors lists the expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError records a mismatch and marks the case as failed.
func (c *CaseResult) AddError(msg string) {
	c.Errors = append(c.Errors, msg)
	c.Pass = false
}
