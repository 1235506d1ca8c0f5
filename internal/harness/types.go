package harness

import (
	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/parser"
	"github.com/roach88/tftrace/internal/trace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Diffs is the comparison output, in traversal order.
	Diffs []compare.Diff `json:"diffs"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// LeftStats and RightStats report what each parser absorbed.
	LeftStats  parser.Stats `json:"left_stats"`
	RightStats parser.Stats `json:"right_stats"`

	Left  *trace.Trace `json:"-"`
	Right *trace.Trace `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Diffs:  []compare.Diff{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Side returns the trace for SideLeft or SideRight.
func (r *Result) Side(side string) *trace.Trace {
	if side == SideLeft {
		return r.Left
	}
	return r.Right
}
