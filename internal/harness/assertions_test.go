package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

func sampleResult() *Result {
	left := trace.New()
	left.AddPhase("plan").Operation("aws_instance.foo").Append(&trace.ProviderCall{
		Method:          "/plugin.Provider/ApplyResourceChange",
		RequestPayload:  trace.Object{},
		ResponsePayload: trace.Object{"status": trace.String("ok")},
	})
	right := trace.New()
	right.AddPhase("plan")

	r := NewResult()
	r.Left = left
	r.Right = right
	r.Diffs = []compare.Diff{
		{
			Kind: compare.Modified,
			Path: compare.Path{"phase", "plan", "resource", "aws_instance.foo", "events", "0", "response_payload", "status"},
			Old:  trace.String("ok"),
			New:  trace.String("failed"),
		},
		{
			Kind: compare.Added,
			Path: compare.Path{"phase", "plan", "resource", "aws_instance.foo", "events", "0", "response_payload", "retries"},
			New:  trace.Number("3"),
		},
	}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	statusPath := "phase.plan.resource.aws_instance.foo.events.0.response_payload.status"

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{name: "count all", assertion: Assertion{Type: AssertDiffCount, Count: intPtr(2)}},
		{name: "count kind", assertion: Assertion{Type: AssertDiffCount, Kind: "added", Count: intPtr(1)}},
		{
			name:      "count mismatch",
			assertion: Assertion{Type: AssertDiffCount, Kind: "removed", Count: intPtr(1)},
			wantErr:   "Actual: 0 removed diffs",
		},
		{name: "contains path", assertion: Assertion{Type: AssertDiffContains, Path: statusPath}},
		{
			name:      "contains with values",
			assertion: Assertion{Type: AssertDiffContains, Kind: "modified", Path: statusPath, Old: "ok", New: "failed"},
		},
		{
			name: "contains numeric value",
			assertion: Assertion{
				Type: AssertDiffContains,
				Path: "phase.plan.resource.aws_instance.foo.events.0.response_payload.retries",
				New:  3,
			},
		},
		{
			name:      "contains wrong value",
			assertion: Assertion{Type: AssertDiffContains, Path: statusPath, New: "ok"},
			wantErr:   `Expected: ` + statusPath + ` (* -> "ok")`,
		},
		{
			name:      "contains wrong kind",
			assertion: Assertion{Type: AssertDiffContains, Kind: "added", Path: statusPath},
			wantErr:   "no matching diff",
		},
		{
			name:      "no diffs",
			assertion: Assertion{Type: AssertNoDiffs},
			wantErr:   "Actual: 2 diffs",
		},
		{name: "phase present", assertion: Assertion{Type: AssertPhasePresent, Side: SideRight, Phase: "plan"}},
		{
			name:      "phase missing",
			assertion: Assertion{Type: AssertPhasePresent, Side: SideLeft, Phase: "apply"},
			wantErr:   "phases [plan]",
		},
		{name: "event count", assertion: Assertion{Type: AssertEventCount, Side: SideLeft, Count: intPtr(1)}},
		{
			name:      "event count mismatch",
			assertion: Assertion{Type: AssertEventCount, Side: SideRight, Count: intPtr(1)},
			wantErr:   "Actual: 0 events",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "bogus"},
			wantErr:   "unknown assertion type: bogus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertionError_ListsDiffs(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNoDiffs,
		Expected: "no differences",
		Actual:   "2 diffs",
		Diffs:    sampleResult().Diffs,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: no_diffs")
	assert.Contains(t, msg, "[1] modified phase.plan.resource.aws_instance.foo.events.0.response_payload.status")
	assert.Contains(t, msg, "[2] added phase.plan.resource.aws_instance.foo.events.0.response_payload.retries")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
