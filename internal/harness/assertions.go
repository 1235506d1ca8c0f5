package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes the full diff list to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Diffs    []compare.Diff // Full comparison output for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diffs) > 0 {
		fmt.Fprintf(&buf, "\nDiffs:\n")
		for i, d := range e.Diffs {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, d.Kind, d.Path)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertDiffCount:
		return assertDiffCount(result.Diffs, a)
	case AssertDiffContains:
		return assertDiffContains(result.Diffs, a)
	case AssertNoDiffs:
		return assertNoDiffs(result.Diffs)
	case AssertPhasePresent:
		return assertPhasePresent(result, a)
	case AssertEventCount:
		return assertEventCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertDiffCount checks the number of diffs, optionally of one kind.
func assertDiffCount(diffs []compare.Diff, a Assertion) error {
	count := 0
	for _, d := range diffs {
		if a.Kind == "" || string(d.Kind) == a.Kind {
			count++
		}
	}

	if count != *a.Count {
		what := "diffs"
		if a.Kind != "" {
			what = a.Kind + " diffs"
		}
		return &AssertionError{
			Type:     AssertDiffCount,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Diffs:    diffs,
		}
	}
	return nil
}

// assertDiffContains looks for a diff at the dotted path. Kind, old and new
// are checked only when given.
func assertDiffContains(diffs []compare.Diff, a Assertion) error {
	wantOld, err := expectedValue(a.Old)
	if err != nil {
		return fmt.Errorf("diff_contains: old: %w", err)
	}
	wantNew, err := expectedValue(a.New)
	if err != nil {
		return fmt.Errorf("diff_contains: new: %w", err)
	}

	for _, d := range diffs {
		if d.Path.String() != a.Path {
			continue
		}
		if a.Kind != "" && string(d.Kind) != a.Kind {
			continue
		}
		if wantOld != nil && (d.Old == nil || !trace.Equal(wantOld, d.Old)) {
			continue
		}
		if wantNew != nil && (d.New == nil || !trace.Equal(wantNew, d.New)) {
			continue
		}
		return nil
	}

	expected := a.Path
	if a.Kind != "" {
		expected = a.Kind + " " + expected
	}
	if wantOld != nil || wantNew != nil {
		expected += fmt.Sprintf(" (%s -> %s)", describe(wantOld), describe(wantNew))
	}
	return &AssertionError{
		Type:     AssertDiffContains,
		Expected: expected,
		Actual:   "no matching diff",
		Diffs:    diffs,
	}
}

func assertNoDiffs(diffs []compare.Diff) error {
	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoDiffs,
		Expected: "no differences",
		Actual:   fmt.Sprintf("%d diffs", len(diffs)),
		Diffs:    diffs,
	}
}

func assertPhasePresent(result *Result, a Assertion) error {
	t := result.Side(a.Side)
	if t.HasPhase(a.Phase) {
		return nil
	}

	names := make([]string, len(t.Phases))
	for i, p := range t.Phases {
		names[i] = p.Name
	}
	return &AssertionError{
		Type:     AssertPhasePresent,
		Expected: fmt.Sprintf("phase %q in %s trace", a.Phase, a.Side),
		Actual:   fmt.Sprintf("phases %v", names),
	}
}

func assertEventCount(result *Result, a Assertion) error {
	got := result.Side(a.Side).EventCount()
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d events in %s trace", *a.Count, a.Side),
		Actual:   fmt.Sprintf("%d events", got),
	}
}

// expectedValue converts a YAML-decoded value; nil means "not checked".
func expectedValue(v any) (trace.Value, error) {
	if v == nil {
		return nil, nil
	}
	return trace.FromNative(v)
}

func describe(v trace.Value) string {
	if v == nil {
		return "*"
	}
	return trace.CanonicalString(v)
}
