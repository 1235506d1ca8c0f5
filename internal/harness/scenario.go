package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tftrace/internal/compare"
)

// Scenario defines a drift scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Left and Right are log file paths, relative to the scenario file.
	Left  string `yaml:"left,omitempty"`
	Right string `yaml:"right,omitempty"`

	// LeftLog and RightLog hold log text inline instead of a path.
	LeftLog  string `yaml:"left_log,omitempty"`
	RightLog string `yaml:"right_log,omitempty"`

	// Ignore lists doublestar globs over slash-joined diff paths.
	Ignore []string `yaml:"ignore,omitempty"`

	// Assertions are evaluated against the comparison result.
	// Supported types: diff_count, diff_contains, no_diffs, phase_present, event_count
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the comparison result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "diff_count": exactly Count diffs (of Kind, when set)
	// - "diff_contains": a diff at Path (with Kind, Old, New when set)
	// - "no_diffs": the traces are equivalent
	// - "phase_present": Phase exists in the Side trace
	// - "event_count": the Side trace holds exactly Count events
	Type string `yaml:"type"`

	// Kind filters by diff kind (added, removed, modified).
	Kind string `yaml:"kind,omitempty"`

	// Path is the dotted diff path (used by diff_contains).
	Path string `yaml:"path,omitempty"`

	// Old and New are the expected values (used by diff_contains).
	Old any `yaml:"old,omitempty"`
	New any `yaml:"new,omitempty"`

	// Count is the expected number (used by diff_count, event_count).
	Count *int `yaml:"count,omitempty"`

	// Side selects "left" or "right" (used by phase_present, event_count).
	Side string `yaml:"side,omitempty"`

	// Phase is the phase name (used by phase_present).
	Phase string `yaml:"phase,omitempty"`
}

// Assertion type constants.
const (
	AssertDiffCount    = "diff_count"
	AssertDiffContains = "diff_contains"
	AssertNoDiffs      = "no_diffs"
	AssertPhasePresent = "phase_present"
	AssertEventCount   = "event_count"
)

// Trace sides.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative log paths are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&scenario.Left, &scenario.Right} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if err := validateSource("left", s.Left, s.LeftLog); err != nil {
		return err
	}
	if err := validateSource("right", s.Right, s.RightLog); err != nil {
		return err
	}

	for i, pattern := range s.Ignore {
		if err := compare.ValidatePattern(pattern); err != nil {
			return fmt.Errorf("ignore[%d]: %w", i, err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func validateSource(side, path, inline string) error {
	switch {
	case path == "" && inline == "":
		return fmt.Errorf("%s or %s_log is required", side, side)
	case path != "" && inline != "":
		return fmt.Errorf("%s and %s_log are mutually exclusive", side, side)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	if a.Kind != "" {
		if _, err := compare.ParseDiffKind(a.Kind); err != nil {
			return err
		}
	}

	switch a.Type {
	case AssertDiffCount:
		if a.Count == nil {
			return fmt.Errorf("count is required")
		}
	case AssertDiffContains:
		if a.Path == "" {
			return fmt.Errorf("path is required")
		}
	case AssertNoDiffs:
	case AssertPhasePresent:
		if a.Phase == "" {
			return fmt.Errorf("phase is required")
		}
		return validateSide(a.Side)
	case AssertEventCount:
		if a.Count == nil {
			return fmt.Errorf("count is required")
		}
		return validateSide(a.Side)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func validateSide(side string) error {
	if side != SideLeft && side != SideRight {
		return fmt.Errorf("side must be %q or %q, got %q", SideLeft, SideRight, side)
	}
	return nil
}
