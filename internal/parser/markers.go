package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// PhaseAction is what a phase marker does to the parse state.
type PhaseAction string

const (
	// PhaseOpen appends a new phase and makes it current.
	PhaseOpen PhaseAction = "open"

	// PhaseClose detaches the current phase and resource.
	PhaseClose PhaseAction = "close"

	// PhaseNone recognizes a marker without changing state.
	PhaseNone PhaseAction = "none"
)

// PhaseMarker maps a message substring to a phase transition.
// Matching is case-insensitive.
type PhaseMarker struct {
	Match  string
	Action PhaseAction
	Phase  string // required for PhaseOpen
}

// Validate checks that the marker is usable.
func (m PhaseMarker) Validate() error {
	if strings.TrimSpace(m.Match) == "" {
		return errors.New("match is required")
	}
	switch m.Action {
	case PhaseOpen:
		if m.Phase == "" {
			return fmt.Errorf("marker %q: phase is required for action %q", m.Match, m.Action)
		}
	case PhaseClose, PhaseNone:
	default:
		return fmt.Errorf("marker %q: unknown action %q (want open, close or none)", m.Match, m.Action)
	}
	return nil
}

// DefaultPhaseMarkers returns the built-in transition table.
//
// "starting apply" is not emitted by every tool version; when it is absent,
// resource activity after planning stays attributed to the plan phase.
func DefaultPhaseMarkers() []PhaseMarker {
	return []PhaseMarker{
		{Match: "starting plan", Action: PhaseOpen, Phase: "plan"},
		{Match: "starting apply", Action: PhaseOpen, Phase: "apply"},
		{Match: "Terraform will perform the following actions:", Action: PhaseNone},
		{Match: "Apply complete!", Action: PhaseClose},
	}
}

type phaseTable struct {
	markers []PhaseMarker
	folded  []string
}

func newPhaseTable(markers []PhaseMarker) phaseTable {
	t := phaseTable{markers: markers, folded: make([]string, len(markers))}
	for i, m := range markers {
		t.folded[i] = strings.ToLower(m.Match)
	}
	return t
}

// lookup returns the first marker contained in message, ignoring case:
// Terraform capitalizes the operation ("starting Plan operation").
func (t phaseTable) lookup(message string) (PhaseMarker, bool) {
	lower := strings.ToLower(message)
	for i, m := range t.markers {
		if strings.Contains(lower, t.folded[i]) {
			return m, true
		}
	}
	return PhaseMarker{}, false
}

// ResourceMarker recognizes a resource-operation start in a core log message.
// The pattern must have a named group "address".
type ResourceMarker struct {
	pattern *regexp.Regexp
	idx     int
}

// NewResourceMarker compiles a resource marker pattern.
func NewResourceMarker(pattern string) (ResourceMarker, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ResourceMarker{}, fmt.Errorf("compile resource marker: %w", err)
	}
	idx := re.SubexpIndex("address")
	if idx < 0 {
		return ResourceMarker{}, fmt.Errorf("resource marker %q has no (?P<address>...) group", pattern)
	}
	return ResourceMarker{pattern: re, idx: idx}, nil
}

// MustResourceMarker is NewResourceMarker that panics on error.
func MustResourceMarker(pattern string) ResourceMarker {
	m, err := NewResourceMarker(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the resource address in message, if any.
func (m ResourceMarker) Find(message string) (string, bool) {
	match := m.pattern.FindStringSubmatch(message)
	if match == nil || match[m.idx] == "" {
		return "", false
	}
	return match[m.idx], true
}

// String returns the source pattern.
func (m ResourceMarker) String() string {
	return m.pattern.String()
}

// DefaultResourceMarkers returns the built-in resource start markers.
func DefaultResourceMarkers() []ResourceMarker {
	return []ResourceMarker{
		MustResourceMarker(`Applied resource "(?P<address>[^"]+)"`),
	}
}
