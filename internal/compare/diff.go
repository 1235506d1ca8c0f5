package compare

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/tftrace/internal/trace"
)

// DiffKind classifies a Diff.
type DiffKind string

const (
	// Added means the value exists only in the second trace.
	Added DiffKind = "added"

	// Removed means the value exists only in the first trace.
	Removed DiffKind = "removed"

	// Modified means both traces have a value at the path and they differ.
	Modified DiffKind = "modified"
)

// ParseDiffKind converts a stored kind string back to a DiffKind.
func ParseDiffKind(s string) (DiffKind, error) {
	switch k := DiffKind(s); k {
	case Added, Removed, Modified:
		return k, nil
	default:
		return "", fmt.Errorf("unknown diff kind %q", s)
	}
}

// Path addresses a location in a trace, one segment per level.
type Path []string

// String joins the segments with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Slash joins the segments with slashes, the form ignore globs match against.
func (p Path) Slash() string {
	return strings.Join(p, "/")
}

// With returns a new path extended by segs. p is never modified.
func (p Path) With(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Diff is one semantic difference between two traces.
// Old is nil for Added; New is nil for Removed.
type Diff struct {
	Kind DiffKind
	Path Path
	Old  trace.Value
	New  trace.Value
}

// diffJSON is the serialized shape of a Diff.
type diffJSON struct {
	Type     DiffKind        `json:"type"`
	Path     []string        `json:"path"`
	OldValue json.RawMessage `json:"old_value"`
	NewValue json.RawMessage `json:"new_value"`
}

// MarshalJSON emits {"type","path","old_value","new_value"}; an absent value is null.
func (d Diff) MarshalJSON() ([]byte, error) {
	oldJSON, err := marshalOptional(d.Old)
	if err != nil {
		return nil, fmt.Errorf("old_value: %w", err)
	}
	newJSON, err := marshalOptional(d.New)
	if err != nil {
		return nil, fmt.Errorf("new_value: %w", err)
	}

	path := d.Path
	if path == nil {
		path = Path{}
	}
	return json.Marshal(diffJSON{
		Type:     d.Kind,
		Path:     path,
		OldValue: oldJSON,
		NewValue: newJSON,
	})
}

func marshalOptional(v trace.Value) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	return trace.MarshalCanonical(v)
}

// Invert returns the diff as seen from the other side: added becomes removed
// and old/new swap.
func (d Diff) Invert() Diff {
	inv := Diff{Path: d.Path, Old: d.New, New: d.Old}
	switch d.Kind {
	case Added:
		inv.Kind = Removed
	case Removed:
		inv.Kind = Added
	default:
		inv.Kind = d.Kind
	}
	return inv
}

// Summary counts diffs per kind.
type Summary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// Total returns the number of diffs counted.
func (s Summary) Total() int {
	return s.Added + s.Removed + s.Modified
}

// Summarize counts diffs per kind.
func Summarize(diffs []Diff) Summary {
	var s Summary
	for _, d := range diffs {
		switch d.Kind {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		}
	}
	return s
}
