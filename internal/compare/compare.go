package compare

import (
	"strconv"

	"github.com/roach88/tftrace/internal/trace"
)

// Path segment names.
const (
	segPhase    = "phase"
	segResource = "resource"
	segEvents   = "events"
)

// comparator holds the state of one comparison. It is never shared.
type comparator struct {
	opts  options
	diffs []Diff
}

func newComparator(opts []Option) *comparator {
	c := &comparator{diffs: []Diff{}}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// emit appends d unless its path is ignored.
func (c *comparator) emit(d Diff) {
	if c.opts.ignored(d.Path) {
		return
	}
	c.diffs = append(c.diffs, d)
}

// Compare returns every difference between a and b in traversal order.
// An empty, non-nil slice means the traces are equivalent.
func Compare(a, b *trace.Trace, opts ...Option) []Diff {
	c := newComparator(opts)
	c.phases(a, b)
	return c.diffs
}

func (c *comparator) phases(a, b *trace.Trace) {
	byName := make(map[string]*trace.Phase, len(b.Phases))
	for _, p := range b.Phases {
		byName[p.Name] = p
	}
	inA := make(map[string]bool, len(a.Phases))

	for _, pa := range a.Phases {
		inA[pa.Name] = true
		path := Path{segPhase, pa.Name}
		pb, ok := byName[pa.Name]
		if !ok {
			c.emit(Diff{Kind: Removed, Path: path, Old: pa.ToValue()})
			continue
		}
		c.operations(path, pa, pb)
	}

	for _, pb := range b.Phases {
		if !inA[pb.Name] {
			c.emit(Diff{Kind: Added, Path: Path{segPhase, pb.Name}, New: pb.ToValue()})
		}
	}
}

func (c *comparator) operations(path Path, a, b *trace.Phase) {
	if c.opts.ignored(path) {
		return
	}

	for _, opA := range a.Operations() {
		opPath := path.With(segResource, opA.Address)
		opB, ok := b.Lookup(opA.Address)
		if !ok {
			c.emit(Diff{Kind: Removed, Path: opPath, Old: opA.ToValue()})
			continue
		}
		c.events(opPath.With(segEvents), opA.Events, opB.Events)
	}

	for _, opB := range b.Operations() {
		if _, ok := a.Lookup(opB.Address); !ok {
			c.emit(Diff{Kind: Added, Path: path.With(segResource, opB.Address), New: opB.ToValue()})
		}
	}
}

// matchKey identifies events that may be paired across traces.
type matchKey struct {
	kind trace.EventKind
	id   string
}

func keyOf(e trace.Event) matchKey {
	return matchKey{kind: e.Kind(), id: e.Identifier()}
}

// groupEvents buckets events by matching key, keeping encounter order inside
// each bucket. order lists keys by first appearance.
func groupEvents(events []trace.Event, groups map[matchKey][]trace.Event, order []matchKey) []matchKey {
	for _, e := range events {
		k := keyOf(e)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	return order
}

// events pairs the n-th occurrence of a key in a with the n-th in b.
func (c *comparator) events(path Path, a, b []trace.Event) {
	if c.opts.ignored(path) {
		return
	}

	groupsA := make(map[matchKey][]trace.Event)
	groupsB := make(map[matchKey][]trace.Event)
	order := groupEvents(a, groupsA, nil)

	// Keys from b that a never saw still need a slot in the traversal order.
	for _, e := range b {
		k := keyOf(e)
		if _, inA := groupsA[k]; !inA {
			if _, seen := groupsB[k]; !seen {
				order = append(order, k)
			}
		}
		groupsB[k] = append(groupsB[k], e)
	}

	for _, k := range order {
		evA, evB := groupsA[k], groupsB[k]
		paired := min(len(evA), len(evB))

		for i := 0; i < paired; i++ {
			c.values(path.With(strconv.Itoa(i)), evA[i].Fields(), evB[i].Fields())
		}
		for i := paired; i < len(evA); i++ {
			c.emit(Diff{Kind: Removed, Path: path.With(strconv.Itoa(i)), Old: evA[i].Fields()})
		}
		for i := paired; i < len(evB); i++ {
			c.emit(Diff{Kind: Added, Path: path.With(strconv.Itoa(i)), New: evB[i].Fields()})
		}
	}
}
