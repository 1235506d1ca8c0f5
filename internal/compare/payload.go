package compare

import (
	"strconv"

	"github.com/roach88/tftrace/internal/trace"
)

// DiffValues compares two values found at path and returns their differences.
//
// Objects are compared key by key over the union of keys, arrays element by
// element, and anything else (including a type mismatch) as a whole value.
func DiffValues(path Path, a, b trace.Value, opts ...Option) []Diff {
	c := newComparator(opts)
	c.values(path, a, b)
	return c.diffs
}

func (c *comparator) values(path Path, a, b trace.Value) {
	if c.opts.ignored(path) {
		return
	}

	switch av := a.(type) {
	case trace.Object:
		if bv, ok := b.(trace.Object); ok {
			c.objects(path, av, bv)
			return
		}
	case trace.Array:
		if bv, ok := b.(trace.Array); ok {
			c.arrays(path, av, bv)
			return
		}
	}

	if !trace.Equal(a, b) {
		c.emit(Diff{Kind: Modified, Path: path, Old: a, New: b})
	}
}

func (c *comparator) objects(path Path, a, b trace.Object) {
	keys := make(trace.Object, len(a)+len(b))
	for k := range a {
		keys[k] = trace.Null{}
	}
	for k := range b {
		keys[k] = trace.Null{}
	}

	for _, k := range keys.SortedKeys() {
		av, inA := a[k]
		bv, inB := b[k]
		switch {
		case !inA:
			c.emit(Diff{Kind: Added, Path: path.With(k), New: bv})
		case !inB:
			c.emit(Diff{Kind: Removed, Path: path.With(k), Old: av})
		default:
			c.values(path.With(k), av, bv)
		}
	}
}

func (c *comparator) arrays(path Path, a, b trace.Array) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		c.values(path.With(strconv.Itoa(i)), a[i], b[i])
	}
	for i := n; i < len(a); i++ {
		c.emit(Diff{Kind: Removed, Path: path.With(strconv.Itoa(i)), Old: a[i]})
	}
	for i := n; i < len(b); i++ {
		c.emit(Diff{Kind: Added, Path: path.With(strconv.Itoa(i)), New: b[i]})
	}
}
