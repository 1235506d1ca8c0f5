// Package compare reports the semantic differences between two traces.
//
// Compare walks both trees top-down and emits one Diff per difference,
// addressed by a Path:
//
//	phase.<name>
//	phase.<name>.resource.<address>
//	phase.<name>.resource.<address>.events.<ordinal>.<field>...
//
// Events are paired by matching key (kind, identifier) rather than by list
// position. The ordinal in an event path counts occurrences of that key, so
// swapping two calls to different methods produces no diff. Reordering of
// calls that depend on each other is not detected.
//
// Payloads are compared by DiffValues, which is shared by provider payloads,
// HTTP headers and HTTP bodies alike.
//
// Output order is fixed: phases in A order then B-only phases, resources in
// A insertion order then B-only resources, events by first appearance of their
// key, object fields in sorted key order.
package compare
