// Package trace provides the structured record of a single provisioning-tool run.
//
// This package contains the data model only. The parser builds it, the
// comparator reads it; trace imports nothing internal so that it remains
// the foundational layer with no circular dependencies.
//
// The tree is:
//
//	Trace
//	└── Phase (unique name, e.g. "plan", "apply")
//	    └── ResourceOperation (unique address within its phase)
//	        └── Event (ProviderCall | ApiRequest)
//
// Key design constraints:
//   - Event is a closed sum type; EventKind is the discriminant
//   - Payloads are Values (Null, String, Number, Bool, Array, Object), never raw interface{}
//   - Numbers keep their JSON literal; equality is exact numeric equality
//   - Object iteration uses SortedKeys() (RFC 8785 order) for deterministic output
//   - Resource operations keep insertion order within a phase
package trace
