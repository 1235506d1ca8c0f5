package trace

// Trace is the structured record of one tool run: an ordered list of phases.
type Trace struct {
	Phases []*Phase
}

// New creates an empty trace.
func New() *Trace {
	return &Trace{Phases: []*Phase{}}
}

// AddPhase appends a new phase and returns it.
// Callers keep names unique; the parser suffixes repeated names.
func (t *Trace) AddPhase(name string) *Phase {
	p := NewPhase(name)
	t.Phases = append(t.Phases, p)
	return p
}

// Phase returns the phase with the given name, or nil.
func (t *Trace) Phase(name string) *Phase {
	for _, p := range t.Phases {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HasPhase reports whether a phase with the given name exists.
func (t *Trace) HasPhase(name string) bool {
	return t.Phase(name) != nil
}

// EventCount returns the number of events across all phases.
func (t *Trace) EventCount() int {
	n := 0
	for _, p := range t.Phases {
		for _, op := range p.Operations() {
			n += len(op.Events)
		}
	}
	return n
}

// ToValue converts the trace to a Value for serialization.
func (t *Trace) ToValue() Object {
	phases := make(Array, len(t.Phases))
	for i, p := range t.Phases {
		phases[i] = p.ToValue()
	}
	return Object{"phases": phases}
}

// Phase is a named stage of a run holding resource operations keyed by address.
// Operations keep insertion order.
type Phase struct {
	Name string

	order      []*ResourceOperation
	operations map[string]*ResourceOperation
}

// NewPhase creates an empty phase.
func NewPhase(name string) *Phase {
	return &Phase{
		Name:       name,
		order:      []*ResourceOperation{},
		operations: make(map[string]*ResourceOperation),
	}
}

// Operation returns the operation for address, creating it on first use.
// Repeated calls with the same address return the same instance.
func (p *Phase) Operation(address string) *ResourceOperation {
	if op, ok := p.operations[address]; ok {
		return op
	}
	op := &ResourceOperation{Address: address, Events: []Event{}}
	p.operations[address] = op
	p.order = append(p.order, op)
	return op
}

// Lookup returns the operation for address without creating it.
func (p *Phase) Lookup(address string) (*ResourceOperation, bool) {
	op, ok := p.operations[address]
	return op, ok
}

// Operations returns operations in insertion order.
func (p *Phase) Operations() []*ResourceOperation {
	return p.order
}

// Len returns the number of resource operations in the phase.
func (p *Phase) Len() int {
	return len(p.order)
}

// ToValue converts the phase to a Value. Resources stay in insertion order.
func (p *Phase) ToValue() Object {
	resources := make(Array, len(p.order))
	for i, op := range p.order {
		resources[i] = op.ToValue()
	}
	return Object{
		"name":      String(p.Name),
		"resources": resources,
	}
}

// ResourceOperation is one resource's activity within a phase.
type ResourceOperation struct {
	Address string
	Events  []Event
}

// Append adds a completed event.
func (r *ResourceOperation) Append(e Event) {
	r.Events = append(r.Events, e)
}

// ToValue converts the operation to a Value.
func (r *ResourceOperation) ToValue() Object {
	events := make(Array, len(r.Events))
	for i, e := range r.Events {
		events[i] = e.Fields()
	}
	return Object{
		"address": String(r.Address),
		"events":  events,
	}
}
