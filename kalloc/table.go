package kalloc

import "github.com/birdayz/kgraph/kdag"

// NoSlot is returned for ports that have no buffer slot.
const NoSlot = -1

// Table is the complete buffer allocation for one data type.
type Table struct {
	registry   *Registry
	lifetimes  []Lifetime
	assignment Assignment
}

// Allocate builds the producer registry, computes lifetimes against the
// schedule positions and colors them. edges must all carry the same type.
func Allocate(edges []kdag.Edge, pos Positioner) *Table {
	r := NewRegistry(edges)
	lifetimes := Lifetimes(r, edges, pos)
	return &Table{
		registry:   r,
		lifetimes:  lifetimes,
		assignment: Color(lifetimes),
	}
}

// BufferCount is the number of distinct slots needed.
func (t *Table) BufferCount() int {
	return t.assignment.Count
}

// Registry returns the producer registry the table was built from.
func (t *Table) Registry() *Registry {
	return t.registry
}

// SlotOf returns the slot of a producer. Output ports that feed no edge
// have no slot.
func (t *Table) SlotOf(p kdag.Port) (int, bool) {
	i, ok := t.registry.Index(p)
	if !ok {
		return NoSlot, false
	}
	return t.assignment.Slots[i], true
}

// LifetimeOf returns the lifetime of a producer.
func (t *Table) LifetimeOf(p kdag.Port) (Lifetime, bool) {
	i, ok := t.registry.Index(p)
	if !ok {
		return Lifetime{}, false
	}
	return t.lifetimes[i], true
}

// Lifetimes returns a copy of all lifetimes, indexed like the registry.
func (t *Table) Lifetimes() []Lifetime {
	lifetimes := make([]Lifetime, len(t.lifetimes))
	copy(lifetimes, t.lifetimes)
	return lifetimes
}
