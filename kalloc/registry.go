// Package kalloc computes buffer allocations for the values flowing along
// the edges of one data type.
//
// Every output port that feeds at least one edge is a producer. A producer's
// value has to stay valid from the schedule position of its node up to the
// position of its last consumer. Producers whose lifetimes do not overlap
// can share a buffer slot; Color assigns slots so that the number of slots
// equals the largest number of lifetimes live at the same position.
package kalloc

import "github.com/birdayz/kgraph/kdag"

// Registry is the set of producers of one data type, in discovery order.
type Registry struct {
	producers []kdag.Port
	index     map[kdag.Port]int
}

// NewRegistry records the source of every edge as a producer. A source
// feeding several edges is recorded once, at its first edge.
func NewRegistry(edges []kdag.Edge) *Registry {
	r := &Registry{
		producers: make([]kdag.Port, 0, len(edges)),
		index:     make(map[kdag.Port]int, len(edges)),
	}
	for _, e := range edges {
		if _, exists := r.index[e.From]; exists {
			continue
		}
		r.index[e.From] = len(r.producers)
		r.producers = append(r.producers, e.From)
	}
	return r
}

// Len returns the number of producers.
func (r *Registry) Len() int {
	return len(r.producers)
}

// At returns the i-th producer.
func (r *Registry) At(i int) kdag.Port {
	return r.producers[i]
}

// Index returns the discovery index of a producer.
func (r *Registry) Index(p kdag.Port) (int, bool) {
	i, ok := r.index[p]
	return i, ok
}

// Producers returns a copy of the producer list.
func (r *Registry) Producers() []kdag.Port {
	producers := make([]kdag.Port, len(r.producers))
	copy(producers, r.producers)
	return producers
}
