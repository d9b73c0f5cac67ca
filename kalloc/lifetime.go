package kalloc

import "github.com/birdayz/kgraph/kdag"

// Positioner maps a node to its schedule position. *kdag.Schedule
// implements it.
type Positioner interface {
	Position(id kdag.NodeID) (int, bool)
}

// Lifetime is the closed range of schedule positions during which a
// producer's value must stay valid.
type Lifetime struct {
	Start int
	End   int
}

// Overlaps reports whether two lifetimes share at least one position. A
// value consumed at position p and a value produced at p overlap.
func (l Lifetime) Overlaps(o Lifetime) bool {
	return l.Start <= o.End && o.Start <= l.End
}

// Lifetimes computes the lifetime of every producer in r. Start is the
// position of the producer's node; End is the latest position of any node
// it feeds and never less than Start.
func Lifetimes(r *Registry, edges []kdag.Edge, pos Positioner) []Lifetime {
	lifetimes := make([]Lifetime, r.Len())
	for i, p := range r.producers {
		start, _ := pos.Position(p.Node)
		lifetimes[i] = Lifetime{Start: start, End: start}
	}

	for _, e := range edges {
		idx, ok := r.Index(e.From)
		if !ok {
			continue
		}
		if dst, ok := pos.Position(e.To.Node); ok && dst > lifetimes[idx].End {
			lifetimes[idx].End = dst
		}
	}
	return lifetimes
}
