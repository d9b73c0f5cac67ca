package kgraph

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/birdayz/kgraph/kalloc"
	"github.com/birdayz/kgraph/kdag"
)

// NoSlot is returned by slot lookups for ports without a buffer.
const NoSlot = kalloc.NoSlot

// TypePlan resolves the ports of one data type to buffer slots and lists the
// ports left open to the caller.
type TypePlan struct {
	spec   kdag.TypeSpec
	strict bool
	table  *kalloc.Table

	// consumers maps every fed input port to the slot of its producer.
	consumers map[kdag.Port]int

	externalInputs  []kdag.Port
	externalOutputs []kdag.Port
	inputIndex      map[kdag.Port]int
	outputIndex     map[kdag.Port]int
}

func newTypePlan(g *kdag.Graph, s *kdag.Schedule, spec kdag.TypeSpec, strict bool) (*TypePlan, error) {
	edges := g.EdgesOf(spec.ID)
	tp := &TypePlan{
		spec:        spec,
		strict:      strict,
		table:       kalloc.Allocate(edges, s),
		consumers:   make(map[kdag.Port]int, len(edges)),
		inputIndex:  make(map[kdag.Port]int),
		outputIndex: make(map[kdag.Port]int),
	}

	participants := make(map[kdag.NodeID]bool)
	for _, e := range edges {
		slot, _ := tp.table.SlotOf(e.From)
		tp.consumers[e.To] = slot
		participants[e.From.Node] = true
		participants[e.To.Node] = true
	}

	// Strictness applies to every node wired into the graph, including
	// nodes connected only through other types. External ports are listed
	// for participants of this type only.
	wired := make(map[kdag.NodeID]bool, len(g.Nodes))
	for _, e := range g.Edges {
		wired[e.From.Node] = true
		wired[e.To.Node] = true
	}

	var errs error
	for _, id := range s.Order {
		external := participants[id]
		if !external && !(strict && wired[id]) {
			continue
		}
		node := g.Nodes[id]
		pc := node.PortCount(spec.ID)

		for i := 0; i < pc.Inputs; i++ {
			p := kdag.Port{Node: id, Index: i}
			if _, fed := tp.consumers[p]; fed {
				continue
			}
			if external {
				tp.inputIndex[p] = len(tp.externalInputs)
				tp.externalInputs = append(tp.externalInputs, p)
			}
			if strict {
				errs = multierr.Append(errs, unconnected(spec, node, kdag.Input, i))
			}
		}
		for i := 0; i < pc.Outputs; i++ {
			p := kdag.Port{Node: id, Index: i}
			if _, ok := tp.table.SlotOf(p); ok {
				continue
			}
			if external {
				tp.outputIndex[p] = len(tp.externalOutputs)
				tp.externalOutputs = append(tp.externalOutputs, p)
			}
			if strict {
				errs = multierr.Append(errs, unconnected(spec, node, kdag.Output, i))
			}
		}
	}
	if errs != nil {
		return nil, errs
	}
	return tp, nil
}

func unconnected(spec kdag.TypeSpec, node *kdag.Node, dir kdag.Direction, index int) error {
	return fmt.Errorf("%w: %q %s %d of node %s", ErrUnconnectedPort, spec.Name, dir, index, node.Label())
}

// Spec returns the data type this plan resolves.
func (tp *TypePlan) Spec() kdag.TypeSpec {
	return tp.spec
}

// Strict reports whether the type was compiled as strict.
func (tp *TypePlan) Strict() bool {
	return tp.strict
}

// BufferCount is the number of storage slots the type needs.
func (tp *TypePlan) BufferCount() int {
	return tp.table.BufferCount()
}

// ProducerSlot returns the slot written by an output port.
func (tp *TypePlan) ProducerSlot(node kdag.NodeID, port int) (int, bool) {
	return tp.table.SlotOf(kdag.Port{Node: node, Index: port})
}

// ConsumerSlot returns the slot read by an input port, which is the slot of
// the output feeding it.
func (tp *TypePlan) ConsumerSlot(node kdag.NodeID, port int) (int, bool) {
	slot, ok := tp.consumers[kdag.Port{Node: node, Index: port}]
	if !ok {
		return NoSlot, false
	}
	return slot, true
}

// Lifetime returns the schedule range during which an output's value lives.
func (tp *TypePlan) Lifetime(node kdag.NodeID, port int) (kalloc.Lifetime, bool) {
	return tp.table.LifetimeOf(kdag.Port{Node: node, Index: port})
}

// Producers returns the output ports that own a slot, in discovery order.
func (tp *TypePlan) Producers() []kdag.Port {
	return tp.table.Registry().Producers()
}

// ExternalInputCount is the number of inputs the caller has to bind.
func (tp *TypePlan) ExternalInputCount() int {
	return len(tp.externalInputs)
}

// ExternalOutputCount is the number of outputs the caller has to bind.
func (tp *TypePlan) ExternalOutputCount() int {
	return len(tp.externalOutputs)
}

// ExternalInputAt returns the k-th input port not fed by any edge. Ports are
// ordered by the schedule position of their node, then by port index.
func (tp *TypePlan) ExternalInputAt(k int) (kdag.Port, bool) {
	if k < 0 || k >= len(tp.externalInputs) {
		return kdag.Port{}, false
	}
	return tp.externalInputs[k], true
}

// ExternalOutputAt returns the k-th output port that feeds no edge.
func (tp *TypePlan) ExternalOutputAt(k int) (kdag.Port, bool) {
	if k < 0 || k >= len(tp.externalOutputs) {
		return kdag.Port{}, false
	}
	return tp.externalOutputs[k], true
}

// ExternalInputIndex is the inverse of ExternalInputAt.
func (tp *TypePlan) ExternalInputIndex(p kdag.Port) (int, bool) {
	k, ok := tp.inputIndex[p]
	return k, ok
}

// ExternalOutputIndex is the inverse of ExternalOutputAt.
func (tp *TypePlan) ExternalOutputIndex(p kdag.Port) (int, bool) {
	k, ok := tp.outputIndex[p]
	return k, ok
}

// ExternalInputs returns a copy of the external input list.
func (tp *TypePlan) ExternalInputs() []kdag.Port {
	return append([]kdag.Port(nil), tp.externalInputs...)
}

// ExternalOutputs returns a copy of the external output list.
func (tp *TypePlan) ExternalOutputs() []kdag.Port {
	return append([]kdag.Port(nil), tp.externalOutputs...)
}
