package kgraph

import (
	"github.com/birdayz/kgraph/kdag"
)

// Snapshot is a plain copy of a compiled plan, suitable for encoding.
type Snapshot struct {
	Order  []kdag.NodeID  `json:"order"`
	Cyclic bool           `json:"cyclic"`
	Edges  []EdgeSnapshot `json:"edges"`
	Types  []TypeSnapshot `json:"types"`
}

// PortRef names one port of a node.
type PortRef struct {
	Node kdag.NodeID `json:"node"`
	Port int         `json:"port"`
}

// EdgeSnapshot is one declared edge.
type EdgeSnapshot struct {
	Type string  `json:"type"`
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
}

// ProducerSnapshot is an output port with its lifetime and slot.
type ProducerSnapshot struct {
	PortRef
	Start int `json:"start"`
	End   int `json:"end"`
	Slot  int `json:"slot"`
}

// TypeSnapshot holds the resolver tables of one data type.
type TypeSnapshot struct {
	Name            string             `json:"name"`
	Strict          bool               `json:"strict"`
	BufferCount     int                `json:"buffer_count"`
	Producers       []ProducerSnapshot `json:"producers"`
	ExternalInputs  []PortRef          `json:"external_inputs"`
	ExternalOutputs []PortRef          `json:"external_outputs"`
}

func portRef(p kdag.Port) PortRef {
	return PortRef{Node: p.Node, Port: p.Index}
}

func portRefs(ports []kdag.Port) []PortRef {
	refs := make([]PortRef, len(ports))
	for i, p := range ports {
		refs[i] = portRef(p)
	}
	return refs
}

// Snapshot copies every table of the plan.
func (p *Plan) Snapshot() Snapshot {
	g := p.dag.GetGraph()
	s := Snapshot{
		Order:  p.Order(),
		Cyclic: p.Cyclic(),
		Edges:  make([]EdgeSnapshot, len(g.Edges)),
		Types:  make([]TypeSnapshot, len(p.types)),
	}

	for i, e := range g.Edges {
		s.Edges[i] = EdgeSnapshot{
			Type: g.Types[e.Type].Name,
			From: portRef(e.From),
			To:   portRef(e.To),
		}
	}

	for i, tp := range p.types {
		producers := tp.Producers()
		ts := TypeSnapshot{
			Name:            tp.spec.Name,
			Strict:          tp.strict,
			BufferCount:     tp.BufferCount(),
			Producers:       make([]ProducerSnapshot, len(producers)),
			ExternalInputs:  portRefs(tp.externalInputs),
			ExternalOutputs: portRefs(tp.externalOutputs),
		}
		for j, prod := range producers {
			lt, _ := tp.table.LifetimeOf(prod)
			slot, _ := tp.table.SlotOf(prod)
			ts.Producers[j] = ProducerSnapshot{
				PortRef: portRef(prod),
				Start:   lt.Start,
				End:     lt.End,
				Slot:    slot,
			}
		}
		s.Types[i] = ts
	}
	return s
}
