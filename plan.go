package kgraph

import (
	"fmt"

	"github.com/birdayz/kgraph/kdag"
)

// Plan is a compiled graph: one schedule shared by every data type and one
// TypePlan per data type. A Plan is immutable and safe to share.
type Plan struct {
	dag      *kdag.DAG
	schedule *kdag.Schedule
	types    []*TypePlan
	byName   map[string]*TypePlan
}

// DAG returns the graph the plan was compiled from.
func (p *Plan) DAG() *kdag.DAG {
	return p.dag
}

// Order returns the execution order of all vertices.
func (p *Plan) Order() []kdag.NodeID {
	return append([]kdag.NodeID(nil), p.schedule.Order...)
}

// Cyclic reports that the graph contains a cycle. Order is then the vertex
// enumeration order and must not be executed.
func (p *Plan) Cyclic() bool {
	return p.schedule.Cyclic
}

// Position returns the position of a node in Order.
func (p *Plan) Position(id kdag.NodeID) (int, bool) {
	return p.schedule.Position(id)
}

// Edges returns the (source, destination) node pair of every edge as declared.
func (p *Plan) Edges() []kdag.EdgePair {
	return p.dag.EdgePairs()
}

// Type returns the plan of one data type, or nil for an unknown ID.
func (p *Plan) Type(t kdag.TypeID) *TypePlan {
	if t < 0 || int(t) >= len(p.types) {
		return nil
	}
	return p.types[t]
}

// TypeByName returns the plan of the named data type.
func (p *Plan) TypeByName(name string) (*TypePlan, bool) {
	tp, ok := p.byName[name]
	return tp, ok
}

// Types returns the type plans in TypeID order.
func (p *Plan) Types() []*TypePlan {
	return append([]*TypePlan(nil), p.types...)
}

// BufferCount sums the slot counts of all data types.
func (p *Plan) BufferCount() int {
	total := 0
	for _, tp := range p.types {
		total += tp.BufferCount()
	}
	return total
}

// Connected reports that no data type has an external port, so the plan
// runs without any caller bindings.
func (p *Plan) Connected() bool {
	for _, tp := range p.types {
		if tp.ExternalInputCount() > 0 || tp.ExternalOutputCount() > 0 {
			return false
		}
	}
	return true
}

// Validate returns an error wrapping kdag.ErrCycleDetected, with the cycle
// path, if the plan is cyclic.
func (p *Plan) Validate() error {
	if !p.schedule.Cyclic {
		return nil
	}
	if err := p.dag.GetGraph().DetectCycle(); err != nil {
		return err
	}
	return fmt.Errorf("%w: schedule could not place every vertex", kdag.ErrCycleDetected)
}
