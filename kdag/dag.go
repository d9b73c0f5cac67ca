package kdag

// DAG is a fully built dataflow graph together with its schedule.
type DAG struct {
	graph    *Graph
	schedule *Schedule
}

// Schedule returns the precomputed node schedule.
func (d *DAG) Schedule() *Schedule {
	return d.schedule
}

// GetGraph returns the underlying graph. It must not be modified.
func (d *DAG) GetGraph() *Graph {
	return d.graph
}

// Types returns the registered data types in TypeID order.
func (d *DAG) Types() []TypeSpec {
	types := make([]TypeSpec, len(d.graph.Types))
	copy(types, d.graph.Types)
	return types
}

// Node returns a node by ID if it exists.
func (d *DAG) Node(id NodeID) (*Node, bool) {
	node, ok := d.graph.Nodes[id]
	return node, ok
}

// EdgePairs returns the (source, destination) pair of every edge, as declared.
func (d *DAG) EdgePairs() []EdgePair {
	pairs := make([]EdgePair, len(d.graph.Edges))
	for i, e := range d.graph.Edges {
		pairs[i] = EdgePair{From: e.From.Node, To: e.To.Node}
	}
	return pairs
}
