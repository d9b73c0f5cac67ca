package kdag

import "testing"

// testNode describes a node for newTestDAG: id, priority and per-type port counts
// on the single "data" type.
type testNode struct {
	id       NodeID
	priority int
	inputs   int
	outputs  int
}

// testEdge connects output port fromPort of from to input port toPort of to.
type testEdge struct {
	from     NodeID
	fromPort int
	to       NodeID
	toPort   int
}

// newTestBuilder registers one "data" type, the given nodes and edges.
func newTestBuilder(t testing.TB, nodes []testNode, edges []testEdge) (*Builder, TypeID) {
	t.Helper()
	b := NewBuilder()
	data, err := b.AddType("data", false)
	if err != nil {
		t.Fatalf("add type: %v", err)
	}
	for _, n := range nodes {
		err := b.AddNode(NodeSpec{
			ID:       n.id,
			Priority: n.priority,
			Ports:    map[TypeID]PortCount{data: {Inputs: n.inputs, Outputs: n.outputs}},
		})
		if err != nil {
			t.Fatalf("add node %d: %v", n.id, err)
		}
	}
	for _, e := range edges {
		if err := b.Connect(data, Port{Node: e.from, Index: e.fromPort}, Port{Node: e.to, Index: e.toPort}); err != nil {
			t.Fatalf("connect %v: %v", e, err)
		}
	}
	return b, data
}

func newTestDAG(t testing.TB, nodes []testNode, edges []testEdge) *DAG {
	t.Helper()
	b, _ := newTestBuilder(t, nodes, edges)
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

// chain returns n nodes connected in a line 0 -> 1 -> ... -> n-1.
func chain(n int) ([]testNode, []testEdge) {
	nodes := make([]testNode, n)
	edges := make([]testEdge, 0, n)
	for i := range nodes {
		nodes[i] = testNode{id: NodeID(i), inputs: 1, outputs: 1}
		if i > 0 {
			edges = append(edges, testEdge{from: NodeID(i - 1), to: NodeID(i)})
		}
	}
	return nodes, edges
}

func positionOf(t testing.TB, s *Schedule, id NodeID) int {
	t.Helper()
	pos, ok := s.Position(id)
	if !ok {
		t.Fatalf("node %d not scheduled", id)
	}
	return pos
}
