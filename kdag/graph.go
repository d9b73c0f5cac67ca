package kdag

import (
	"fmt"
	"strconv"
)

// NodeID is a strongly-typed identifier for graph nodes.
// NodeIDs must be non-negative.
type NodeID int

// Validate checks if the NodeID is valid.
// Returns ErrInvalidNodeID if the ID is negative.
func (id NodeID) Validate() error {
	if id < 0 {
		return fmt.Errorf("%w: NodeID %d cannot be negative", ErrInvalidNodeID, int(id))
	}
	return nil
}

func (id NodeID) String() string {
	return strconv.Itoa(int(id))
}

// TypeID identifies a data type within one graph. It is the index of the
// type in Graph.Types.
type TypeID int

// TypeSpec declares a data type that ports can carry.
type TypeSpec struct {
	ID   TypeID
	Name string

	// Strict requires every port of this type on every participating node
	// to be connected inside the graph.
	Strict bool
}

// Direction tells whether a port consumes or produces values.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// PortCount is the number of input and output ports a node exposes for one
// data type.
type PortCount struct {
	Inputs  int
	Outputs int
}

// Port addresses one port of one node. Whether it is an input or an output
// port follows from where it is used: an edge's From is always an output and
// its To is always an input.
type Port struct {
	Node  NodeID
	Index int
}

func (p Port) String() string {
	return fmt.Sprintf("%d:%d", p.Node, p.Index)
}

// Edge connects an output port to an input port of the same data type.
type Edge struct {
	Type TypeID
	From Port
	To   Port
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// EdgePair is the (source, destination) node pair of an edge, kept for
// diagnostics and printing.
type EdgePair struct {
	From NodeID
	To   NodeID
}

// Node is the build-time representation of a node in the DAG.
type Node struct {
	ID       NodeID
	Name     string
	Priority int

	// Ports holds the port counts per data type. Types not present have no
	// ports on this node.
	Ports map[TypeID]PortCount

	// Parent edges (incoming), one entry per edge
	Parents []NodeID

	// Child edges (outgoing), one entry per edge
	Children []NodeID
}

// PortCount returns the port counts of the node for the given type.
func (n *Node) PortCount(t TypeID) PortCount {
	return n.Ports[t]
}

// Label returns the node name, falling back to its numeric ID.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.String()
}

type typedPort struct {
	t TypeID
	p Port
}

// Graph is the build-time DAG representation.
// It contains only structural information - no runtime behavior.
type Graph struct {
	Nodes map[NodeID]*Node

	// Deterministic node ordering (insertion order)
	NodeOrder []NodeID

	// Types is indexed by TypeID
	Types []TypeSpec

	// Edges in declaration order
	Edges []Edge

	typeNames map[string]TypeID

	// feeds maps every connected input port to the output feeding it.
	feeds map[typedPort]Port
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NodeOrder: make([]NodeID, 0),
		Types:     make([]TypeSpec, 0),
		Edges:     make([]Edge, 0),
		typeNames: make(map[string]TypeID),
		feeds:     make(map[typedPort]Port),
	}
}

// AddType registers a data type and returns its ID.
func (g *Graph) AddType(name string, strict bool) (TypeID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: type name cannot be empty", ErrInvalidTopology)
	}
	if _, exists := g.typeNames[name]; exists {
		return 0, fmt.Errorf("%w: %q", ErrTypeAlreadyExists, name)
	}
	id := TypeID(len(g.Types))
	g.Types = append(g.Types, TypeSpec{ID: id, Name: name, Strict: strict})
	g.typeNames[name] = id
	return id, nil
}

// TypeByName looks up a registered data type.
func (g *Graph) TypeByName(name string) (TypeSpec, bool) {
	id, ok := g.typeNames[name]
	if !ok {
		return TypeSpec{}, false
	}
	return g.Types[id], true
}

func (g *Graph) hasType(t TypeID) bool {
	return t >= 0 && int(t) < len(g.Types)
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node *Node) error {
	if err := node.ID.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[node.ID]; exists {
		return fmt.Errorf("%w: %d", ErrNodeAlreadyExists, node.ID)
	}
	if len(node.Ports) > 0 {
		total := 0
		for t, pc := range node.Ports {
			if !g.hasType(t) {
				return fmt.Errorf("%w: node %d declares ports for type %d", ErrTypeNotFound, node.ID, t)
			}
			if pc.Inputs < 0 || pc.Outputs < 0 {
				return fmt.Errorf("%w: node %d has negative port count for type %q",
					ErrPortOutOfRange, node.ID, g.Types[t].Name)
			}
			total += pc.Inputs + pc.Outputs
		}
		if total > MaxPortsPerNode {
			return fmt.Errorf("%w: node %d has %d ports, exceeds maximum %d",
				ErrInvalidTopology, node.ID, total, MaxPortsPerNode)
		}
	}
	if node.Ports == nil {
		node.Ports = make(map[TypeID]PortCount)
	}
	g.Nodes[node.ID] = node
	g.NodeOrder = append(g.NodeOrder, node.ID)
	return nil
}

// AddEdge connects an output port to an input port of the given type.
// Port indices are checked against the declared port counts and each input
// port accepts a single producer.
func (g *Graph) AddEdge(e Edge) error {
	if !g.hasType(e.Type) {
		return fmt.Errorf("%w: %d", ErrTypeNotFound, e.Type)
	}
	typeName := g.Types[e.Type].Name

	parent, ok := g.Nodes[e.From.Node]
	if !ok {
		return fmt.Errorf("%w: source %d", ErrNodeNotFound, e.From.Node)
	}
	child, ok := g.Nodes[e.To.Node]
	if !ok {
		return fmt.Errorf("%w: destination %d", ErrNodeNotFound, e.To.Node)
	}

	if out := parent.PortCount(e.Type).Outputs; e.From.Index < 0 || e.From.Index >= out {
		return fmt.Errorf("%w: node %d has %d %q outputs, got index %d",
			ErrPortOutOfRange, parent.ID, out, typeName, e.From.Index)
	}
	if in := child.PortCount(e.Type).Inputs; e.To.Index < 0 || e.To.Index >= in {
		return fmt.Errorf("%w: node %d has %d %q inputs, got index %d",
			ErrPortOutOfRange, child.ID, in, typeName, e.To.Index)
	}

	key := typedPort{t: e.Type, p: e.To}
	if src, exists := g.feeds[key]; exists {
		return fmt.Errorf("%w: %q input %s is already fed by %s",
			ErrInputAlreadyConnected, typeName, e.To, src)
	}

	g.feeds[key] = e.From
	g.Edges = append(g.Edges, e)
	parent.Children = append(parent.Children, child.ID)
	child.Parents = append(child.Parents, parent.ID)
	return nil
}

// Feeder returns the output port feeding the given input port.
func (g *Graph) Feeder(t TypeID, input Port) (Port, bool) {
	p, ok := g.feeds[typedPort{t: t, p: input}]
	return p, ok
}

// EdgesOf returns the edges carrying the given type, in declaration order.
func (g *Graph) EdgesOf(t TypeID) []Edge {
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Type == t {
			edges = append(edges, e)
		}
	}
	return edges
}

// Vertices enumerates the nodes in the order used for scheduling
// tie-breaks: nodes in order of first mention by the edge list (source
// before destination), then nodes without edges in declaration order.
func (g *Graph) Vertices() []NodeID {
	seen := make(map[NodeID]bool, len(g.Nodes))
	vertices := make([]NodeID, 0, len(g.Nodes))
	add := func(id NodeID) {
		if !seen[id] {
			seen[id] = true
			vertices = append(vertices, id)
		}
	}
	for _, e := range g.Edges {
		add(e.From.Node)
		add(e.To.Node)
	}
	for _, id := range g.NodeOrder {
		add(id)
	}
	return vertices
}
