package kdag

import (
	"errors"
	"fmt"
)

// Builder constructs a dataflow DAG.
//
// IMPORTANT: Builder is NOT safe for concurrent use. All registration
// methods must be called from a single goroutine. The resulting DAG
// is immutable and safe to use concurrently.
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new DAG builder.
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// NodeSpec describes a node to register.
type NodeSpec struct {
	ID       NodeID
	Name     string
	Priority int
	Ports    map[TypeID]PortCount
}

// AddType registers a data type. Strict types require every port of every
// node that uses the type to be connected.
func (b *Builder) AddType(name string, strict bool) (TypeID, error) {
	return b.graph.AddType(name, strict)
}

// MustAddType is like AddType but panics on error.
func (b *Builder) MustAddType(name string, strict bool) TypeID {
	id, err := b.AddType(name, strict)
	must(err)
	return id
}

// AddNode registers a node. The port map is copied.
func (b *Builder) AddNode(spec NodeSpec) error {
	ports := make(map[TypeID]PortCount, len(spec.Ports))
	for t, pc := range spec.Ports {
		ports[t] = pc
	}
	return b.graph.AddNode(&Node{
		ID:       spec.ID,
		Name:     spec.Name,
		Priority: spec.Priority,
		Ports:    ports,
		Parents:  []NodeID{},
		Children: []NodeID{},
	})
}

// MustAddNode is like AddNode but panics on error.
func (b *Builder) MustAddNode(spec NodeSpec) {
	must(b.AddNode(spec))
}

// Connect adds an edge of type t from an output port to an input port.
func (b *Builder) Connect(t TypeID, from, to Port) error {
	if err := b.graph.AddEdge(Edge{Type: t, From: from, To: to}); err != nil {
		return fmt.Errorf("cannot connect %s -> %s: %w", from, to, err)
	}
	return nil
}

// MustConnect is like Connect but panics on error.
func (b *Builder) MustConnect(t TypeID, from, to Port) {
	must(b.Connect(t, from, to))
}

// Build validates and finalizes the DAG. The schedule is computed once here.
// A cyclic graph still builds; DAG.Schedule().Cyclic reports it.
func (b *Builder) Build() (*DAG, error) {
	if err := b.graph.Validate(); err != nil {
		return nil, fmt.Errorf("DAG validation failed: %w", err)
	}

	return &DAG{
		graph:    b.graph,
		schedule: b.graph.TopologicalSort(),
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *DAG {
	dag, err := b.Build()
	if err != nil {
		panic(err)
	}
	return dag
}

// GetGraph returns the underlying graph for read-only access.
func (b *Builder) GetGraph() *Graph {
	return b.graph
}

// GetNode returns a node by ID if it exists.
func (b *Builder) GetNode(id NodeID) (*Node, bool) {
	node, ok := b.graph.Nodes[id]
	return node, ok
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Sentinel errors for common failure cases.
var (
	ErrNodeAlreadyExists     = errors.New("node already exists")
	ErrNodeNotFound          = errors.New("node not found")
	ErrTypeAlreadyExists     = errors.New("type already exists")
	ErrTypeNotFound          = errors.New("type not found")
	ErrPortOutOfRange        = errors.New("port index out of range")
	ErrInputAlreadyConnected = errors.New("input port already connected")
	ErrCycleDetected         = errors.New("cycle detected in DAG")
	ErrInvalidNodeID         = errors.New("invalid node ID")
	ErrInvalidTopology       = errors.New("invalid topology")
)
