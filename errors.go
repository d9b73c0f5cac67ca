package kgraph

import "errors"

var (
	// ErrUnconnectedPort is returned for every port of a strict type that is
	// left without an edge.
	ErrUnconnectedPort = errors.New("kgraph: unconnected port on strict type")

	// ErrNilDAG is returned when Compile is called without a graph.
	ErrNilDAG = errors.New("kgraph: nil DAG")
)
