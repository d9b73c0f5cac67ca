// Package kdag provides the graph model and scheduler for static dataflow graphs.
//
// # Overview
//
// A graph is made of nodes with typed, indexed ports. Edges connect one
// output port to one input port of the same data type. An output may feed
// any number of inputs, an input accepts a single producer.
//
//   - **Builder**: registers types, nodes and edges, rejecting malformed input early
//   - **Graph**: structural representation (nodes, edges, type table)
//   - **Schedule**: total order over the nodes produced by Kahn's algorithm
//   - **DAG**: validated, immutable graph with its precomputed schedule
//
// # Basic Usage
//
//	b := kdag.NewBuilder()
//	audio := b.MustAddType("audio", false)
//
//	b.MustAddNode(kdag.NodeSpec{ID: 1, Name: "osc", Ports: map[kdag.TypeID]kdag.PortCount{
//	    audio: {Outputs: 1},
//	}})
//	b.MustAddNode(kdag.NodeSpec{ID: 2, Name: "gain", Ports: map[kdag.TypeID]kdag.PortCount{
//	    audio: {Inputs: 1, Outputs: 1},
//	}})
//
//	b.MustConnect(audio, kdag.Port{Node: 1, Index: 0}, kdag.Port{Node: 2, Index: 0})
//
//	dag := b.MustBuild()
//	order := dag.Schedule().Order // [1 2]
//
// # Scheduling
//
// Among nodes whose inputs are all satisfied, the node with the highest
// Priority runs first. Equal priorities fall back to the vertex enumeration
// order: nodes in order of first mention by the edge list, then nodes
// without edges in declaration order. The result is fully determined by the
// declaration order.
//
// A graph with a directed cycle still builds. Its schedule is marked Cyclic
// and carries the enumeration order, which is not a valid execution order.
// DetectCycle returns ErrCycleDetected with the offending path so callers
// can refuse such graphs.
//
// # Validation
//
// Registration checks:
//
//   - **Identity**: node IDs are non-negative and unique, type names unique
//   - **Port ranges**: edge endpoints must exist on the declared port counts
//   - **Single producer**: an input port has at most one incoming edge
//   - **Size Limits**: MaxNodesPerDAG, MaxEdgesPerDAG, MaxPortsPerNode, MaxTypesPerDAG
//
// All validation errors use sentinel errors (ErrPortOutOfRange,
// ErrInputAlreadyConnected, etc.) that can be checked with errors.Is().
//
// # Thread Safety
//
// IMPORTANT: Builder is NOT safe for concurrent use. The resulting DAG is
// immutable and safe to use concurrently.
package kdag
