package kdag

import (
	"fmt"
	"strings"
)

// Validation limits to prevent pathological cases
const (
	MaxNodesPerDAG  = 10000
	MaxEdgesPerDAG  = 100000
	MaxPortsPerNode = 1024
	MaxTypesPerDAG  = 256
)

// Validate checks the graph-wide limits. Per-node and per-edge rules (port
// ranges, single producer per input) are enforced when they are added.
// Cycles are not an error here: the scheduler reports them, and
// DetectCycle describes them.
func (g *Graph) Validate() error {
	if len(g.Nodes) > MaxNodesPerDAG {
		return fmt.Errorf("%w: node count %d exceeds maximum %d",
			ErrInvalidTopology, len(g.Nodes), MaxNodesPerDAG)
	}
	if len(g.Edges) > MaxEdgesPerDAG {
		return fmt.Errorf("%w: edge count %d exceeds maximum %d",
			ErrInvalidTopology, len(g.Edges), MaxEdgesPerDAG)
	}
	if len(g.Types) > MaxTypesPerDAG {
		return fmt.Errorf("%w: type count %d exceeds maximum %d",
			ErrInvalidTopology, len(g.Types), MaxTypesPerDAG)
	}
	return nil
}

// DetectCycle uses Depth-First Search (DFS) to find a cycle in the graph.
// Returns ErrCycleDetected with the offending path if any cycle is found.
// Vertices are visited in enumeration order so the reported path is stable.
// Time complexity: O(V + E) where V is vertices and E is edges.
func (g *Graph) DetectCycle() error {
	visited := make(map[NodeID]bool, len(g.Nodes))
	recStack := make(map[NodeID]bool, len(g.Nodes))

	var dfs func(NodeID, []NodeID) error
	dfs = func(nodeID NodeID, path []NodeID) error {
		visited[nodeID] = true
		recStack[nodeID] = true
		path = append(path, nodeID)

		for _, childID := range g.Nodes[nodeID].Children {
			if !visited[childID] {
				if err := dfs(childID, path); err != nil {
					return err
				}
			} else if recStack[childID] {
				cyclePath := append(path, childID)
				pathStr := make([]string, len(cyclePath))
				for i, id := range cyclePath {
					pathStr[i] = g.Nodes[id].Label()
				}
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(pathStr, " -> "))
			}
		}

		recStack[nodeID] = false
		return nil
	}

	// Check all nodes (handles disconnected components)
	for _, nodeID := range g.Vertices() {
		if !visited[nodeID] {
			if err := dfs(nodeID, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
