package kdag

import (
	"bufio"
	"fmt"
	"io"
)

// WriteMermaid renders the graph as a mermaid flowchart: one arrow per
// declared edge, followed by the vertices that have no edges. A non-empty
// name wraps the chart in a subgraph.
func WriteMermaid(w io.Writer, d *DAG, name string) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, name)

	connected := make(map[NodeID]bool, len(d.graph.Nodes))
	for _, e := range d.graph.Edges {
		connected[e.From.Node] = true
		connected[e.To.Node] = true
		fmt.Fprintf(bw, "%d --> %d\n", e.From.Node, e.To.Node)
	}
	for _, id := range d.schedule.Order {
		if !connected[id] {
			fmt.Fprintf(bw, "%d\n", id)
		}
	}

	writeFooter(bw, name)
	return bw.Flush()
}

// WriteMermaidPipeline renders the schedule as a single chain of nodes in
// execution order.
func WriteMermaidPipeline(w io.Writer, d *DAG, name string) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, name)

	for i, id := range d.schedule.Order {
		if i > 0 {
			bw.WriteString(" --> ")
		}
		fmt.Fprintf(bw, "%d", id)
	}
	bw.WriteString("\n")

	writeFooter(bw, name)
	return bw.Flush()
}

func writeHeader(w *bufio.Writer, name string) {
	w.WriteString("```mermaid\n")
	w.WriteString("flowchart LR\n")
	if name != "" {
		fmt.Fprintf(w, "subgraph %s\n", name)
	}
}

func writeFooter(w *bufio.Writer, name string) {
	if name != "" {
		w.WriteString("end\n")
	}
	w.WriteString("```\n")
}
