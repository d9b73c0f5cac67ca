package kdag

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestWriteMermaid(t *testing.T) {
	d := newTestDAG(t,
		[]testNode{{id: 1, outputs: 1}, {id: 2, inputs: 1}, {id: 3}},
		[]testEdge{{from: 1, to: 2}})

	t.Run("unnamed", func(t *testing.T) {
		var sb strings.Builder
		assert.NoError(t, WriteMermaid(&sb, d, ""))
		assert.Equal(t, "```mermaid\nflowchart LR\n1 --> 2\n3\n```\n", sb.String())
	})

	t.Run("named", func(t *testing.T) {
		var sb strings.Builder
		assert.NoError(t, WriteMermaid(&sb, d, "synth"))
		assert.Equal(t, "```mermaid\nflowchart LR\nsubgraph synth\n1 --> 2\n3\nend\n```\n", sb.String())
	})
}

func TestWriteMermaidPipeline(t *testing.T) {
	nodes, edges := chain(3)
	d := newTestDAG(t, nodes, edges)

	var sb strings.Builder
	assert.NoError(t, WriteMermaidPipeline(&sb, d, ""))
	assert.Equal(t, "```mermaid\nflowchart LR\n0 --> 1 --> 2\n```\n", sb.String())
}
