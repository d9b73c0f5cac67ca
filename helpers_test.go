package kgraph

import (
	"math/rand/v2"
	"testing"

	"github.com/birdayz/kgraph/kdag"
)

// typed returns a port map with the given counts on a single type.
func typed(t kdag.TypeID, inputs, outputs int) map[kdag.TypeID]kdag.PortCount {
	return map[kdag.TypeID]kdag.PortCount{t: {Inputs: inputs, Outputs: outputs}}
}

func port(node kdag.NodeID, index int) kdag.Port {
	return kdag.Port{Node: node, Index: index}
}

func build(t testing.TB, b *kdag.Builder) *kdag.DAG {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

func compile(t testing.TB, d *kdag.DAG, opts ...Option) *Plan {
	t.Helper()
	plan, err := Compile(d, opts...)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return plan
}

// randomDAG builds an acyclic graph over one "data" type. Node i may feed
// node j only for i < j, on a fresh output port; each input is fed at most
// once and some inputs stay open. Priorities are random.
func randomDAG(t testing.TB, rng *rand.Rand, n int, density float64) (*kdag.DAG, kdag.TypeID) {
	t.Helper()
	type pending struct{ from, to kdag.NodeID }

	var links []pending
	outputs := make([]int, n)
	inputs := make([]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < density {
				links = append(links, pending{kdag.NodeID(i), kdag.NodeID(j)})
			}
		}
	}
	// Shuffle the declaration order so that enumeration differs from IDs.
	rng.Shuffle(len(links), func(a, b int) { links[a], links[b] = links[b], links[a] })

	b := kdag.NewBuilder()
	data := b.MustAddType("data", false)

	fromPort := make([]int, len(links))
	toPort := make([]int, len(links))
	for k, l := range links {
		// Reuse an existing output now and then to get fan-out.
		if outputs[l.from] > 0 && rng.IntN(3) == 0 {
			fromPort[k] = rng.IntN(outputs[l.from])
		} else {
			fromPort[k] = outputs[l.from]
			outputs[l.from]++
		}
		toPort[k] = inputs[l.to]
		inputs[l.to]++
	}

	for i := 0; i < n; i++ {
		extraIn, extraOut := rng.IntN(2), rng.IntN(2)
		b.MustAddNode(kdag.NodeSpec{
			ID:       kdag.NodeID(i),
			Priority: rng.IntN(4),
			Ports:    typed(data, inputs[i]+extraIn, outputs[i]+extraOut),
		})
	}
	for k, l := range links {
		b.MustConnect(data, port(l.from, fromPort[k]), port(l.to, toPort[k]))
	}
	return build(t, b), data
}
