package kdag

import (
	"math/rand/v2"
	"testing"
)

// BenchmarkBuildSmallDAG benchmarks building a small chain (10 nodes)
func BenchmarkBuildSmallDAG(b *testing.B) {
	benchmarkChain(b, 10)
}

// BenchmarkBuildMediumDAG benchmarks building a medium chain (100 nodes)
func BenchmarkBuildMediumDAG(b *testing.B) {
	benchmarkChain(b, 100)
}

// BenchmarkBuildLargeDAG benchmarks building a large chain (1000 nodes)
func BenchmarkBuildLargeDAG(b *testing.B) {
	benchmarkChain(b, 1000)
}

func benchmarkChain(b *testing.B, n int) {
	nodes, edges := chain(n)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		newTestDAG(b, nodes, edges)
	}
}

// BenchmarkTopologicalSortDense benchmarks scheduling a dense random DAG.
func BenchmarkTopologicalSortDense(b *testing.B) {
	nodes, edges := randomDAG(rand.New(rand.NewPCG(3, 4)), 300, 0.1)
	g := newTestDAG(b, nodes, edges).GetGraph()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if s := g.TopologicalSort(); s.Cyclic {
			b.Fatal("unexpected cycle")
		}
	}
}
