// Package kgraph compiles static dataflow graphs into execution plans.
//
// A graph is built with kdag.Builder: nodes expose typed input and output
// ports and edges connect an output to an input of the same data type. Each
// input accepts exactly one producer; an output may fan out.
//
// Compile turns the built graph into a Plan:
//
//	b := kdag.NewBuilder()
//	audio := b.MustAddType("audio", false)
//	b.MustAddNode(kdag.NodeSpec{ID: 1, Ports: map[kdag.TypeID]kdag.PortCount{audio: {Outputs: 1}}})
//	b.MustAddNode(kdag.NodeSpec{ID: 2, Ports: map[kdag.TypeID]kdag.PortCount{audio: {Inputs: 1}}})
//	b.MustConnect(audio, kdag.Port{Node: 1}, kdag.Port{Node: 2})
//
//	plan, err := kgraph.Compile(b.MustBuild())
//
// The plan carries the node order, which respects every edge and puts
// higher-priority nodes first when several are ready. Per data type it also
// carries the slot each output writes and each input reads. Slots are
// shared by values whose lifetimes do not overlap, so the number of slots is
// the largest number of values alive at any point of the schedule.
//
// Ports not connected inside the graph are external: the caller binds
// storage to them by position (see package kexec).
package kgraph
