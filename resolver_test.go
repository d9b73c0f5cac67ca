package kgraph

import (
	"math/rand/v2"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/kgraph/kalloc"
	"github.com/birdayz/kgraph/kdag"
	"github.com/birdayz/kgraph/kserde"
)

func assertTopological(t *testing.T, plan *Plan) {
	t.Helper()
	for _, e := range plan.Edges() {
		from, ok := plan.Position(e.From)
		assert.True(t, ok)
		to, ok := plan.Position(e.To)
		assert.True(t, ok)
		assert.True(t, from < to, "edge %d -> %d scheduled at %d -> %d", e.From, e.To, from, to)
	}
}

func assertResolverConsistent(t *testing.T, plan *Plan, typ kdag.TypeID) {
	t.Helper()
	tp := plan.Type(typ)
	g := plan.DAG().GetGraph()

	for _, e := range g.EdgesOf(typ) {
		ps, ok := tp.ProducerSlot(e.From.Node, e.From.Index)
		assert.True(t, ok)
		cs, ok := tp.ConsumerSlot(e.To.Node, e.To.Index)
		assert.True(t, ok)
		assert.Equal(t, ps, cs, "edge %s", e)
	}

	producers := tp.Producers()
	lifetimes := make([]kalloc.Lifetime, len(producers))
	for i, p := range producers {
		lt, ok := tp.Lifetime(p.Node, p.Index)
		assert.True(t, ok)
		lifetimes[i] = lt
	}
	assert.Equal(t, kalloc.Peak(lifetimes), tp.BufferCount())

	for i := range producers {
		si, _ := tp.ProducerSlot(producers[i].Node, producers[i].Index)
		for j := i + 1; j < len(producers); j++ {
			sj, _ := tp.ProducerSlot(producers[j].Node, producers[j].Index)
			if si == sj {
				assert.False(t, lifetimes[i].Overlaps(lifetimes[j]),
					"%s and %s share slot %d", producers[i], producers[j], si)
			}
		}
	}

	assertExternalOrder(t, plan, tp.ExternalInputs())
	assertExternalOrder(t, plan, tp.ExternalOutputs())
}

func assertExternalOrder(t *testing.T, plan *Plan, ports []kdag.Port) {
	t.Helper()
	for i := 1; i < len(ports); i++ {
		prev, _ := plan.Position(ports[i-1].Node)
		cur, _ := plan.Position(ports[i].Node)
		assert.True(t, prev < cur || (prev == cur && ports[i-1].Index < ports[i].Index),
			"%s listed before %s", ports[i-1], ports[i])
	}
}

func TestCompileProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 8))

	for iter := 0; iter < 50; iter++ {
		n := 2 + rng.IntN(40)
		d, data := randomDAG(t, rng, n, rng.Float64()*0.3)
		plan := compile(t, d)

		assert.False(t, plan.Cyclic())
		assert.Equal(t, n, len(plan.Order()))
		assertTopological(t, plan)
		assertResolverConsistent(t, plan, data)

		// Every open port is listed exactly once.
		tp := plan.Type(data)
		g := d.GetGraph()
		open := 0
		for _, id := range plan.Order() {
			node := g.Nodes[id]
			if len(node.Parents) == 0 && len(node.Children) == 0 {
				continue
			}
			pc := node.PortCount(data)
			for i := 0; i < pc.Inputs; i++ {
				if _, fed := g.Feeder(data, port(id, i)); !fed {
					open++
				}
			}
			for i := 0; i < pc.Outputs; i++ {
				if _, ok := tp.ProducerSlot(id, i); !ok {
					open++
				}
			}
		}
		assert.Equal(t, open, tp.ExternalInputCount()+tp.ExternalOutputCount())
	}
}

func TestCompileDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 34))
	d, _ := randomDAG(t, rng, 30, 0.2)

	first := compile(t, d).Snapshot()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, compile(t, d).Snapshot())
	}
}

func TestSnapshot(t *testing.T) {
	b := kdag.NewBuilder()
	data := b.MustAddType("data", false)
	b.MustAddNode(kdag.NodeSpec{ID: 1, Ports: typed(data, 0, 1)})
	b.MustAddNode(kdag.NodeSpec{ID: 2, Ports: typed(data, 2, 1)})
	b.MustAddNode(kdag.NodeSpec{ID: 3})
	b.MustConnect(data, port(1, 0), port(2, 0))

	plan := compile(t, build(t, b))
	s := plan.Snapshot()

	assert.Equal(t, Snapshot{
		Order:  []kdag.NodeID{1, 2, 3},
		Cyclic: false,
		Edges: []EdgeSnapshot{
			{Type: "data", From: PortRef{Node: 1, Port: 0}, To: PortRef{Node: 2, Port: 0}},
		},
		Types: []TypeSnapshot{{
			Name:        "data",
			BufferCount: 1,
			Producers: []ProducerSnapshot{
				{PortRef: PortRef{Node: 1, Port: 0}, Start: 0, End: 1, Slot: 0},
			},
			ExternalInputs:  []PortRef{{Node: 2, Port: 1}},
			ExternalOutputs: []PortRef{{Node: 2, Port: 0}},
		}},
	}, s)

	t.Run("json", func(t *testing.T) {
		serde := kserde.JSON[Snapshot]()
		encoded, err := serde.Serializer(s)
		assert.NoError(t, err)
		assert.Contains(t, string(encoded), `"buffer_count":1`)
		assert.Contains(t, string(encoded), `"producers":[{"node":1,"port":0,"start":0,"end":1,"slot":0}]`)

		decoded, err := serde.Deserializer(encoded)
		assert.NoError(t, err)
		assert.Equal(t, s, decoded)
	})
}

func TestPlanAccessors(t *testing.T) {
	b := kdag.NewBuilder()
	a := b.MustAddType("a", false)
	c := b.MustAddType("c", false)
	b.MustAddNode(kdag.NodeSpec{ID: 1, Ports: map[kdag.TypeID]kdag.PortCount{a: {Outputs: 1}, c: {Outputs: 1}}})
	b.MustAddNode(kdag.NodeSpec{ID: 2, Ports: map[kdag.TypeID]kdag.PortCount{a: {Inputs: 1}, c: {Inputs: 1}}})
	b.MustConnect(a, port(1, 0), port(2, 0))
	b.MustConnect(c, port(1, 0), port(2, 0))

	plan := compile(t, build(t, b))

	assert.Equal(t, 2, len(plan.Types()))
	assert.Equal(t, "c", plan.Type(c).Spec().Name)
	assert.Zero(t, plan.Type(kdag.TypeID(7)))
	_, ok := plan.TypeByName("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, plan.BufferCount())
	assert.Equal(t, []kdag.EdgePair{{From: 1, To: 2}, {From: 1, To: 2}}, plan.Edges())
	assert.NoError(t, plan.Validate())
	assert.True(t, plan.Connected())

	// Order is a copy.
	order := plan.Order()
	order[0] = 99
	assert.Equal(t, []kdag.NodeID{1, 2}, plan.Order())
}
