package kmanifest

import (
	"fmt"

	"github.com/birdayz/kgraph/kdag"
)

// NodeIDs assigns an ID to every node: explicit IDs are kept, the others
// get the lowest unused non-negative ID in declaration order.
func (d *Document) NodeIDs() (map[string]kdag.NodeID, error) {
	ids := make(map[string]kdag.NodeID, len(d.Nodes))
	used := make(map[kdag.NodeID]string, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == nil {
			continue
		}
		id := kdag.NodeID(*n.ID)
		if other, exists := used[id]; exists {
			return nil, fmt.Errorf("%w: nodes %q and %q share id %d", kdag.ErrNodeAlreadyExists, other, n.Name, id)
		}
		used[id] = n.Name
		ids[n.Name] = id
	}

	next := kdag.NodeID(0)
	for _, n := range d.Nodes {
		if n.ID != nil {
			continue
		}
		for used[next] != "" {
			next++
		}
		used[next] = n.Name
		ids[n.Name] = next
	}
	return ids, nil
}

// Build validates the document and turns it into a DAG.
func (d *Document) Build() (*kdag.DAG, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.NodeIDs()
	if err != nil {
		return nil, err
	}

	b := kdag.NewBuilder()
	for _, t := range d.Types {
		if _, err := b.AddType(t.Name, t.Strict); err != nil {
			return nil, err
		}
	}

	g := b.GetGraph()
	typeID := func(name string) (kdag.TypeID, error) {
		spec, ok := g.TypeByName(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", kdag.ErrTypeNotFound, name)
		}
		return spec.ID, nil
	}

	for _, n := range d.Nodes {
		ports := make(map[kdag.TypeID]kdag.PortCount, len(n.Ports))
		for _, p := range n.Ports {
			t, err := typeID(p.Type)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			ports[t] = kdag.PortCount{Inputs: p.Inputs, Outputs: p.Outputs}
		}
		err := b.AddNode(kdag.NodeSpec{
			ID:       ids[n.Name],
			Name:     n.Name,
			Priority: n.Priority,
			Ports:    ports,
		})
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
	}

	port := func(e endpoint) (kdag.Port, error) {
		id, ok := ids[e.node]
		if !ok {
			return kdag.Port{}, fmt.Errorf("%w: %q", ErrUnknownNode, e.node)
		}
		return kdag.Port{Node: id, Index: e.port}, nil
	}

	for i, e := range d.Edges {
		t, err := typeID(e.Type)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		from, err := parseEndpoint(e.From)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		to, err := parseEndpoint(e.To)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		src, err := port(from)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		dst, err := port(to)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if err := b.Connect(t, src, dst); err != nil {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w", i, from, to, err)
		}
	}

	return b.Build()
}
