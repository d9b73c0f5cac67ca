package kmanifest

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/birdayz/kgraph/kserde"
)

// Normalized returns a copy of the document that differs from d only where
// the difference cannot change the built graph: the name is dropped, port
// declarations are sorted by type and endpoints are written without
// whitespace. Type, node and edge order are kept since they decide IDs and
// scheduling ties.
func (d *Document) Normalized() *Document {
	n := &Document{
		Types: slices.Clone(d.Types),
		Nodes: make([]NodeDecl, len(d.Nodes)),
		Edges: make([]EdgeDecl, len(d.Edges)),
	}
	for i, node := range d.Nodes {
		node.Ports = slices.Clone(node.Ports)
		slices.SortStableFunc(node.Ports, func(a, b PortDecl) int {
			return strings.Compare(a.Type, b.Type)
		})
		if node.ID != nil {
			id := *node.ID
			node.ID = &id
		}
		n.Nodes[i] = node
	}
	for i, e := range d.Edges {
		n.Edges[i] = EdgeDecl{
			Type: e.Type,
			From: compact(e.From),
			To:   compact(e.To),
		}
	}
	return n
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

var hashSerializer = kserde.JSONSerializer[*Document]()

// Hash returns the hex SHA-256 of the normalized document in compact JSON.
// Documents describing the same graph in different formats share a hash.
func (d *Document) Hash() (string, error) {
	data, err := hashSerializer(d.Normalized())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
