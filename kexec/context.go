package kexec

import (
	"fmt"

	"github.com/birdayz/kgraph/kdag"
)

// Context gives a running node access to its ports.
type Context struct {
	runner   *Runner
	node     *kdag.Node
	position int
}

// Node returns the ID of the running node.
func (c *Context) Node() kdag.NodeID {
	return c.node.ID
}

// Name returns the label of the running node.
func (c *Context) Name() string {
	return c.node.Label()
}

// Position returns the schedule position of the running node.
func (c *Context) Position() int {
	return c.position
}

// Input returns the value read by input port of the running node. Ports fed
// by an edge resolve to the producer's slot; open ports resolve to the
// storage bound with BindInput. A declared port that is neither fed nor
// external, as on a node with no edges of the type, yields ErrNotConnected.
func Input[T any](c *Context, typeName string, port int) (*T, error) {
	ts, err := c.runner.typeState(typeName)
	if err != nil {
		return nil, err
	}
	if slot, ok := ts.plan.ConsumerSlot(c.node.ID, port); ok {
		return slotOf[T](ts, typeName, slot)
	}
	k, ok := ts.plan.ExternalInputIndex(kdag.Port{Node: c.node.ID, Index: port})
	if !ok {
		return nil, c.missing(ts, typeName, kdag.Input, port)
	}
	return bound[T](ts.inputs[k], typeName, kdag.Input, k)
}

// Output returns the value written by output port of the running node. It
// fails like Input for ports without a slot or binding.
func Output[T any](c *Context, typeName string, port int) (*T, error) {
	ts, err := c.runner.typeState(typeName)
	if err != nil {
		return nil, err
	}
	if slot, ok := ts.plan.ProducerSlot(c.node.ID, port); ok {
		return slotOf[T](ts, typeName, slot)
	}
	k, ok := ts.plan.ExternalOutputIndex(kdag.Port{Node: c.node.ID, Index: port})
	if !ok {
		return nil, c.missing(ts, typeName, kdag.Output, port)
	}
	return bound[T](ts.outputs[k], typeName, kdag.Output, k)
}

// missing explains why a port resolved to neither a slot nor a binding.
func (c *Context) missing(ts *typeState, typeName string, dir kdag.Direction, port int) error {
	pc := c.node.PortCount(ts.plan.Spec().ID)
	n := pc.Inputs
	if dir == kdag.Output {
		n = pc.Outputs
	}
	if port < 0 || port >= n {
		return fmt.Errorf("%w: node %s has no %q %s %d", kdag.ErrPortOutOfRange, c.Name(), typeName, dir, port)
	}
	return fmt.Errorf("%w: %q %s %d of node %s", ErrNotConnected, typeName, dir, port, c.Name())
}

func slotOf[T any](ts *typeState, typeName string, slot int) (*T, error) {
	if ts.storage == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotAllocated, typeName)
	}
	buf, ok := ts.storage.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, requested %T", ErrTypeMismatch, typeName, ts.storage, buf)
	}
	return &buf[slot], nil
}

func bound[T any](v any, typeName string, dir kdag.Direction, k int) (*T, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %q external %s %d", ErrUnbound, typeName, dir, k)
	}
	p, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %q external %s %d holds %T, requested %T", ErrTypeMismatch, typeName, dir, k, v, p)
	}
	return p, nil
}
