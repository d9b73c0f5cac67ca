package kexec

import "context"

// Processor is the behavior attached to one node. Process is called once per
// Run, in schedule order. Inputs and outputs are reached through the Context.
type Processor interface {
	Process(ctx context.Context, c *Context) error
}

// Initializer is implemented by processors that need setup before the first
// Run.
type Initializer interface {
	Init(c *Context) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, c *Context) error

func (f ProcessorFunc) Process(ctx context.Context, c *Context) error {
	return f(ctx, c)
}
