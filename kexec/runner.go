package kexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/birdayz/kgraph"
	"github.com/birdayz/kgraph/kdag"
)

type typeState struct {
	plan *kgraph.TypePlan

	// storage is the []T slot table, nil until Allocate.
	storage any

	// inputs and outputs hold *T per external port index.
	inputs  map[int]any
	outputs map[int]any
}

// Runner executes a compiled plan sequentially. It is not safe for
// concurrent use: nodes share slots.
type Runner struct {
	plan       *kgraph.Plan
	log        *slog.Logger
	processors map[kdag.NodeID]Processor
	types      map[string]*typeState

	initialized bool
	runs        int
}

// New creates a Runner for plan. Cyclic plans are refused.
func New(plan *kgraph.Plan, opts ...Option) (*Runner, error) {
	if plan == nil {
		return nil, errors.New("kexec: nil plan")
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("kexec: %w", err)
	}

	r := &Runner{
		plan:       plan,
		log:        kgraph.NullLogger(),
		processors: make(map[kdag.NodeID]Processor),
		types:      make(map[string]*typeState),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, tp := range plan.Types() {
		r.types[tp.Spec().Name] = &typeState{
			plan:    tp,
			inputs:  make(map[int]any),
			outputs: make(map[int]any),
		}
	}
	return r, nil
}

// Register attaches a processor to a node.
func (r *Runner) Register(id kdag.NodeID, p Processor) error {
	if _, ok := r.plan.DAG().Node(id); !ok {
		return fmt.Errorf("kexec: register %d: %w", id, kdag.ErrNodeNotFound)
	}
	if _, exists := r.processors[id]; exists {
		return fmt.Errorf("%w: %d", ErrAlreadyRegistered, id)
	}
	r.processors[id] = p
	return nil
}

func (r *Runner) typeState(name string) (*typeState, error) {
	ts, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("kexec: %q: %w", name, kdag.ErrTypeNotFound)
	}
	return ts, nil
}

// Allocate creates the slot table of a data type: one element per buffer
// the plan needs. The returned slice is the storage nodes read and write.
func Allocate[T any](r *Runner, typeName string) ([]T, error) {
	ts, err := r.typeState(typeName)
	if err != nil {
		return nil, err
	}
	if ts.storage != nil {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyAllocated, typeName)
	}
	buf := make([]T, ts.plan.BufferCount())
	ts.storage = buf
	return buf, nil
}

// BindInput binds caller storage to the k-th external input of a data type.
func BindInput[T any](r *Runner, typeName string, k int, v *T) error {
	ts, err := r.typeState(typeName)
	if err != nil {
		return err
	}
	if k < 0 || k >= ts.plan.ExternalInputCount() {
		return fmt.Errorf("%w: %q has %d external inputs, got index %d",
			kdag.ErrPortOutOfRange, typeName, ts.plan.ExternalInputCount(), k)
	}
	ts.inputs[k] = v
	return nil
}

// BindOutput binds caller storage to the k-th external output of a data type.
func BindOutput[T any](r *Runner, typeName string, k int, v *T) error {
	ts, err := r.typeState(typeName)
	if err != nil {
		return err
	}
	if k < 0 || k >= ts.plan.ExternalOutputCount() {
		return fmt.Errorf("%w: %q has %d external outputs, got index %d",
			kdag.ErrPortOutOfRange, typeName, ts.plan.ExternalOutputCount(), k)
	}
	ts.outputs[k] = v
	return nil
}

func (r *Runner) context(id kdag.NodeID, position int) *Context {
	node, _ := r.plan.DAG().Node(id)
	return &Context{runner: r, node: node, position: position}
}

func (r *Runner) initProcessors() error {
	for pos, id := range r.plan.Order() {
		initializer, ok := r.processors[id].(Initializer)
		if !ok {
			continue
		}
		if err := initializer.Init(r.context(id, pos)); err != nil {
			return fmt.Errorf("kexec: init node %d: %w", id, err)
		}
	}
	r.initialized = true
	return nil
}

// Run executes every node once, in schedule order. The first Run initializes
// processors implementing Initializer. Cancellation is checked between
// nodes.
func (r *Runner) Run(ctx context.Context) error {
	order := r.plan.Order()
	for _, id := range order {
		if _, ok := r.processors[id]; !ok {
			return fmt.Errorf("%w: %d", ErrMissingProcessor, id)
		}
	}
	if !r.initialized {
		if err := r.initProcessors(); err != nil {
			return err
		}
	}

	for pos, id := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := r.context(id, pos)
		if err := r.processors[id].Process(ctx, c); err != nil {
			return fmt.Errorf("kexec: node %s: %w", c.Name(), err)
		}
	}

	r.runs++
	r.log.Debug("Ran schedule", "nodes", len(order), "run", r.runs)
	return nil
}

// Close closes every processor implementing io.Closer, in schedule order,
// and returns all errors.
func (r *Runner) Close() error {
	var errs error
	for _, id := range r.plan.Order() {
		closer, ok := r.processors[id].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			r.log.Error("Failed to close processor", "node", id, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("close node %d: %w", id, err))
		}
	}
	return errs
}

var (
	ErrAlreadyRegistered = errors.New("kexec: processor already registered")
	ErrMissingProcessor  = errors.New("kexec: no processor registered for node")
	ErrAlreadyAllocated  = errors.New("kexec: storage already allocated")
	ErrNotAllocated      = errors.New("kexec: storage not allocated")
	ErrUnbound           = errors.New("kexec: external port not bound")
	ErrNotConnected      = errors.New("kexec: port neither connected nor external")
	ErrTypeMismatch      = errors.New("kexec: storage type mismatch")
)
