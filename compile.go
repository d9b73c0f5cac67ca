package kgraph

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/birdayz/kgraph/kdag"
)

// Compile derives the execution plan of a built DAG.
//
// The DAG's schedule is shared by all data types. For each type the edges
// carrying it are allocated to buffer slots and the resolver tables are
// built. Strict types with open ports fail compilation with every violation
// aggregated into the returned error.
//
// A cyclic DAG still compiles unless WithCycleRejection is given; check
// Plan.Cyclic or Plan.Validate before executing the plan.
func Compile(d *kdag.DAG, opts ...Option) (*Plan, error) {
	if d == nil {
		return nil, ErrNilDAG
	}
	cfg := newConfig(opts)
	g := d.GetGraph()
	schedule := d.Schedule()

	if schedule.Cyclic && cfg.rejectCycles {
		if err := g.DetectCycle(); err != nil {
			return nil, fmt.Errorf("kgraph: compile: %w", err)
		}
		return nil, fmt.Errorf("kgraph: compile: %w", kdag.ErrCycleDetected)
	}

	strict := make(map[kdag.TypeID]bool, len(cfg.strictTypes))
	for _, name := range cfg.strictTypes {
		spec, ok := g.TypeByName(name)
		if !ok {
			return nil, fmt.Errorf("kgraph: strict type %q: %w", name, kdag.ErrTypeNotFound)
		}
		strict[spec.ID] = true
	}

	plan := &Plan{
		dag:      d,
		schedule: schedule,
		types:    make([]*TypePlan, 0, len(g.Types)),
		byName:   make(map[string]*TypePlan, len(g.Types)),
	}

	var errs error
	for _, spec := range g.Types {
		tp, err := newTypePlan(g, schedule, spec, spec.Strict || strict[spec.ID])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		plan.types = append(plan.types, tp)
		plan.byName[spec.Name] = tp
	}
	if errs != nil {
		return nil, errs
	}

	if schedule.Cyclic {
		cfg.log.Warn("Graph contains a cycle, using declaration order", "nodes", len(schedule.Order))
	}
	for _, tp := range plan.types {
		cfg.log.Debug("Compiled data type",
			"type", tp.spec.Name,
			"producers", tp.table.Registry().Len(),
			"buffers", tp.BufferCount(),
			"external_inputs", tp.ExternalInputCount(),
			"external_outputs", tp.ExternalOutputCount())
	}
	cfg.log.Debug("Compiled graph",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"types", len(g.Types),
		"cyclic", schedule.Cyclic)

	return plan, nil
}

// MustCompile is like Compile but panics on error or on a cyclic graph.
func MustCompile(d *kdag.DAG, opts ...Option) *Plan {
	plan, err := Compile(d, opts...)
	if err != nil {
		panic(err)
	}
	if err := plan.Validate(); err != nil {
		panic(err)
	}
	return plan
}
