// Package compiler runs one compilation pass: it turns a loaded diagram into
// descriptors, binds their wires, claims their bus slots and orders the
// result into an execution schedule.
package compiler

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/specialistvlad/rcpgrid/internal/busregistry"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/diagram"
	"github.com/specialistvlad/rcpgrid/internal/kindreg"
	"github.com/specialistvlad/rcpgrid/internal/schedule"
	"github.com/specialistvlad/rcpgrid/internal/signalgraph"
)

// Result is everything a successful pass produces.
type Result struct {
	PassID       string
	Descriptors  []*descriptor.Descriptor
	Graph        *signalgraph.Graph
	Transactions []busregistry.Transaction
	Steps        []schedule.Step
}

// Compile runs a full pass over d. kinds is only read and may be shared
// between concurrent passes. On failure the result is nil.
func Compile(ctx context.Context, kinds *kindreg.Registry, d *diagram.Diagram) (*Result, error) {
	if kinds == nil || d == nil {
		return nil, fmt.Errorf("compile: kind registry and diagram are required")
	}

	passID := xid.New().String()
	ctx = ctxlog.WithPass(ctx, passID)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compilation pass started.", "blocks", len(d.Blocks), "wires", len(d.Wires), "buses", len(d.Buses))

	descs, err := construct(ctx, kinds, d)
	if err != nil {
		return nil, err
	}

	wires := make([]signalgraph.Wire, 0, len(d.Wires))
	for _, w := range d.Wires {
		wires = append(wires, signalgraph.Wire{From: w.From, To: w.To})
	}
	graph, err := signalgraph.Resolve(ctx, descs, wires)
	if err != nil {
		return nil, err
	}

	buses := busregistry.New()
	for _, desc := range descs {
		if _, onBus := desc.Bus(); !onBus {
			continue
		}
		if err := buses.Register(ctx, desc); err != nil {
			return nil, err
		}
	}
	txs := buses.Finalize(ctx)

	steps, err := schedule.Build(ctx, graph, txs)
	if err != nil {
		return nil, err
	}

	logger.Info("Compilation pass finished.", "descriptors", len(descs), "transactions", len(txs), "steps", len(steps))
	return &Result{
		PassID:       passID,
		Descriptors:  descs,
		Graph:        graph,
		Transactions: txs,
		Steps:        steps,
	}, nil
}

// construct builds the descriptors in declaration order, filling unset
// fields from the block's kind.
func construct(ctx context.Context, kinds *kindreg.Registry, d *diagram.Diagram) ([]*descriptor.Descriptor, error) {
	descs := make([]*descriptor.Descriptor, 0, len(d.Blocks))

	for _, b := range d.Blocks {
		kind, ok := kinds.Lookup(b.Kind)
		if !ok {
			return nil, &descriptor.SchemaError{Block: b.ID, Kind: b.Kind, Reason: "unknown block kind"}
		}

		args := descriptor.Args{
			ID:        b.ID,
			Name:      b.Kind,
			Inputs:    deref(b.Inputs, kind.MinInputs),
			Outputs:   deref(b.Outputs, kind.MinOutputs),
			Timing:    deref(b.Timing, kind.Timing),
			Direction: deref(b.Direction, kind.Direction),
			Params:    b.Params,
		}
		if b.Bus != "" {
			bus, ok := d.Bus(b.Bus)
			if !ok {
				return nil, &descriptor.SchemaError{Block: b.ID, Kind: b.Kind, Reason: fmt.Sprintf("unknown bus %q", b.Bus)}
			}
			args.Bus = bus.Handle()
		}

		desc, err := descriptor.Construct(kind, args)
		if err != nil {
			return nil, err
		}
		ctxlog.ForBlock(ctx, desc.ID()).Debug("Descriptor constructed.", "kind", desc.Name(), "declared_at", b.DeclRange.String())
		descs = append(descs, desc)
	}
	return descs, nil
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
