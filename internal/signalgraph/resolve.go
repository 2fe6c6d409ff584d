package signalgraph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/inmemorytopology"
	"github.com/specialistvlad/rcpgrid/internal/portref"
)

// Resolve binds the wires of a diagram to the ports of its descriptors.
// Errors are reported for the first offending wire or block in declaration
// order, so the same input always yields the same error.
func Resolve(ctx context.Context, descs []*descriptor.Descriptor, wires []Wire) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving port bindings.", "blocks", len(descs), "wires", len(wires))

	g := &Graph{
		descriptors: make([]*descriptor.Descriptor, 0, len(descs)),
		position:    make(map[string]int, len(descs)),
		topology:    inmemorytopology.New(),
		producer:    make(map[inputKey]int),
		outgoing:    make(map[string][]int),
	}

	for _, d := range descs {
		if d == nil {
			return nil, fmt.Errorf("nil descriptor at position %d", len(g.descriptors))
		}
		if _, dup := g.position[d.ID()]; dup {
			return nil, &descriptor.SchemaError{Block: d.ID(), Kind: d.Name(), Reason: "duplicate block id"}
		}
		if err := g.topology.AddNode(ctx, d); err != nil {
			return nil, err
		}
		g.position[d.ID()] = len(g.descriptors)
		g.descriptors = append(g.descriptors, d)
	}

	for _, w := range wires {
		if err := g.bind(ctx, w); err != nil {
			return nil, err
		}
	}

	if err := g.checkConnected(); err != nil {
		return nil, err
	}

	logger.Debug("Port bindings resolved.", "edges", len(g.edges))
	return g, nil
}

func (g *Graph) bind(ctx context.Context, w Wire) error {
	if _, err := g.checkPort(w.From, portref.Out); err != nil {
		return err
	}
	if len(w.To) == 0 {
		src, _ := g.Descriptor(w.From.Block)
		return &PortArityMismatch{Ref: w.From, Declared: src.NumOutputs(), Reason: "wire has no destination ports"}
	}

	for _, to := range w.To {
		if _, err := g.checkPort(to, portref.In); err != nil {
			return err
		}

		key := inputKey{block: to.Block, index: to.Index}
		if idx, bound := g.producer[key]; bound {
			return &FanInConflictError{Input: to, Bound: g.edges[idx].From, Incoming: w.From}
		}

		idx := len(g.edges)
		g.edges = append(g.edges, Edge{From: w.From, To: to})
		g.producer[key] = idx
		g.outgoing[w.From.Block] = append(g.outgoing[w.From.Block], idx)

		if err := g.topology.AddDependency(ctx, w.From.Block, to.Block); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Bound port.", "from", w.From.String(), "to", to.String())
	}
	return nil
}

// checkPort verifies that ref names an existing port on the expected side.
func (g *Graph) checkPort(ref portref.Ref, side portref.Side) (*descriptor.Descriptor, error) {
	d, ok := g.Descriptor(ref.Block)
	if !ok {
		return nil, &PortArityMismatch{Ref: ref, Declared: 0, Reason: "unknown block"}
	}

	declared := d.NumOutputs()
	if ref.Side == portref.In {
		declared = d.NumInputs()
	}

	if ref.Side != side {
		reason := "wire source must be an output port"
		if side == portref.In {
			reason = "wire destination must be an input port"
		}
		return nil, &PortArityMismatch{Ref: ref, Declared: declared, Reason: reason}
	}
	if ref.Index < 0 || ref.Index >= declared {
		return nil, &PortArityMismatch{Ref: ref, Declared: declared, Reason: "port index out of range"}
	}
	return d, nil
}

// checkConnected requires every input of a sink or inline block to be bound.
func (g *Graph) checkConnected() error {
	for _, d := range g.descriptors {
		if d.Direction() == descriptor.Source {
			continue
		}
		for i := 0; i < d.NumInputs(); i++ {
			if _, bound := g.producer[inputKey{block: d.ID(), index: i}]; !bound {
				return &UnconnectedPortError{Block: d.ID(), Kind: d.Name(), Port: i}
			}
		}
	}
	return nil
}
