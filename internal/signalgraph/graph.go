package signalgraph

import (
	"context"
	"sort"

	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/portref"
	"github.com/specialistvlad/rcpgrid/internal/topologystore"
)

// Wire binds one output port to one or more input ports.
type Wire struct {
	From portref.Ref
	To   []portref.Ref
}

// Edge is one resolved producer to consumer binding.
type Edge struct {
	From portref.Ref
	To   portref.Ref
}

type inputKey struct {
	block string
	index int
}

// Graph is the resolved signal graph of one diagram. It is immutable.
type Graph struct {
	descriptors []*descriptor.Descriptor
	position    map[string]int
	topology    topologystore.Store

	edges    []Edge
	producer map[inputKey]int // input slot -> index into edges
	outgoing map[string][]int // producer block -> indices into edges
}

// Descriptors returns the blocks in declaration order.
func (g *Graph) Descriptors() []*descriptor.Descriptor {
	return append([]*descriptor.Descriptor(nil), g.descriptors...)
}

// Descriptor looks a block up by ID.
func (g *Graph) Descriptor(id string) (*descriptor.Descriptor, bool) {
	pos, ok := g.position[id]
	if !ok {
		return nil, false
	}
	return g.descriptors[pos], true
}

// Position returns the declaration index of a block, or -1.
func (g *Graph) Position(id string) int {
	if pos, ok := g.position[id]; ok {
		return pos
	}
	return -1
}

// Edges returns every binding in wire order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Producers returns the bindings driving the inputs of block id, ordered by
// input index.
func (g *Graph) Producers(id string) []Edge {
	var out []Edge
	for key, idx := range g.producer {
		if key.block == id {
			out = append(out, g.edges[idx])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To.Index < out[j].To.Index })
	return out
}

// Consumers returns the bindings fed by the outputs of block id in wire
// order.
func (g *Graph) Consumers(id string) []Edge {
	idxs := g.outgoing[id]
	out := make([]Edge, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, g.edges[idx])
	}
	return out
}

// Source returns the output port driving the given input port.
func (g *Graph) Source(in portref.Ref) (portref.Ref, bool) {
	idx, ok := g.producer[inputKey{block: in.Block, index: in.Index}]
	if !ok || in.Side != portref.In {
		return portref.Ref{}, false
	}
	return g.edges[idx].From, true
}

// DependenciesOf returns the IDs of the blocks that feed block id, in the
// order their wires were declared.
func (g *Graph) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	return g.topology.DependenciesOf(ctx, id)
}

// DependentsOf returns the IDs of the blocks fed by block id.
func (g *Graph) DependentsOf(ctx context.Context, id string) ([]string, error) {
	return g.topology.DependentsOf(ctx, id)
}
