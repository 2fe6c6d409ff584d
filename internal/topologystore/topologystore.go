// Package topologystore defines the interface for storing and retrieving the
// block-level structure of a signal graph.
//
// The store isolates which blocks exist and which block feeds which from the
// port-level detail kept by the signal graph. The schedule builder only needs
// the former: a producer must run before its consumers.
//
// The topology is created per compilation pass, populated while wires are
// resolved and read-only afterwards.
package topologystore

import (
	"context"

	"github.com/specialistvlad/rcpgrid/internal/descriptor"
)

// Store manages the block topology of one diagram.
//
// Implementations must be safe for concurrent use and must return nodes and
// dependencies in insertion order so that every consumer of the topology is
// deterministic.
type Store interface {
	// AddNode registers a block. Adding the same descriptor twice is a no-op;
	// adding a different descriptor under an existing ID is an error.
	AddNode(ctx context.Context, d *descriptor.Descriptor) error

	// AddDependency records that the block 'to' consumes a signal produced by
	// the block 'from'. Both blocks must already exist. Repeated edges are
	// collapsed. A block may depend on itself.
	AddDependency(ctx context.Context, from, to string) error

	// GetNode retrieves a single block by its ID.
	GetNode(ctx context.Context, id string) (*descriptor.Descriptor, bool)

	// AllNodes returns every block in insertion order.
	AllNodes(ctx context.Context) []*descriptor.Descriptor

	// DependenciesOf returns the IDs of the blocks that id consumes from.
	DependenciesOf(ctx context.Context, id string) ([]string, error)

	// DependentsOf returns the IDs of the blocks that consume from id.
	DependentsOf(ctx context.Context, id string) ([]string, error)
}
