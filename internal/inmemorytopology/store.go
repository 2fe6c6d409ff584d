package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access. Ordered slices sit next to the maps to
// keep iteration deterministic.
type Store struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*descriptor.Descriptor

	deps    map[string][]string // Key: consumer ID, Value: producer IDs
	depSet  map[string]map[string]struct{}
	revDeps map[string][]string // Key: producer ID, Value: consumer IDs
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		nodes:   make(map[string]*descriptor.Descriptor),
		deps:    make(map[string][]string),
		depSet:  make(map[string]map[string]struct{}),
		revDeps: make(map[string][]string),
	}
}

// AddNode adds a new block to the store.
func (s *Store) AddNode(ctx context.Context, d *descriptor.Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot add a nil descriptor to the topology")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := d.ID()
	if existing, exists := s.nodes[id]; exists {
		if existing == d {
			return nil
		}
		return fmt.Errorf("block '%s' is already present in the topology", id)
	}
	s.nodes[id] = d
	s.order = append(s.order, id)
	return nil
}

// AddDependency records that 'to' consumes from 'from'.
func (s *Store) AddDependency(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("dependency source block '%s' not found in topology", from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("dependency target block '%s' not found in topology", to)
	}

	if s.depSet[to] == nil {
		s.depSet[to] = make(map[string]struct{})
	}
	if _, dup := s.depSet[to][from]; dup {
		return nil
	}
	s.depSet[to][from] = struct{}{}
	s.deps[to] = append(s.deps[to], from)
	s.revDeps[from] = append(s.revDeps[from], to)
	return nil
}

// GetNode retrieves a single block by its ID.
func (s *Store) GetNode(ctx context.Context, id string) (*descriptor.Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.nodes[id]
	return d, ok
}

// AllNodes returns a snapshot of all blocks in insertion order.
func (s *Store) AllNodes(ctx context.Context) []*descriptor.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*descriptor.Descriptor, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// DependenciesOf returns the IDs of the blocks that id consumes from.
func (s *Store) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("block '%s' not found in topology", id)
	}
	return append([]string{}, s.deps[id]...), nil
}

// DependentsOf returns the IDs of the blocks that consume from id.
func (s *Store) DependentsOf(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("block '%s' not found in topology", id)
	}
	return append([]string{}, s.revDeps[id]...), nil
}
