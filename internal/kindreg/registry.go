package kindreg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/rcpgrid/internal/descriptor"
)

// Registry maps kind names to their schemas.
type Registry struct {
	mu      sync.RWMutex
	kinds   map[string]*descriptor.Kind
	origins map[string]string
}

// New creates an empty registry. Call LoadBuiltins to add the shipped kinds.
func New() *Registry {
	return &Registry{
		kinds:   make(map[string]*descriptor.Kind),
		origins: make(map[string]string),
	}
}

// Register validates and adds a kind. origin names where the kind was
// declared and is only used in error messages.
func (r *Registry) Register(kind *descriptor.Kind, origin string) error {
	if kind == nil {
		return fmt.Errorf("cannot register a nil kind")
	}
	if err := kind.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.kinds[kind.Name]; exists {
		return fmt.Errorf("kind %q declared in %s is already registered from %s", prev.Name, origin, r.origins[kind.Name])
	}
	r.kinds[kind.Name] = kind
	r.origins[kind.Name] = origin
	return nil
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (*descriptor.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Origin returns where the named kind was declared.
func (r *Registry) Origin(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.origins[name]
}

// Kinds returns all registered kinds sorted by name.
func (r *Registry) Kinds() []*descriptor.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*descriptor.Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Construct looks the kind named by args up and builds a descriptor from it.
// An unknown kind is reported as a descriptor.SchemaError.
func (r *Registry) Construct(args descriptor.Args) (*descriptor.Descriptor, error) {
	kind, _ := r.Lookup(args.Name)
	return descriptor.Construct(kind, args)
}
