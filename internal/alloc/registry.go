// Package alloc implements the pluggable, XML-driven allocation
// mechanism (§4.2): a registry mapping a declarative type tag to a
// function that freshly constructs a statistics object. The registry
// itself is grounded on the teacher's internal/block.Factory.New, which
// switches on a reference's concrete type to decide how to build a
// Block; here the switch becomes a lookup table so third-party plugins
// can extend it at process start (§5: "process-wide singletons with
// init-at-load ... registration is not thread-safe and must occur
// before any worker thread consumes them").
package alloc

import (
	"sort"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/stats"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Allocator constructs a freshly-initialized statistics object from a
// Descriptor. Each Allocator declares, through the Descriptor
// Require*/Optional* helpers it calls, which XML attributes it needs.
type Allocator func(d Descriptor) (stats.Object, error)

// Registry is a typeTag -> Allocator mapping. The zero value is not
// ready for use; call NewRegistry.
type Registry struct {
	mu         sync.RWMutex
	allocators map[string]Allocator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{allocators: make(map[string]Allocator)}
}

// Register adds (or replaces) the allocator for typeTag. Registration
// is append-only by convention: call it only during process
// initialization, before any worker thread consumes the registry (§5).
func (r *Registry) Register(typeTag string, a Allocator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocators[typeTag] = a
}

// TypeTags returns the registered type tags in sorted order, for
// diagnostics.
func (r *Registry) TypeTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.allocators))
	for t := range r.allocators {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// New looks up the allocator named by d.Type and invokes it. A type tag
// with no registered allocator is a status.NotFound; a missing required
// attribute surfaces as status.InvalidParameter from the Allocator
// itself.
func (r *Registry) New(d Descriptor) (stats.Object, error) {
	if d.Type == "" {
		return nil, status.Wrapf(status.InvalidParameter, "element descriptor: missing required attribute %q", "type")
	}
	r.mu.RLock()
	a, ok := r.allocators[d.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, status.Wrapf(status.NotFound, "no allocator registered for type %q", d.Type)
	}
	return a(d)
}

// Default is the process-wide registry, pre-populated with the
// built-in allocators (histograms, profiles, scalars) by init() in
// builtins.go. Plugins append to it at startup from their Register
// hook, run by plugin.Manager.Load/LoadAll (see internal/plugin).
var Default = NewRegistry()
