package qtest

import (
	"sort"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Factory builds a fresh, unconfigured Test instance of a registered
// type. Concrete tests call SetLimits (and any type-specific
// configuration) after construction, mirroring how Manager.
// createQualityTest configures an allocator-built object (§4.3).
type Factory func(name, description string) *Test

// Registry is the quality-test-factory registry of §4.3/§5: a
// process-wide, init-at-load singleton, same shape as alloc.Registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty test registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for testType. Not safe to
// call concurrently with New (§5: "registration is not thread-safe and
// must occur before any worker thread consumes them").
func (r *Registry) Register(testType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[testType] = f
}

// Types returns the registered test types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// New instantiates a test of testType by name via its factory.
func (r *Registry) New(testType, name, description string) (*Test, error) {
	r.mu.RLock()
	f, ok := r.factories[testType]
	r.mu.RUnlock()
	if testType == "" {
		return nil, status.Wrapf(status.InvalidParameter, "empty quality test type")
	}
	if !ok {
		return nil, status.Wrapf(status.NotFound, "no quality test factory registered for type %q", testType)
	}
	return f(name, description), nil
}

// Default is the process-wide test-factory registry (§5).
var Default = NewRegistry()
