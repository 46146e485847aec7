// Package plugin implements the plugin manager of §2/§5: "process-wide
// singletons with init-at-load, teardown-at-exit lifecycle" that
// extend the allocator registry and the quality-test registry at
// startup. Rather than loading platform-specific .so files through
// Go's plugin package (fragile across Go versions and unavailable on
// several platforms DQM collectors run on), plugins register
// themselves by name at package-init time — the same pattern
// database/sql drivers and image codecs use — and config.C.PluginPaths
// names which already-linked plugins to activate, in the order given.
//
// Grounded on the registry shape of internal/alloc.Registry
// (typeTag -> constructor, registration is append-only and must happen
// before any worker thread consumes the registry) generalized one
// level up: a Plugin bundles calls against both internal/alloc and
// internal/qtest registries at once.
package plugin

import (
	"io"
	"sort"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/alloc"
	"github.com/dqm4hep/dqm4hep-go/internal/qtest"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Plugin is a user-supplied bundle of allocators and/or quality tests.
// Register is invoked once, at Manager.Load time, before any worker
// thread consumes the registries it touches (§5). A Plugin may
// optionally implement io.Closer for teardown-at-exit.
type Plugin interface {
	Name() string
	Register(allocators *alloc.Registry, tests *qtest.Registry) error
}

// Factory constructs a fresh Plugin instance.
type Factory func() Plugin

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a Factory available under name, so Manager.Load(name)
// can find it. Intended to be called from a plugin package's init(),
// mirroring database/sql.Register / image.RegisterFormat.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Registered lists every linked-in plugin name, sorted.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manager loads named plugins against a fixed pair of registries and
// tracks them for ordered teardown.
type Manager struct {
	mu         sync.Mutex
	allocators *alloc.Registry
	tests      *qtest.Registry
	loaded     []Plugin
}

// New returns a Manager that registers plugins into allocators and
// tests. Either may be nil to use the corresponding process-wide
// Default registry.
func New(allocators *alloc.Registry, tests *qtest.Registry) *Manager {
	if allocators == nil {
		allocators = alloc.Default
	}
	if tests == nil {
		tests = qtest.Default
	}
	return &Manager{allocators: allocators, tests: tests}
}

// Load instantiates and registers the named plugin. Registration is
// not thread-safe by design (§5): call Load only during process
// initialization.
func (m *Manager) Load(name string) error {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return status.Wrapf(status.NotFound, "no plugin registered under name %q", name)
	}
	p := factory()
	if err := p.Register(m.allocators, m.tests); err != nil {
		return status.Wrap(status.Failure, err)
	}
	m.mu.Lock()
	m.loaded = append(m.loaded, p)
	m.mu.Unlock()
	return nil
}

// LoadAll loads every name in names, in order, typically
// config.C.PluginPaths. It stops at the first error, leaving
// previously loaded plugins in place.
func (m *Manager) LoadAll(names []string) error {
	for _, name := range names {
		if err := m.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// Loaded returns the names of every plugin loaded so far, in load
// order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.loaded))
	for i, p := range m.loaded {
		names[i] = p.Name()
	}
	return names
}

// Close tears down every loaded plugin that implements io.Closer, in
// reverse load order (§5: "teardown in reverse order"), and reports
// the first error encountered while continuing to close the rest.
func (m *Manager) Close() error {
	m.mu.Lock()
	loaded := m.loaded
	m.loaded = nil
	m.mu.Unlock()

	var firstErr error
	for i := len(loaded) - 1; i >= 0; i-- {
		closer, ok := loaded[i].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
