// Package manager implements MonitorElementManager (§4.3): the
// binding between a Storage of monitor elements, the allocator
// registry, and the quality-test registry. It is the single place
// mutating operations are serialized, per §5 ("all mutating
// operations are serialized at the Manager boundary").
package manager

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dqm4hep/dqm4hep-go/internal/alloc"
	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/qtest"
	"github.com/dqm4hep/dqm4hep-go/internal/report"
	"github.com/dqm4hep/dqm4hep-go/internal/stats"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
	"github.com/dqm4hep/dqm4hep-go/internal/storage"
)

// Manager is the MonitorElementManager of §4.3.
type Manager struct {
	mu sync.Mutex

	elements  *storage.Storage[*element.Element]
	allocator *alloc.Registry
	testTypes *qtest.Registry

	// createdTests indexes tests by the unique name given at
	// createQualityTest time (§4.3: "the name uniquely identifies the
	// configured instance").
	createdTests map[string]*qtest.Test
}

// New binds a fresh element Storage to the given allocator and
// quality-test-factory registries. Passing nil for either uses the
// process-wide default (alloc.Default, qtest.Default).
func New(allocator *alloc.Registry, testTypes *qtest.Registry) *Manager {
	if allocator == nil {
		allocator = alloc.Default
	}
	if testTypes == nil {
		testTypes = qtest.Default
	}
	return &Manager{
		elements:     storage.New[*element.Element](),
		allocator:    allocator,
		testTypes:    testTypes,
		createdTests: make(map[string]*qtest.Test),
	}
}

// Storage exposes the underlying element Storage, e.g. for an
// archiver or transport layer to iterate.
func (m *Manager) Storage() *storage.Storage[*element.Element] {
	return m.elements
}

// BookFromXML reads an element descriptor (type, name, optional
// path/title), looks up the allocator by type, constructs the
// statistics object, wraps it in a MonitorElement, and inserts it at
// the requested path (§4.3).
func (m *Manager) BookFromXML(desc alloc.Descriptor) (*element.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.allocator.New(desc)
	if err != nil {
		return nil, err
	}
	path, _ := desc.Attr("path")
	return m.book(path, desc.Name, desc.Title, desc.Type, obj)
}

// Book is the programmatic counterpart to BookFromXML: the caller has
// already constructed the statistics object (book<T> in §4.3, where
// Go's stats.Object interface already erases the concrete type).
func (m *Manager) Book(path, name, title, typeTag string, obj stats.Object) (*element.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book(path, name, title, typeTag, obj)
}

func (m *Manager) book(path, name, title, typeTag string, obj stats.Object) (*element.Element, error) {
	elem := element.New(name, title, typeTag, obj)
	fullPath, err := m.elements.Add(elem, path, func(a, b *element.Element) bool {
		return a.Name() == b.Name()
	})
	if err != nil {
		return nil, err
	}
	elem.SetPath(fullPath)
	return elem, nil
}

// Reset clears every element whose ResetPolicy calls for it
// (ResetEachRun and ResetAlways; ResetNever is left untouched),
// meant to be connected to a run control's start-of-run signal so
// that "most elements accumulate statistics for one run only" (§C.2)
// is actually honored rather than left for the caller to remember.
// An element with no live object to clear is skipped rather than
// treated as an error.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements.Iterate(func(_ *storage.Directory[*element.Element], contents []*element.Element) bool {
		for _, elem := range contents {
			if elem.ResetPolicy() == element.ResetNever {
				continue
			}
			_ = elem.Reset()
		}
		return true
	})
}

// Find looks up the element named name under path.
func (m *Manager) Find(path, name string) (*element.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(path, name)
}

func (m *Manager) find(path, name string) (*element.Element, error) {
	dir, err := m.elements.Find(path)
	if err != nil {
		return nil, err
	}
	for _, e := range dir.Contents() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, status.Wrapf(status.NotFound, "no element named %q under %q", name, path)
}

// CreateQualityTest instantiates a test by type via the test registry,
// configures its thresholds and description, and stores it under
// desc.Name (§4.3).
func (m *Manager) CreateQualityTest(desc alloc.Descriptor) (*qtest.Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	testType, _ := desc.Attr("type")
	test, err := m.testTypes.New(testType, desc.Name, desc.Title)
	if err != nil {
		return nil, err
	}
	warn, err := desc.OptionalFloat("manager.qtest", "warningLimit", 1)
	if err != nil {
		return nil, err
	}
	errLimit, err := desc.OptionalFloat("manager.qtest", "errorLimit", 0)
	if err != nil {
		return nil, err
	}
	if err := test.SetLimits(warn, errLimit); err != nil {
		return nil, err
	}
	m.createdTests[desc.Name] = test
	return test, nil
}

// AddQualityTest attaches a previously created test to the element
// addressed by (path, name) (§4.3).
func (m *Manager) AddQualityTest(path, name, testName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.createdTests[testName]; !ok {
		return status.Wrapf(status.NotFound, "no quality test created with name %q", testName)
	}
	elem, err := m.find(path, name)
	if err != nil {
		return err
	}
	elem.AttachTest(testName)
	return nil
}

// RunQualityTest runs a single attached test against one element and
// appends the resulting report into out.
func (m *Manager) RunQualityTest(path, name, testName string, out *report.Storage) error {
	m.mu.Lock()
	elem, err := m.find(path, name)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	test, ok := m.createdTests[testName]
	m.mu.Unlock()
	if !ok {
		return status.Wrapf(status.NotFound, "no quality test created with name %q", testName)
	}
	r := test.Run(elem)
	return out.Insert(r, true)
}

// RunQualityTests runs every test attached to every element in the
// storage, concurrently per element, merging all resulting reports
// into out (§4.3; fan-out via errgroup per SPEC_FULL.md §B).
func (m *Manager) RunQualityTests(ctx context.Context, out *report.Storage) error {
	type job struct {
		elem     *element.Element
		testName string
	}

	m.mu.Lock()
	var jobs []job
	m.elements.Iterate(func(_ *storage.Directory[*element.Element], contents []*element.Element) bool {
		for _, elem := range contents {
			for _, testName := range elem.AttachedTests() {
				jobs = append(jobs, job{elem: elem, testName: testName})
			}
		}
		return true
	})
	tests := make(map[string]*qtest.Test, len(m.createdTests))
	for k, v := range m.createdTests {
		tests[k] = v
	}
	m.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		test, ok := tests[j.testName]
		if !ok {
			continue
		}
		g.Go(func() error {
			r := test.Run(j.elem)
			if err := out.Insert(r, true); err != nil && err != status.Unchanged {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
