// Package element implements the monitor element envelope (§3): a thin
// wrapper around a live statistics object plus an optional reference
// object, attached quality tests, and presentation metadata.
//
// The lifecycle mirrors the teacher's internal/tree.Node: constructed
// by an owning factory (there, from storage; here, by a
// manager.MonitorElementManager via an allocator), attached to a
// directory on insertion (the path is then assigned, just as
// tree.Node.Path is only meaningful once linked into the tree), and
// mutated in place by the owning analysis module while the run is
// active.
package element

import (
	"fmt"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/stats"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// ResetPolicy controls when MonitorElementManager.Reset clears an
// element's object, supplementing spec.md with the reset policy
// carried by the original DQMMonitorElement (see SPEC_FULL.md §C.2).
type ResetPolicy int

const (
	// ResetEachRun clears the element at every start of run (the
	// default: most elements accumulate statistics for one run only).
	ResetEachRun ResetPolicy = iota
	// ResetNever means the element accumulates across runs until the
	// process exits.
	ResetNever
	// ResetAlways means the element is cleared by
	// MonitorElementManager.Reset exactly as ResetEachRun is; no
	// end-of-cycle clearing exists for it.
	ResetAlways
)

// DrawHints carries presentation hints the spec (§3) describes as
// optional: draw option plus a style record. Neither is interpreted by
// the core; they pass through to UI clients, which are out of scope
// (§1).
type DrawHints struct {
	DrawOption string
	Style      map[string]string
}

// Element is the MonitorElement of §3.
type Element struct {
	mu sync.RWMutex

	name  string
	title string
	path  string // assigned by Storage on insertion; empty until then

	object    stats.Object
	reference stats.Object

	description string
	resetPolicy ResetPolicy
	quality     float64 // the element's own quality, distinct from any QualityTestReport's (SPEC_FULL.md §C.2)

	hints DrawHints

	// attachedTests records the names of quality tests attached to
	// this element. The tests themselves are never owned here — only
	// the manager's test registry owns them (§4.3); this is a set of
	// names, a non-owning reference by identity.
	attachedTests map[string]struct{}
}

// New constructs a MonitorElement wrapping obj. The path is assigned
// later, on insertion into a Storage.
func New(name, title, typeTag string, obj stats.Object) *Element {
	return &Element{
		name:          name,
		title:         title,
		object:        obj,
		resetPolicy:   ResetEachRun,
		attachedTests: make(map[string]struct{}),
	}
}

func (e *Element) Name() string { e.mu.RLock(); defer e.mu.RUnlock(); return e.name }

func (e *Element) Title() string { e.mu.RLock(); defer e.mu.RUnlock(); return e.title }

func (e *Element) SetTitle(title string) { e.mu.Lock(); defer e.mu.Unlock(); e.title = title }

// Type returns the string tag of the underlying statistics class
// (§3: "type (string tag of the statistics class)").
func (e *Element) Type() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.object == nil {
		return ""
	}
	return e.object.TypeTag()
}

func (e *Element) Path() string { e.mu.RLock(); defer e.mu.RUnlock(); return e.path }

// SetPath is called by Storage on insertion, with the full path of the
// directory the element was added to.
func (e *Element) SetPath(path string) { e.mu.Lock(); defer e.mu.Unlock(); e.path = path }

// Object returns the live statistics handle. Nil is a legal return
// value (an element can be constructed, then have its object reset to
// nil by a failed allocator — §4.4 step 2 treats this as a condition
// for a short-circuited quality test).
func (e *Element) Object() stats.Object { e.mu.RLock(); defer e.mu.RUnlock(); return e.object }

// SetObject replaces the live statistics handle.
func (e *Element) SetObject(obj stats.Object) { e.mu.Lock(); defer e.mu.Unlock(); e.object = obj }

// Reference returns the optional comparison object, or nil.
func (e *Element) Reference() stats.Object { e.mu.RLock(); defer e.mu.RUnlock(); return e.reference }

func (e *Element) SetReference(ref stats.Object) { e.mu.Lock(); defer e.mu.Unlock(); e.reference = ref }

func (e *Element) Description() string { e.mu.RLock(); defer e.mu.RUnlock(); return e.description }

func (e *Element) SetDescription(d string) { e.mu.Lock(); defer e.mu.Unlock(); e.description = d }

func (e *Element) ResetPolicy() ResetPolicy { e.mu.RLock(); defer e.mu.RUnlock(); return e.resetPolicy }

func (e *Element) SetResetPolicy(p ResetPolicy) { e.mu.Lock(); defer e.mu.Unlock(); e.resetPolicy = p }

// Quality is the element's own quality scalar, set directly by the
// owning module — distinct from, and set independently of, any
// QualityTestReport produced by running a quality test against this
// element (SPEC_FULL.md §C.2).
func (e *Element) Quality() float64 { e.mu.RLock(); defer e.mu.RUnlock(); return e.quality }

func (e *Element) SetQuality(q float64) { e.mu.Lock(); defer e.mu.Unlock(); e.quality = q }

func (e *Element) Hints() DrawHints { e.mu.RLock(); defer e.mu.RUnlock(); return e.hints }

func (e *Element) SetHints(h DrawHints) { e.mu.Lock(); defer e.mu.Unlock(); e.hints = h }

// AttachTest records that testName is attached to this element.
func (e *Element) AttachTest(testName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachedTests[testName] = struct{}{}
}

// DetachTest removes a previously attached test by name.
func (e *Element) DetachTest(testName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attachedTests, testName)
}

// AttachedTests returns the names of tests attached to this element.
func (e *Element) AttachedTests() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.attachedTests))
	for name := range e.attachedTests {
		out = append(out, name)
	}
	return out
}

// Entries delegates to the live object, or returns 0 if there is none.
func (e *Element) Entries() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.object == nil {
		return 0
	}
	return e.object.Entries()
}

// Reset clears the live object in place, honoring nothing about
// resetPolicy itself — callers (manager.Reset) consult ResetPolicy to
// decide whether to call Reset at all.
func (e *Element) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.object == nil {
		return status.Wrapf(status.InvalidPointer, "element %q: no object to reset", e.name)
	}
	e.object.Reset()
	return nil
}

func (e *Element) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("%s(type=%s)", e.path, e.safeType())
}

func (e *Element) safeType() string {
	if e.object == nil {
		return "<nil>"
	}
	return e.object.TypeTag()
}
