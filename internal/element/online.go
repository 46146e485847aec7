package element

import (
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/report"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// OnlineElement wraps an Element with the network-facing bookkeeping a
// collector needs: which module published it, whether it should be
// republished downstream, whether a remote client is currently
// subscribed to it, and the most recent quality test reports run
// against it (supplemented from DQMEventClient/DQMMonitorElement per
// SPEC_FULL.md §C.2-C.4 — spec.md §3 only says elements "round-trip to
// and from the wire" without naming these fields).
type OnlineElement struct {
	*Element

	mu sync.RWMutex

	runNumber     uint32
	collectorName string
	moduleName    string
	publish       bool
	subscribed    bool
	latestReports map[string]report.Report
}

// NewOnline wraps elem for a given collector/module, with publishing
// enabled by default (§4.6: elements are published unless a module
// opts out).
func NewOnline(elem *Element, collectorName, moduleName string) *OnlineElement {
	return &OnlineElement{
		Element:       elem,
		collectorName: collectorName,
		moduleName:    moduleName,
		publish:       true,
		latestReports: make(map[string]report.Report),
	}
}

func (o *OnlineElement) RunNumber() uint32 { o.mu.RLock(); defer o.mu.RUnlock(); return o.runNumber }

// SetRunNumber is called by the owning run control at start of run.
func (o *OnlineElement) SetRunNumber(n uint32) { o.mu.Lock(); defer o.mu.Unlock(); o.runNumber = n }

func (o *OnlineElement) CollectorName() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.collectorName
}

func (o *OnlineElement) ModuleName() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.moduleName
}

func (o *OnlineElement) Publish() bool { o.mu.RLock(); defer o.mu.RUnlock(); return o.publish }

func (o *OnlineElement) SetPublish(p bool) { o.mu.Lock(); defer o.mu.Unlock(); o.publish = p }

func (o *OnlineElement) Subscribed() bool { o.mu.RLock(); defer o.mu.RUnlock(); return o.subscribed }

// SetSubscribed is toggled by the transport layer when a remote client
// subscribes or unsubscribes from this element's updates.
func (o *OnlineElement) SetSubscribed(s bool) { o.mu.Lock(); defer o.mu.Unlock(); o.subscribed = s }

// CacheReport records the latest report produced for testName against
// this element, overwriting any earlier one silently: the cache always
// reflects the most recent run (distinct from report.Storage, which a
// manager may additionally use to keep a warn-on-replace history).
func (o *OnlineElement) CacheReport(r report.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.latestReports[r.TestName] = r
}

// CachedReport returns the most recent report cached for testName.
func (o *OnlineElement) CachedReport(testName string) (report.Report, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.latestReports[testName]
	if !ok {
		return report.Report{}, status.Wrapf(status.NotFound, "no cached report %q for %s", testName, o.Name())
	}
	return r, nil
}

// CachedReports returns a copy of every cached report, keyed by test
// name.
func (o *OnlineElement) CachedReports() map[string]report.Report {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]report.Report, len(o.latestReports))
	for k, v := range o.latestReports {
		out[k] = v
	}
	return out
}

// ClearReports discards every cached report, e.g. at start of run when
// ResetPolicy indicates the element itself is also cleared.
func (o *OnlineElement) ClearReports() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.latestReports = make(map[string]report.Report)
}
