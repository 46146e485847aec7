// Package report implements the QualityTestReport data model and
// ReportStorage (§3, §4.5): the structured outcome of running a quality
// test against a monitor element, and the indexed collection of such
// outcomes.
//
// Keeping this as its own package (rather than folding it into qtest)
// mirrors the separation the teacher draws between internal/tree
// (structure) and internal/storage (persistence of opaque values):
// report is pure data plus the lattice invariant, with no knowledge of
// how a test is executed; qtest owns execution and depends on report,
// not the other way around.
package report

import (
	"encoding/json"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Flag is the bounded flag lattice of §3.
type Flag int

const (
	// Undefined is the pre-execution sentinel.
	Undefined Flag = iota
	Invalid
	InsufficientStatistics
	Error
	Warning
	Success
)

func (f Flag) String() string {
	switch f {
	case Undefined:
		return "UNDEFINED"
	case Invalid:
		return "INVALID"
	case InsufficientStatistics:
		return "INSUFFICIENT_STAT"
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Success:
		return "SUCCESS"
	default:
		return "UNDEFINED"
	}
}

// Report is the QualityTestReport of §3.
type Report struct {
	TestName        string                 `json:"testName"`
	TestType        string                 `json:"testType"`
	TestDescription string                 `json:"testDescription"`
	ElementName     string                 `json:"elementName"`
	ElementType     string                 `json:"elementType"`
	ElementPath     string                 `json:"elementPath"`
	Message         string                 `json:"message"`
	Quality         float64                `json:"quality"`
	Flag            Flag                   `json:"flag"`
	Extras          map[string]interface{} `json:"extras,omitempty"`
}

// ClassifyFlag derives the flag from quality under the limits per the
// §3 lattice: flag=SUCCESS ⇔ quality ∈ [warningLimit, 1] (inclusive at
// 1, per §9's note that the source treats the SUCCESS boundary at
// quality==1 as inclusive); flag=WARNING ⇔ quality ∈ [errorLimit,
// warningLimit); flag=ERROR ⇔ quality ∈ [0, errorLimit).
func ClassifyFlag(quality, warningLimit, errorLimit float64) Flag {
	switch {
	case quality >= warningLimit:
		return Success
	case quality >= errorLimit:
		return Warning
	default:
		return Error
	}
}

// MarshalJSON and UnmarshalJSON are the default encoding/json behavior
// for Report (all fields are exported and already tagged); Flag needs
// its own (de)serialization as a bare integer, which is what
// encoding/json already does for a named int type, so no custom
// marshaler is required. toJSON / FromJSON below are the ReportStorage
// entry points named in §6.

// ToJSON renders r using the field set in §3 and the wire shape in §6.
func ToJSON(r Report) ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a single report; FromJSON(ToJSON(r)) is required to
// be the identity on the §3 field set (§8 invariant).
func FromJSON(data []byte) (Report, error) {
	var r Report
	err := json.Unmarshal(data, &r)
	return r, err
}

// key addresses a report by (elementPath, elementName) then testName,
// per §4.5.
type key struct {
	path, name string
}

// Storage is the ReportStorage of §4.5: a mapping (path, name) ->
// (testName -> report).
type Storage struct {
	mu    sync.RWMutex
	inner map[key]map[string]Report
}

// NewStorage returns an empty ReportStorage.
func NewStorage() *Storage {
	return &Storage{inner: make(map[key]map[string]Report)}
}

// Insert adds r under (r.ElementPath, r.ElementName, r.TestName). When
// warnOnReplace is true and an entry is being overwritten, Insert
// returns status.Unchanged (a success variant) to let the caller log a
// warning; it always stores the new report either way — the spec
// reserves the warn/overwrite distinction for a replace rather than
// blocking it (§4.5: "preserve the replace-vs-insert distinction only
// under the warn mode; otherwise they overwrite silently").
func (s *Storage) Insert(r Report, warnOnReplace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{path: r.ElementPath, name: r.ElementName}
	tests, ok := s.inner[k]
	if !ok {
		tests = make(map[string]Report)
		s.inner[k] = tests
	}
	_, replacing := tests[r.TestName]
	tests[r.TestName] = r
	if replacing && warnOnReplace {
		return status.Unchanged
	}
	return nil
}

// Report looks up a single report by (path, name, testName).
func (s *Storage) Report(path, name, testName string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tests, ok := s.inner[key{path: path, name: name}]
	if !ok {
		return Report{}, status.Wrapf(status.NotFound, "no reports for %s/%s", path, name)
	}
	r, ok := tests[testName]
	if !ok {
		return Report{}, status.Wrapf(status.NotFound, "no report %q for %s/%s", testName, path, name)
	}
	return r, nil
}

// Reports returns every report attached to (path, name), keyed by test
// name. The returned map must not be mutated by the caller.
func (s *Storage) Reports(path, name string) (map[string]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tests, ok := s.inner[key{path: path, name: name}]
	if !ok {
		return nil, status.Wrapf(status.NotFound, "no reports for %s/%s", path, name)
	}
	out := make(map[string]Report, len(tests))
	for k, v := range tests {
		out[k] = v
	}
	return out, nil
}

// FilterAbove returns every report with Quality >= q. q must be in
// [0,1]; otherwise status.OutOfRange (§4.5, fixing the documented bug
// in the original implementation's predicate — see spec.md §9's open
// question).
func (s *Storage) FilterAbove(q float64) ([]Report, error) {
	if q < 0 || q > 1 {
		return nil, status.Wrapf(status.OutOfRange, "quality %v not in [0,1]", q)
	}
	return s.filter(func(r Report) bool { return r.Quality >= q }), nil
}

// FilterBelow returns every report with Quality <= q. q must be in
// [0,1]; otherwise status.OutOfRange.
func (s *Storage) FilterBelow(q float64) ([]Report, error) {
	if q < 0 || q > 1 {
		return nil, status.Wrapf(status.OutOfRange, "quality %v not in [0,1]", q)
	}
	return s.filter(func(r Report) bool { return r.Quality <= q }), nil
}

func (s *Storage) filter(pred func(Report) bool) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, tests := range s.inner {
		for _, r := range tests {
			if pred(r) {
				out = append(out, r)
			}
		}
	}
	return out
}

// Dump serializes every report in the storage as a JSON array (§4.5,
// §6).
func (s *Storage) Dump() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Report, 0)
	for _, tests := range s.inner {
		for _, r := range tests {
			all = append(all, r)
		}
	}
	return json.Marshal(all)
}

// Clear empties the storage.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = make(map[key]map[string]Report)
}
