// Package qtest implements the QualityTest framework (§4.4): the
// common run() skeleton every concrete test shares, layered over a
// user-supplied hook, producing a report.Report.
//
// qtest depends on report and element but neither of those depends
// back on qtest, so there is no cycle: element caches reports it is
// handed, it never runs a test itself.
package qtest

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/report"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// UserRun is the hook a concrete quality test implements: given the
// element to examine, it returns a quality in [0,1] and a message, or
// an error if it cannot produce a verdict.
type UserRun func(elem *element.Element) (quality float64, message string, err error)

// EnoughStatistics decides, per §4.4 step 2, whether elem has
// accumulated enough entries to be worth testing. The default
// requires at least one entry; concrete tests may supply a stricter
// predicate via WithMinimumStatistics.
type EnoughStatistics func(elem *element.Element) bool

// Test is a QualityTest (§4.4): identity plus thresholds plus the
// userRun hook.
type Test struct {
	testType    string
	name        string
	description string

	warningLimit float64
	errorLimit   float64

	run    UserRun
	enough EnoughStatistics
}

// New constructs a Test with the default warningLimit=1, errorLimit=0
// (i.e. only quality 1 classifies as SUCCESS, every quality in [0,1)
// as WARNING, and none as ERROR, until the caller changes the limits
// with SetLimits) and a userRun hook.
func New(testType, name, description string, run UserRun) *Test {
	return &Test{
		testType:     testType,
		name:         name,
		description:  description,
		warningLimit: 1,
		errorLimit:   0,
		run:          run,
		enough:       defaultEnoughStatistics,
	}
}

func defaultEnoughStatistics(elem *element.Element) bool {
	return elem != nil && elem.Entries() > 0
}

// WithMinimumStatistics overrides the enoughStatistics predicate.
func (t *Test) WithMinimumStatistics(fn EnoughStatistics) *Test {
	t.enough = fn
	return t
}

func (t *Test) Type() string        { return t.testType }
func (t *Test) Name() string        { return t.name }
func (t *Test) Description() string { return t.description }

// SetLimits sets the warning/error thresholds, rejecting err > warn,
// warn < 0, or err > 1 with status.InvalidParameter (§4.4).
func (t *Test) SetLimits(warningLimit, errorLimit float64) error {
	if warningLimit < 0 {
		return status.Wrapf(status.InvalidParameter, "warningLimit %v < 0", warningLimit)
	}
	if errorLimit > 1 {
		return status.Wrapf(status.InvalidParameter, "errorLimit %v > 1", errorLimit)
	}
	if errorLimit > warningLimit {
		return status.Wrapf(status.InvalidParameter, "errorLimit %v > warningLimit %v", errorLimit, warningLimit)
	}
	t.warningLimit = warningLimit
	t.errorLimit = errorLimit
	return nil
}

// Run executes the canonical flow of §4.4 against elem, producing a
// populated report.Report.
func (t *Test) Run(elem *element.Element) report.Report {
	r := report.Report{
		TestName:        t.name,
		TestType:        t.testType,
		TestDescription: t.description,
		Flag:            report.Undefined,
	}
	if elem != nil {
		r.ElementName = elem.Name()
		r.ElementType = elem.Type()
		r.ElementPath = elem.Path()
	}

	if elem == nil {
		r.Flag = report.Invalid
		r.Quality = 0
		r.Message = "element is nil"
		return r
	}
	if elem.Object() == nil {
		r.Flag = report.Invalid
		r.Quality = 0
		r.Message = "element has no underlying object"
		return r
	}
	if !t.enough(elem) {
		r.Flag = report.InsufficientStatistics
		r.Quality = 0
		r.Message = "not enough statistics to run test"
		return r
	}

	quality, message, err := t.runGuarded(elem)
	if err != nil {
		r.Flag = report.Invalid
		r.Quality = 0
		r.Message = fmt.Sprintf("%s (userRun failed: %v)", message, err)
		return r
	}
	if quality < 0 || quality > 1 {
		r.Flag = report.Invalid
		r.Quality = 0
		r.Message = fmt.Sprintf("%s (quality %v outside [0,1])", message, quality)
		return r
	}
	r.Quality = quality
	r.Message = message
	r.Flag = report.ClassifyFlag(quality, t.warningLimit, t.errorLimit)
	return r
}

// runGuarded invokes the user hook under a recover guard: a panic in
// userRun maps to the same INVALID outcome as a returned error (§4.4
// step 3, "any signaled failure").
func (t *Test) runGuarded(elem *element.Element) (quality float64, message string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("userRun panicked: %v", p)
		}
	}()
	return t.run(elem)
}
