// Package difftest implements DiffQualityTest, a built-in quality test
// that compares a monitor element's reference and live objects by
// their string rendering and reports a unified diff when they differ
// (SPEC_FULL.md §B, grounded on the teacher's top-level diff package,
// adapted as internal/textdiff).
package difftest

import (
	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/qtest"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
	"github.com/dqm4hep/dqm4hep-go/internal/textdiff"
)

// TestType is the type tag this test registers under.
const TestType = "DiffQualityTest"

// ContextLines is the amount of unchanged context kept around each
// hunk of the reported diff.
const ContextLines = 3

// New constructs a DiffQualityTest: quality is 1 when the live
// object's string rendering matches the reference's, 0 otherwise, with
// the unified diff (if any) carried in the report message. Its limits
// are warningLimit=1, errorLimit=1, so a match is SUCCESS and a
// mismatch is ERROR.
func New(name, description string) *qtest.Test {
	t := qtest.New(TestType, name, description, run)
	_ = t.SetLimits(1, 1)
	return t
}

func run(elem *element.Element) (quality float64, message string, err error) {
	ref := elem.Reference()
	if ref == nil {
		return 0, "", status.Wrapf(status.InvalidPointer, "element %q has no reference object to diff against", elem.Name())
	}
	obj := elem.Object()

	diff, diffErr := textdiff.Unified(ref.String(), obj.String(), ContextLines)
	if diffErr != nil {
		return 0, "", diffErr
	}
	if diff == "" {
		return 1, "live object matches reference", nil
	}
	return 0, diff, nil
}

// Register installs DiffQualityTest's factory into r.
func Register(r *qtest.Registry) {
	r.Register(TestType, New)
}

func init() {
	Register(qtest.Default)
}
