package report_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/report"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

func TestClassifyFlagLattice(t *testing.T) {
	assert.Equal(t, report.Success, report.ClassifyFlag(0.9, 0.8, 0.5))
	assert.Equal(t, report.Success, report.ClassifyFlag(1.0, 0.8, 0.5))
	assert.Equal(t, report.Warning, report.ClassifyFlag(0.7, 0.8, 0.5))
	assert.Equal(t, report.Error, report.ClassifyFlag(0.3, 0.8, 0.5))
}

func TestJSONRoundTrip(t *testing.T) {
	r := report.Report{
		TestName:    "meanWithinRange",
		TestType:    "MeanTest",
		ElementName: "occupancy",
		ElementPath: "/det/a",
		Quality:     0.42,
		Flag:        report.Warning,
		Extras:      map[string]interface{}{"mean": 1.5},
	}
	data, err := report.ToJSON(r)
	require.NoError(t, err)
	got, err := report.FromJSON(data)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStorageInsertAndReport(t *testing.T) {
	s := report.NewStorage()
	r := report.Report{ElementPath: "/a", ElementName: "x", TestName: "t1", Quality: 0.9, Flag: report.Success}
	require.NoError(t, s.Insert(r, false))
	got, err := s.Report("/a", "x", "t1")
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestStorageInsertWarnOnReplace(t *testing.T) {
	s := report.NewStorage()
	r := report.Report{ElementPath: "/a", ElementName: "x", TestName: "t1", Quality: 0.9}
	require.NoError(t, s.Insert(r, true))
	err := s.Insert(r, true)
	assert.Equal(t, status.Unchanged, err)
}

func TestFilterOutOfRange(t *testing.T) {
	s := report.NewStorage()
	_, err := s.FilterAbove(1.4)
	assert.ErrorIs(t, err, status.OutOfRange)
	_, err = s.FilterBelow(-0.1)
	assert.ErrorIs(t, err, status.OutOfRange)
}

func TestFilterAboveAndBelow(t *testing.T) {
	s := report.NewStorage()
	require.NoError(t, s.Insert(report.Report{ElementPath: "/a", ElementName: "x", TestName: "t1", Quality: 0.9}, false))
	require.NoError(t, s.Insert(report.Report{ElementPath: "/a", ElementName: "y", TestName: "t1", Quality: 0.1}, false))
	high, err := s.FilterAbove(0.5)
	require.NoError(t, err)
	assert.Len(t, high, 1)
	low, err := s.FilterBelow(0.5)
	require.NoError(t, err)
	assert.Len(t, low, 1)
}

func TestDumpProducesJSONArray(t *testing.T) {
	s := report.NewStorage()
	require.NoError(t, s.Insert(report.Report{ElementPath: "/a", ElementName: "x", TestName: "t1"}, false))
	data, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
}

func TestClear(t *testing.T) {
	s := report.NewStorage()
	require.NoError(t, s.Insert(report.Report{ElementPath: "/a", ElementName: "x", TestName: "t1"}, false))
	s.Clear()
	_, err := s.Report("/a", "x", "t1")
	assert.ErrorIs(t, err, status.NotFound)
}
