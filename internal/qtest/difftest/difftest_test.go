package difftest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/qtest"
	"github.com/dqm4hep/dqm4hep-go/internal/qtest/difftest"
	"github.com/dqm4hep/dqm4hep-go/internal/report"
	"github.com/dqm4hep/dqm4hep-go/internal/stats"
)

func elementWithRef(liveFill, refFill int) *element.Element {
	live := stats.NewHist1D("int", stats.Axis{Bins: 4, Min: 0, Max: 4})
	ref := stats.NewHist1D("int", stats.Axis{Bins: 4, Min: 0, Max: 4})
	for i := 0; i < liveFill; i++ {
		live.Fill(1, 1)
	}
	for i := 0; i < refFill; i++ {
		ref.Fill(1, 1)
	}
	e := element.New("occupancy", "", "TH1I", live)
	e.SetReference(ref)
	return e
}

func TestDiffTestSuccessWhenIdentical(t *testing.T) {
	e := elementWithRef(3, 3)
	test := difftest.New("diff1", "compare to reference")
	r := test.Run(e)
	assert.Equal(t, report.Success, r.Flag)
	assert.Equal(t, 1.0, r.Quality)
}

func TestDiffTestErrorWhenDifferent(t *testing.T) {
	e := elementWithRef(3, 5)
	test := difftest.New("diff1", "")
	r := test.Run(e)
	assert.Equal(t, report.Error, r.Flag)
	assert.Equal(t, 0.0, r.Quality)
	assert.Contains(t, r.Message, "@@")
}

func TestDiffTestWithoutReferenceIsInvalid(t *testing.T) {
	live := stats.NewHist1D("int", stats.Axis{Bins: 4, Min: 0, Max: 4})
	live.Fill(1, 1)
	e := element.New("occupancy", "", "TH1I", live)
	test := difftest.New("diff1", "")
	r := test.Run(e)
	assert.Equal(t, report.Invalid, r.Flag)
}

func TestRegisterInstallsFactory(t *testing.T) {
	r := qtest.NewRegistry()
	difftest.Register(r)
	assert.Contains(t, r.Types(), difftest.TestType)
}
