package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dqm4hep/dqm4hep-go/internal/stats"
)

func TestHist1DFillAndReset(t *testing.T) {
	h := stats.NewHist1D("double", stats.Axis{Bins: 10, Min: 0, Max: 10})
	h.Fill(5.5, 1)
	h.Fill(-1, 1) // underflow
	h.Fill(100, 1) // overflow
	assert.Equal(t, int64(3), h.Entries())
	assert.Equal(t, float64(1), h.BinContent(0))
	assert.Equal(t, float64(1), h.BinContent(11))
	h.Reset()
	assert.Equal(t, int64(0), h.Entries())
	assert.Equal(t, float64(0), h.BinContent(0))
}

func TestScalarSetAndReset(t *testing.T) {
	s := stats.NewScalar[int32]("int", 0)
	s.Set(42)
	assert.Equal(t, int32(42), s.Value())
	assert.Equal(t, int64(1), s.Entries())
	s.Reset()
	assert.Equal(t, int32(0), s.Value())
}

func TestProfile1DMean(t *testing.T) {
	p := stats.NewProfile1D(stats.Axis{Bins: 1, Min: 0, Max: 1})
	p.Fill(0.5, 2)
	p.Fill(0.5, 4)
	assert.Equal(t, float64(3), p.Mean(1))
}

func TestPolygonal2DNearestCell(t *testing.T) {
	p := stats.NewPolygonal2D([][2]float64{{0, 0}, {10, 10}})
	p.Fill(0.1, 0.1, 1)
	p.Fill(9.9, 9.9, 2)
	assert.Equal(t, int64(2), p.Entries())
}

func TestStackedHistAggregatesEntries(t *testing.T) {
	s := stats.NewStackedHist(stats.Axis{Bins: 4, Min: 0, Max: 4})
	signal := s.AddLayer("signal")
	background := s.AddLayer("background")
	signal.Fill(1, 1)
	background.Fill(2, 1)
	background.Fill(3, 1)
	assert.Equal(t, int64(3), s.Entries())
}
