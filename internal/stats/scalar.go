package stats

import "fmt"

// Number is the set of scalar kinds the allocator registry exposes
// (§6: "a scalar descriptor uses type ∈ {int, real|float, double,
// short, long, long64}").
type Number interface {
	~int32 | ~int16 | ~int64 | ~float32 | ~float64
}

// Scalar wraps a single numeric value, the simplest monitor element
// object.
type Scalar[N Number] struct {
	kind    string
	value   N
	entries int64
}

func NewScalar[N Number](kind string, initial N) *Scalar[N] {
	return &Scalar[N]{kind: kind, value: initial}
}

func (s *Scalar[N]) TypeTag() string { return "scalar_" + s.kind }
func (s *Scalar[N]) Entries() int64  { return s.entries }
func (s *Scalar[N]) Reset() {
	var zero N
	s.value = zero
	s.entries = 0
}

func (s *Scalar[N]) Set(v N) {
	s.value = v
	s.entries++
}

func (s *Scalar[N]) Value() N {
	return s.value
}

func (s *Scalar[N]) String() string {
	return fmt.Sprintf("scalar_%s(%v)", s.kind, s.value)
}

// Polygonal2D is an irregular polygonal 2D histogram: bins are
// arbitrary polygons rather than a regular grid, so filling is by
// nearest-bin-center lookup over a small number of bins (as used for
// detector geometries with non-rectangular cells).
type Polygonal2D struct {
	centers [][2]float64
	sums    []float64
	count   int64
}

func NewPolygonal2D(centers [][2]float64) *Polygonal2D {
	return &Polygonal2D{centers: centers, sums: make([]float64, len(centers))}
}

func (p *Polygonal2D) TypeTag() string { return "TH2Poly" }
func (p *Polygonal2D) Entries() int64  { return p.count }
func (p *Polygonal2D) Reset() {
	for i := range p.sums {
		p.sums[i] = 0
	}
	p.count = 0
}

func (p *Polygonal2D) Fill(x, y, weight float64) {
	best := -1
	bestDist := 0.0
	for i, c := range p.centers {
		dx, dy := c[0]-x, c[1]-y
		d := dx*dx + dy*dy
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		p.sums[best] += weight
	}
	p.count++
}

func (p *Polygonal2D) String() string {
	return fmt.Sprintf("TH2Poly(cells=%d,entries=%d)", len(p.centers), p.count)
}

// StackedHist is a stacked histogram: an ordered set of named Hist1D
// layers sharing one X axis.
type StackedHist struct {
	X      Axis
	names  []string
	layers []*Hist1D
}

func NewStackedHist(x Axis) *StackedHist {
	return &StackedHist{X: x}
}

func (s *StackedHist) TypeTag() string { return "THStack" }
func (s *StackedHist) Entries() int64 {
	var total int64
	for _, l := range s.layers {
		total += l.Entries()
	}
	return total
}

func (s *StackedHist) Reset() {
	for _, l := range s.layers {
		l.Reset()
	}
}

// AddLayer appends a named histogram layer to the stack, sharing the
// stack's X axis.
func (s *StackedHist) AddLayer(name string) *Hist1D {
	h := NewHist1D("double", s.X)
	s.names = append(s.names, name)
	s.layers = append(s.layers, h)
	return h
}

func (s *StackedHist) Layers() []*Hist1D {
	out := make([]*Hist1D, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s *StackedHist) String() string {
	return fmt.Sprintf("THStack(layers=%d,entries=%d)", len(s.layers), s.Entries())
}
