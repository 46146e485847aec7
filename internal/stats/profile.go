package stats

import "fmt"

// Profile1D accumulates, per X bin, the mean (and implicitly the
// spread) of a dependent Y value — the TProfile family.
type Profile1D struct {
	X       Axis
	sumY    []float64
	sumYY   []float64
	entries []int64
	count   int64
}

func NewProfile1D(x Axis) *Profile1D {
	n := x.Bins + 2
	return &Profile1D{X: x, sumY: make([]float64, n), sumYY: make([]float64, n), entries: make([]int64, n)}
}

func (p *Profile1D) TypeTag() string { return "TProfile" }
func (p *Profile1D) Entries() int64  { return p.count }
func (p *Profile1D) Reset() {
	for i := range p.sumY {
		p.sumY[i] = 0
		p.sumYY[i] = 0
		p.entries[i] = 0
	}
	p.count = 0
}

func (p *Profile1D) Fill(x, y float64) {
	i := p.X.bin(x)
	p.sumY[i] += y
	p.sumYY[i] += y * y
	p.entries[i]++
	p.count++
}

// Mean returns the mean Y value accumulated in bin i, or 0 if empty.
func (p *Profile1D) Mean(i int) float64 {
	if i < 0 || i >= len(p.entries) || p.entries[i] == 0 {
		return 0
	}
	return p.sumY[i] / float64(p.entries[i])
}

func (p *Profile1D) String() string {
	return fmt.Sprintf("TProfile(bins=%d,entries=%d)", p.X.Bins, p.count)
}

// Profile2D is the two-dimensional analogue of Profile1D.
type Profile2D struct {
	X, Y    Axis
	sumZ    []float64
	entries []int64
	count   int64
}

func NewProfile2D(x, y Axis) *Profile2D {
	n := (x.Bins + 2) * (y.Bins + 2)
	return &Profile2D{X: x, Y: y, sumZ: make([]float64, n), entries: make([]int64, n)}
}

func (p *Profile2D) TypeTag() string { return "TProfile2D" }
func (p *Profile2D) Entries() int64  { return p.count }
func (p *Profile2D) Reset() {
	for i := range p.sumZ {
		p.sumZ[i] = 0
		p.entries[i] = 0
	}
	p.count = 0
}

func (p *Profile2D) Fill(x, y, z float64) {
	idx := p.Y.bin(y)*(p.X.Bins+2) + p.X.bin(x)
	p.sumZ[idx] += z
	p.entries[idx]++
	p.count++
}

func (p *Profile2D) String() string {
	return fmt.Sprintf("TProfile2D(binsX=%d,binsY=%d,entries=%d)", p.X.Bins, p.Y.Bins, p.count)
}
