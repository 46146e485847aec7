package stats

import "fmt"

// Hist1D is a one-dimensional histogram over numeric content. The
// Kind field distinguishes the allocator variants the registry exposes
// (int, float, double, char, short) — they share the same underlying
// representation; the core never needs more than a label to round-trip
// the right allocator on rebook.
type Hist1D struct {
	Kind  string
	X     Axis
	bins  []float64 // length X.Bins+2: index 0 underflow, X.Bins+1 overflow
	count int64
}

func NewHist1D(kind string, x Axis) *Hist1D {
	return &Hist1D{Kind: kind, X: x, bins: make([]float64, x.Bins+2)}
}

func (h *Hist1D) TypeTag() string { return "TH1" + h.Kind }
func (h *Hist1D) Entries() int64  { return h.count }
func (h *Hist1D) Reset() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.count = 0
}

func (h *Hist1D) Fill(x float64, weight float64) {
	h.bins[h.X.bin(x)] += weight
	h.count++
}

// BinContent returns the content of bin i (0 = underflow, X.Bins+1 =
// overflow).
func (h *Hist1D) BinContent(i int) float64 {
	if i < 0 || i >= len(h.bins) {
		return 0
	}
	return h.bins[i]
}

func (h *Hist1D) String() string {
	return fmt.Sprintf("%s(bins=%d,entries=%d)", h.TypeTag(), h.X.Bins, h.count)
}

// Hist2D is a two-dimensional histogram.
type Hist2D struct {
	Kind  string
	X, Y  Axis
	bins  []float64
	count int64
}

func NewHist2D(kind string, x, y Axis) *Hist2D {
	return &Hist2D{Kind: kind, X: x, Y: y, bins: make([]float64, (x.Bins+2)*(y.Bins+2))}
}

func (h *Hist2D) TypeTag() string { return "TH2" + h.Kind }
func (h *Hist2D) Entries() int64  { return h.count }
func (h *Hist2D) Reset() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.count = 0
}

func (h *Hist2D) Fill(x, y, weight float64) {
	ix := h.X.bin(x)
	iy := h.Y.bin(y)
	h.bins[iy*(h.X.Bins+2)+ix] += weight
	h.count++
}

func (h *Hist2D) String() string {
	return fmt.Sprintf("%s(binsX=%d,binsY=%d,entries=%d)", h.TypeTag(), h.X.Bins, h.Y.Bins, h.count)
}

// Hist3D is a three-dimensional histogram.
type Hist3D struct {
	Kind    string
	X, Y, Z Axis
	bins    []float64
	count   int64
}

func NewHist3D(kind string, x, y, z Axis) *Hist3D {
	return &Hist3D{Kind: kind, X: x, Y: y, Z: z, bins: make([]float64, (x.Bins+2)*(y.Bins+2)*(z.Bins+2))}
}

func (h *Hist3D) TypeTag() string { return "TH3" + h.Kind }
func (h *Hist3D) Entries() int64  { return h.count }
func (h *Hist3D) Reset() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.count = 0
}

func (h *Hist3D) Fill(x, y, z, weight float64) {
	ix := h.X.bin(x)
	iy := h.Y.bin(y)
	iz := h.Z.bin(z)
	h.bins[(iz*(h.Y.Bins+2)+iy)*(h.X.Bins+2)+ix] += weight
	h.count++
}

func (h *Hist3D) String() string {
	return fmt.Sprintf("%s(binsX=%d,binsY=%d,binsZ=%d,entries=%d)", h.TypeTag(), h.X.Bins, h.Y.Bins, h.Z.Bins, h.count)
}
