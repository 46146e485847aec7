package alloc

import (
	"github.com/dqm4hep/dqm4hep-go/internal/stats"
)

// histKinds maps the type-tag suffix used in element descriptors to
// the stats.Hist*D "kind" label: int, float, double, char, short
// variants, per §4.2.
var histKinds = map[string]string{
	"I": "int",
	"F": "float",
	"D": "double",
	"C": "char",
	"S": "short",
}

func init() {
	for suffix, kind := range histKinds {
		suffix, kind := suffix, kind
		Default.Register("TH1"+suffix, func(d Descriptor) (stats.Object, error) {
			nBinsX, err := d.RequireInt("alloc.hist1d", "nBinsX")
			if err != nil {
				return nil, err
			}
			minX, err := d.RequireFloat("alloc.hist1d", "minX")
			if err != nil {
				return nil, err
			}
			maxX, err := d.RequireFloat("alloc.hist1d", "maxX")
			if err != nil {
				return nil, err
			}
			return stats.NewHist1D(kind, stats.Axis{Bins: nBinsX, Min: minX, Max: maxX}), nil
		})
		Default.Register("TH2"+suffix, func(d Descriptor) (stats.Object, error) {
			nBinsX, err := d.RequireInt("alloc.hist2d", "nBinsX")
			if err != nil {
				return nil, err
			}
			minX, err := d.RequireFloat("alloc.hist2d", "minX")
			if err != nil {
				return nil, err
			}
			maxX, err := d.RequireFloat("alloc.hist2d", "maxX")
			if err != nil {
				return nil, err
			}
			nBinsY, err := d.RequireInt("alloc.hist2d", "nBinsY")
			if err != nil {
				return nil, err
			}
			minY, err := d.RequireFloat("alloc.hist2d", "minY")
			if err != nil {
				return nil, err
			}
			maxY, err := d.RequireFloat("alloc.hist2d", "maxY")
			if err != nil {
				return nil, err
			}
			return stats.NewHist2D(kind,
				stats.Axis{Bins: nBinsX, Min: minX, Max: maxX},
				stats.Axis{Bins: nBinsY, Min: minY, Max: maxY}), nil
		})
		Default.Register("TH3"+suffix, func(d Descriptor) (stats.Object, error) {
			axis := func(suffix string) (stats.Axis, error) {
				n, err := d.RequireInt("alloc.hist3d", "nBins"+suffix)
				if err != nil {
					return stats.Axis{}, err
				}
				lo, err := d.RequireFloat("alloc.hist3d", "min"+suffix)
				if err != nil {
					return stats.Axis{}, err
				}
				hi, err := d.RequireFloat("alloc.hist3d", "max"+suffix)
				if err != nil {
					return stats.Axis{}, err
				}
				return stats.Axis{Bins: n, Min: lo, Max: hi}, nil
			}
			x, err := axis("X")
			if err != nil {
				return nil, err
			}
			y, err := axis("Y")
			if err != nil {
				return nil, err
			}
			z, err := axis("Z")
			if err != nil {
				return nil, err
			}
			return stats.NewHist3D(kind, x, y, z), nil
		})
	}

	Default.Register("TProfile", func(d Descriptor) (stats.Object, error) {
		nBinsX, err := d.RequireInt("alloc.profile", "nBinsX")
		if err != nil {
			return nil, err
		}
		minX, err := d.RequireFloat("alloc.profile", "minX")
		if err != nil {
			return nil, err
		}
		maxX, err := d.RequireFloat("alloc.profile", "maxX")
		if err != nil {
			return nil, err
		}
		return stats.NewProfile1D(stats.Axis{Bins: nBinsX, Min: minX, Max: maxX}), nil
	})

	Default.Register("TProfile2D", func(d Descriptor) (stats.Object, error) {
		nBinsX, err := d.RequireInt("alloc.profile2d", "nBinsX")
		if err != nil {
			return nil, err
		}
		minX, err := d.RequireFloat("alloc.profile2d", "minX")
		if err != nil {
			return nil, err
		}
		maxX, err := d.RequireFloat("alloc.profile2d", "maxX")
		if err != nil {
			return nil, err
		}
		nBinsY, err := d.RequireInt("alloc.profile2d", "nBinsY")
		if err != nil {
			return nil, err
		}
		minY, err := d.RequireFloat("alloc.profile2d", "minY")
		if err != nil {
			return nil, err
		}
		maxY, err := d.RequireFloat("alloc.profile2d", "maxY")
		if err != nil {
			return nil, err
		}
		return stats.NewProfile2D(
			stats.Axis{Bins: nBinsX, Min: minX, Max: maxX},
			stats.Axis{Bins: nBinsY, Min: minY, Max: maxY}), nil
	})

	Default.Register("THStack", func(d Descriptor) (stats.Object, error) {
		nBinsX, err := d.RequireInt("alloc.stack", "nBinsX")
		if err != nil {
			return nil, err
		}
		minX, err := d.RequireFloat("alloc.stack", "minX")
		if err != nil {
			return nil, err
		}
		maxX, err := d.RequireFloat("alloc.stack", "maxX")
		if err != nil {
			return nil, err
		}
		return stats.NewStackedHist(stats.Axis{Bins: nBinsX, Min: minX, Max: maxX}), nil
	})

	Default.Register("TH2Poly", func(d Descriptor) (stats.Object, error) {
		// A minimal, regular fallback layout: the number of cells is
		// required; cell centers are placed on a unit grid, since the
		// XML descriptor carries no per-cell polygon geometry (that
		// belongs to the statistics library proper, out of scope — see
		// SPEC_FULL.md §B).
		nCells, err := d.RequireInt("alloc.th2poly", "nCells")
		if err != nil {
			return nil, err
		}
		centers := make([][2]float64, nCells)
		for i := range centers {
			centers[i] = [2]float64{float64(i), 0}
		}
		return stats.NewPolygonal2D(centers), nil
	})

	scalarKinds := []string{"int", "real", "float", "double", "short", "long", "long64"}
	for _, kind := range scalarKinds {
		kind := kind
		Default.Register(kind, func(d Descriptor) (stats.Object, error) {
			v, err := d.OptionalFloat("alloc.scalar", "value", 0)
			if err != nil {
				return nil, err
			}
			label := kind
			if label == "real" {
				label = "float"
			}
			return newScalarOf(label, v), nil
		})
	}
}

// newScalarOf builds the right stats.Scalar[N] instantiation for a
// scalar kind label, since the spec's scalar types are fixed at compile
// time but the kind only known at runtime from the XML descriptor.
func newScalarOf(kind string, initial float64) stats.Object {
	switch kind {
	case "int":
		return stats.NewScalar[int32]("int", int32(initial))
	case "short":
		return stats.NewScalar[int16]("short", int16(initial))
	case "long", "long64":
		return stats.NewScalar[int64](kind, int64(initial))
	case "float":
		return stats.NewScalar[float32]("float", float32(initial))
	default: // "double"
		return stats.NewScalar[float64]("double", initial)
	}
}
