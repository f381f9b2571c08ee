package crystal

import "math"

// Metric measures the distance between two Cartesian positions inside a
// periodic cell. The clustering engine takes a Metric so that raw periodic
// distance and symmetry-aware distance are interchangeable.
type Metric interface {
	Distance(a, b Vec3) float64
}

// PeriodicMetric is the plain minimum-image distance under a unit cell.
type PeriodicMetric struct {
	Cell *UnitCell
}

func (m *PeriodicMetric) Distance(a, b Vec3) float64 {
	return MinimumImageDistance(m.Cell, a, b)
}

// MinimumImageDistance returns the smallest Euclidean distance between two
// Cartesian points considering periodic translations of one of them. The
// search covers the 26 neighboring image cells and widens when the cell is
// skewed enough that a farther image could still be the closest one.
func MinimumImageDistance(cell *UnitCell, a, b Vec3) float64 {
	// Work on the fractional delta folded into [-0.5, 0.5) per axis so the
	// image search stays centered.
	df := cell.Frac(b.Sub(a))
	for i := 0; i < 3; i++ {
		df[i] -= math.Round(df[i])
	}

	span := imageSpan(cell)
	best := math.Inf(1)
	for i := -span; i <= span; i++ {
		for j := -span; j <= span; j++ {
			for k := -span; k <= span; k++ {
				shifted := Vec3{df[0] + float64(i), df[1] + float64(j), df[2] + float64(k)}
				if d := cell.Cart(shifted).Norm(); d < best {
					best = d
				}
			}
		}
	}
	return best
}

// imageSpan picks how many image shells to search per axis. For reasonably
// orthogonal cells one shell (the 26 neighbors) suffices; strongly skewed
// cells need a wider net because the folded fractional delta no longer bounds
// the Cartesian distance.
func imageSpan(cell *UnitCell) int {
	l := cell.lengths()
	maxCos := 0.0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			dot := cell.Vectors[i][0]*cell.Vectors[j][0] +
				cell.Vectors[i][1]*cell.Vectors[j][1] +
				cell.Vectors[i][2]*cell.Vectors[j][2]
			if c := math.Abs(dot) / (l[i] * l[j]); c > maxCos {
				maxCos = c
			}
		}
	}
	switch {
	case maxCos > 0.8:
		return 3
	case maxCos > 0.5:
		return 2
	default:
		return 1
	}
}

// SymmetryMetric treats two positions related by a host symmetry operation as
// coincident: the distance is the minimum periodic distance between a and any
// symmetry image of b. With an empty operation set it degrades to the raw
// periodic metric.
type SymmetryMetric struct {
	Cell *UnitCell
	Ops  []SymmetryOp
}

func (m *SymmetryMetric) Distance(a, b Vec3) float64 {
	best := MinimumImageDistance(m.Cell, a, b)
	fb := m.Cell.Frac(b)
	for _, op := range m.Ops {
		img := m.Cell.Cart(op.Apply(fb))
		if d := MinimumImageDistance(m.Cell, a, img); d < best {
			best = d
		}
	}
	return best
}
