package crystal

import (
	"math"
	"math/rand"
	"testing"
)

func mustCubic(t *testing.T, side float64) *UnitCell {
	t.Helper()
	cell, err := Cubic(side)
	if err != nil {
		t.Fatalf("Cubic(%f) failed: %v", side, err)
	}
	return cell
}

func TestMinimumImageAcrossBoundary(t *testing.T) {
	cell := mustCubic(t, 10)

	// 0.5 and 9.5 on the x axis are 1 Angstrom apart through the boundary.
	d := MinimumImageDistance(cell, Vec3{0.5, 0, 0}, Vec3{9.5, 0, 0})
	if math.Abs(d-1.0) > 1e-10 {
		t.Errorf("Expected distance 1.0 across boundary, got %f", d)
	}
}

func TestMinimumImageProperties(t *testing.T) {
	cells := []*UnitCell{mustCubic(t, 10)}
	if skew, err := NewUnitCell([3][3]float64{
		{5, 0, 0},
		{4.2, 2.8, 0},
		{0.5, 0.6, 6.1},
	}); err != nil {
		t.Fatalf("skewed cell: %v", err)
	} else {
		cells = append(cells, skew)
	}

	r := rand.New(rand.NewSource(7))
	for _, cell := range cells {
		for n := 0; n < 50; n++ {
			a := cell.Cart(Vec3{r.Float64(), r.Float64(), r.Float64()})
			b := cell.Cart(Vec3{r.Float64(), r.Float64(), r.Float64()})

			dab := MinimumImageDistance(cell, a, b)
			dba := MinimumImageDistance(cell, b, a)
			if math.Abs(dab-dba) > 1e-9 {
				t.Fatalf("Metric not symmetric: d(a,b)=%f d(b,a)=%f", dab, dba)
			}
			if daa := MinimumImageDistance(cell, a, a); daa > 1e-12 {
				t.Fatalf("d(a,a) = %f, want 0", daa)
			}
			// Never longer than the direct separation.
			if direct := b.Sub(a).Norm(); dab > direct+1e-9 {
				t.Fatalf("Minimum image %f exceeds direct distance %f", dab, direct)
			}
		}
	}
}

func TestMinimumImageTranslationInvariance(t *testing.T) {
	cell := mustCubic(t, 8)
	a := Vec3{1.1, 2.2, 3.3}
	b := Vec3{7.5, 0.4, 6.6}
	d0 := MinimumImageDistance(cell, a, b)

	// Shifting one point by whole lattice vectors must not change anything.
	shift := Vec3{16, -8, 8}
	d1 := MinimumImageDistance(cell, a, b.Add(shift))
	if math.Abs(d0-d1) > 1e-9 {
		t.Errorf("Distance changed under lattice translation: %f vs %f", d0, d1)
	}
}

func TestImageSpanWidensForSkewedCells(t *testing.T) {
	cubic := mustCubic(t, 10)
	if span := imageSpan(cubic); span != 1 {
		t.Errorf("Expected span 1 for cubic cell, got %d", span)
	}

	skew, err := NewUnitCell([3][3]float64{
		{10, 0, 0},
		{9, 4, 0},
		{0, 0, 10},
	})
	if err != nil {
		t.Fatalf("skewed cell: %v", err)
	}
	if span := imageSpan(skew); span < 2 {
		t.Errorf("Expected widened span for skewed cell, got %d", span)
	}
}

func TestSymmetryMetricZeroForRelatedPositions(t *testing.T) {
	cell := mustCubic(t, 10)

	// Inversion through the cell center.
	inv := SymmetryOp{
		Rotation:    [3][3]float64{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
		Translation: [3]float64{0, 0, 0},
	}
	m := &SymmetryMetric{Cell: cell, Ops: []SymmetryOp{inv}}

	a := cell.Cart(Vec3{0.2, 0.3, 0.4})
	b := cell.Cart(Vec3{0.8, 0.7, 0.6}) // inversion image of a

	if d := m.Distance(a, b); d > 1e-9 {
		t.Errorf("Symmetry-related positions should be at distance 0, got %f", d)
	}

	// The raw metric must still see them apart.
	raw := &PeriodicMetric{Cell: cell}
	if d := raw.Distance(a, b); d < 1.0 {
		t.Errorf("Raw metric unexpectedly small: %f", d)
	}
}
