package crystal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vec3 is a point or displacement in 3D space. Cartesian values are in
// Angstrom unless a function says otherwise.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// degenerateEps is the volume (Angstrom^3) below which a cell is treated as
// collapsed.
const degenerateEps = 1e-9

// DegenerateCellError reports a lattice whose vectors do not span a volume.
type DegenerateCellError struct {
	Volume float64
}

func (e *DegenerateCellError) Error() string {
	return fmt.Sprintf("degenerate unit cell: volume %g is too close to zero", e.Volume)
}

// UnitCell is a periodic lattice described by three row vectors in Angstrom.
// The zero value is not usable; construct with NewUnitCell so the inverse
// matrix is cached and degeneracy is caught up front.
type UnitCell struct {
	Vectors [3][3]float64

	vol float64
	inv *mat.Dense
}

// NewUnitCell validates the lattice and precomputes the Cartesian->fractional
// transform. Returns a DegenerateCellError if the vectors are (nearly)
// coplanar.
func NewUnitCell(vectors [3][3]float64) (*UnitCell, error) {
	m := mat.NewDense(3, 3, []float64{
		vectors[0][0], vectors[0][1], vectors[0][2],
		vectors[1][0], vectors[1][1], vectors[1][2],
		vectors[2][0], vectors[2][1], vectors[2][2],
	})

	det := mat.Det(m)
	if math.Abs(det) < degenerateEps {
		return nil, &DegenerateCellError{Volume: det}
	}

	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(m); err != nil {
		return nil, &DegenerateCellError{Volume: det}
	}

	return &UnitCell{
		Vectors: vectors,
		vol:     math.Abs(det),
		inv:     inv,
	}, nil
}

// Cubic is a convenience constructor for a cubic cell of the given side.
func Cubic(side float64) (*UnitCell, error) {
	return NewUnitCell([3][3]float64{
		{side, 0, 0},
		{0, side, 0},
		{0, 0, side},
	})
}

// Volume returns the cell volume in Angstrom^3.
func (c *UnitCell) Volume() float64 {
	return c.vol
}

// Cart converts a fractional position to Cartesian coordinates.
func (c *UnitCell) Cart(frac Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = frac[0]*c.Vectors[0][i] + frac[1]*c.Vectors[1][i] + frac[2]*c.Vectors[2][i]
	}
	return out
}

// Frac converts a Cartesian position to fractional coordinates.
func (c *UnitCell) Frac(cart Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = cart[0]*c.inv.At(0, i) + cart[1]*c.inv.At(1, i) + cart[2]*c.inv.At(2, i)
	}
	return out
}

// Wrap folds a fractional position into [0,1) on each axis.
func Wrap(frac Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		f := math.Mod(frac[i], 1)
		if f < 0 {
			f += 1
		}
		out[i] = f
	}
	return out
}

// lengths returns the norm of each lattice vector.
func (c *UnitCell) lengths() [3]float64 {
	var l [3]float64
	for i := 0; i < 3; i++ {
		v := Vec3{c.Vectors[i][0], c.Vectors[i][1], c.Vectors[i][2]}
		l[i] = v.Norm()
	}
	return l
}
