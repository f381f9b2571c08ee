// Package vibrational generates displacement grids for quantum-corrected
// sampling: instead of treating the muon as a classical point, properties are
// averaged over its zero-point motion along the major phonon modes.
package vibrational

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/muonsuite/muairss/crystal"
)

// WavefunctionDensities evaluates r^2|psi|^2 for a 3D harmonic-oscillator
// ground state on a grid of gridN points per axis, spanning -3R..3R along
// each displacement amplitude R. The result is axis-major: entries
// [i*gridN, (i+1)*gridN) belong to axis i. These densities weight sampled
// property values when averaging over nuclear motion.
func WavefunctionDensities(R [3]float64, gridN int) ([]float64, error) {
	if gridN < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points per axis, got %d", gridN)
	}
	for i, r := range R {
		if r <= 0 {
			return nil, fmt.Errorf("displacement amplitude %d must be positive, got %g", i, r)
		}
	}

	norm := math.Pow(1.0/(math.Pow(R[0]*R[1]*R[2], 2)*math.Pow(math.Pi, 3)), 0.25)

	out := make([]float64, 3*gridN)
	for i := 0; i < 3; i++ {
		for j, x := range linspace(-3*R[i], 3*R[i], gridN) {
			psi := norm * math.Exp(-(x/R[i])*(x/R[i])/2)
			out[j+i*gridN] = x * x * psi * psi
		}
	}
	return out, nil
}

// DisplacementGrid builds the displacement set for wavefunction sampling:
// gridN points per mode, sweeping -3..3 times the mode's displacement factor
// along each of the three major phonon axes. Mode-major ordering, matching
// WavefunctionDensities.
func DisplacementGrid(factors [3]float64, axes [3]crystal.Vec3, gridN int) ([]crystal.Vec3, error) {
	if gridN < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points per mode, got %d", gridN)
	}

	out := make([]crystal.Vec3, 3*gridN)
	for mode := 0; mode < 3; mode++ {
		max := axes[mode].Scale(3 * factors[mode])
		for n, t := range linspace(-1, 1, gridN) {
			out[n+mode*gridN] = max.Scale(t)
		}
	}
	return out, nil
}

// ThermalLineDisplacements draws one thermal line: each normal-mode
// coordinate gets a random sign, and the signed coordinates are projected
// onto the per-atom mode eigenvectors. normCoords are in Angstrom; evecs is
// indexed [mode][atom].
func ThermalLineDisplacements(normCoords []float64, evecs [][]crystal.Vec3, nAtoms int, rng *rand.Rand) ([]crystal.Vec3, error) {
	if len(evecs) != len(normCoords) {
		return nil, fmt.Errorf("mode count mismatch: %d coordinates, %d eigenvector sets", len(normCoords), len(evecs))
	}

	displacements := make([]crystal.Vec3, nAtoms)
	for mode, coord := range normCoords {
		if len(evecs[mode]) != nAtoms {
			return nil, fmt.Errorf("mode %d has %d eigenvectors, want %d", mode, len(evecs[mode]), nAtoms)
		}
		sign := 1.0
		if rng.Intn(2) == 0 {
			sign = -1.0
		}
		for atom := 0; atom < nAtoms; atom++ {
			displacements[atom] = displacements[atom].Add(evecs[mode][atom].Scale(sign * coord))
		}
	}
	return displacements, nil
}

// WeightedTensorAverage averages a set of per-atom 3x3 tensors sampled on an
// N-point grid, weighting each grid point. Used to turn per-displacement
// hyperfine tensors into a single quantum-corrected tensor per atom.
func WeightedTensorAverage(tensors [][][3][3]float64, weights []float64) ([][3][3]float64, error) {
	if len(tensors) != len(weights) {
		return nil, fmt.Errorf("tensor grid has %d points, weights has %d", len(tensors), len(weights))
	}
	if len(tensors) == 0 {
		return nil, fmt.Errorf("empty tensor grid")
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("weights sum to zero")
	}

	nAtoms := len(tensors[0])
	avg := make([][3][3]float64, nAtoms)
	for p, atomTensors := range tensors {
		if len(atomTensors) != nAtoms {
			return nil, fmt.Errorf("grid point %d has %d atoms, want %d", p, len(atomTensors), nAtoms)
		}
		w := weights[p]
		for a := 0; a < nAtoms; a++ {
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					avg[a][i][j] += atomTensors[a][i][j] * w
				}
			}
		}
	}
	for a := range avg {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				avg[a][i][j] /= total
			}
		}
	}
	return avg, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
