package crystal

import (
	"encoding/json"
	"fmt"
	"os"
)

// SymmetryOp is a rotation plus translation acting on fractional coordinates,
// as produced by an external symmetry-analysis tool. The core never derives
// operations itself; it only applies them.
type SymmetryOp struct {
	Rotation    [3][3]float64 `json:"rotation"`
	Translation [3]float64    `json:"translation"`
}

// Apply maps a fractional position through the operation and wraps the result
// back into the cell.
func (op SymmetryOp) Apply(frac Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = op.Rotation[i][0]*frac[0] + op.Rotation[i][1]*frac[1] + op.Rotation[i][2]*frac[2] + op.Translation[i]
	}
	return Wrap(out)
}

type symmetryFile struct {
	Operations []SymmetryOp `json:"operations"`
}

// LoadSymmetryOps reads a JSON operations file written by the symmetry
// collaborator: {"operations": [{"rotation": [[...]x3], "translation": [...]}]}.
func LoadSymmetryOps(path string) ([]SymmetryOp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symmetry file: %w", err)
	}
	var f symmetryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse symmetry file %s: %w", path, err)
	}
	if len(f.Operations) == 0 {
		return nil, fmt.Errorf("symmetry file %s contains no operations", path)
	}
	return f.Operations, nil
}
