package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/muonsuite/muairss/crystal"
)

// Manifest is the batch record written next to the candidate directories. It
// carries enough to rebuild the candidate set exactly during analyze, so the
// collector can validate optimizer outputs against what was submitted.
type Manifest struct {
	BatchID     string       `json:"batch_id"`
	Structure   string       `json:"structure"`
	MuonSpecies string       `json:"muon_species"`
	Seed        int64        `json:"seed"`
	Requested   int          `json:"requested"`
	Positions   [][3]float64 `json:"positions"`
}

const manifestName = "batch.json"

// MuonPositions returns the sampled positions as vectors.
func (m *Manifest) MuonPositions() []crystal.Vec3 {
	out := make([]crystal.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		out[i] = crystal.Vec3(p)
	}
	return out
}

func saveManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestName), data, 0644)
}

func loadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read batch manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse batch manifest: %w", err)
	}
	return &m, nil
}
