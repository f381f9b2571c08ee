package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeParams(t, `
verbose = true

[muon]
species = "mu+"
count = 30
min_distance = 1.2
min_distance_from_atoms = 1.5
seed = 42

[clustering]
threshold = 0.75
linkage = "average"
symmetry_file = "ops.json"

[output]
directory = "out"
save_format = "mmap"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, "mu+", cfg.Muon.Species)
	assert.Equal(t, 30, cfg.Muon.Count)
	assert.Equal(t, 1.2, cfg.Muon.MinDistance)
	assert.Equal(t, int64(42), cfg.Muon.Seed)
	assert.Equal(t, 0.75, cfg.Clustering.Threshold)
	assert.Equal(t, "average", cfg.Clustering.Linkage)
	assert.Equal(t, "ops.json", cfg.Clustering.SymmetryFile)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "mmap", cfg.Output.SaveFormat)

	// Unset values still get defaults.
	assert.Equal(t, 10000, cfg.Muon.MaxAttempts)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeParams(t, ""))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def, cfg)
	assert.Equal(t, "H:mu", cfg.Muon.Species)
	assert.Equal(t, 20, cfg.Muon.Count)
	assert.Equal(t, 0.8, cfg.Muon.MinDistance)
	assert.Equal(t, 1.0, cfg.Muon.MinDistanceFromAtoms)
	assert.Equal(t, 0.5, cfg.Clustering.Threshold)
	assert.Equal(t, "single", cfg.Clustering.Linkage)
	assert.Equal(t, "stream", cfg.Output.SaveFormat)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeParams(t, "[clustering]\nlinkage = \"ward\"\n"))
	assert.Error(t, err)

	_, err = Load(writeParams(t, "[output]\nsave_format = \"json\"\n"))
	assert.Error(t, err)

	_, err = Load(writeParams(t, "not toml at all ["))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
