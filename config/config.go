package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MuonConfig controls candidate generation.
type MuonConfig struct {
	Species              string  `toml:"species"`
	Count                int     `toml:"count"`
	MinDistance          float64 `toml:"min_distance"`
	MinDistanceFromAtoms float64 `toml:"min_distance_from_atoms"`
	MaxAttempts          int     `toml:"max_attempts"`
	Seed                 int64   `toml:"seed"`
}

// ClusteringConfig controls the analyze phase.
type ClusteringConfig struct {
	Threshold float64 `toml:"threshold"`
	Linkage   string  `toml:"linkage"`
	// SymmetryFile points at a JSON operations file from the external
	// symmetry tool; empty disables symmetry-aware clustering.
	SymmetryFile string `toml:"symmetry_file"`
}

// OutputConfig controls where batches and reports land.
type OutputConfig struct {
	Directory string `toml:"directory"`
	// SaveFormat selects the report archive writer: "stream" or "mmap".
	SaveFormat string `toml:"save_format"`
}

type Config struct {
	Muon       MuonConfig       `toml:"muon"`
	Clustering ClusteringConfig `toml:"clustering"`
	Output     OutputConfig     `toml:"output"`
	Verbose    bool             `toml:"verbose"`
}

// Load reads a TOML parameter file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse parameter file '%s': %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter file '%s': %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no parameter file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Muon.Species == "" {
		c.Muon.Species = "H:mu"
	}
	if c.Muon.Count <= 0 {
		c.Muon.Count = 20
	}
	if c.Muon.MinDistance <= 0 {
		c.Muon.MinDistance = 0.8
	}
	if c.Muon.MinDistanceFromAtoms <= 0 {
		c.Muon.MinDistanceFromAtoms = 1.0
	}
	if c.Muon.MaxAttempts <= 0 {
		c.Muon.MaxAttempts = 10000
	}
	if c.Clustering.Threshold <= 0 {
		c.Clustering.Threshold = 0.5
	}
	if c.Clustering.Linkage == "" {
		c.Clustering.Linkage = "single"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "muairss-out"
	}
	if c.Output.SaveFormat == "" {
		c.Output.SaveFormat = "stream"
	}
}

func (c *Config) validate() error {
	switch c.Clustering.Linkage {
	case "single", "average", "complete":
	default:
		return fmt.Errorf("unknown linkage method %q", c.Clustering.Linkage)
	}
	switch c.Output.SaveFormat {
	case "stream", "mmap":
	default:
		return fmt.Errorf("unknown save format %q", c.Output.SaveFormat)
	}
	return nil
}
