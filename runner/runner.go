// Package runner wires the core components into the two workflow entry
// points: Generate writes a candidate batch for the external optimizer,
// Analyze collects and clusters what came back.
package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/config"
	"github.com/muonsuite/muairss/crystal"
	"github.com/muonsuite/muairss/sample"
	"github.com/muonsuite/muairss/sites"
)

// GenerateSummary describes what a generate run produced.
type GenerateSummary struct {
	BatchID   string
	BatchDir  string
	Requested int
	Generated int
	// Partial is set when the sampler ran out of attempts and the batch
	// holds fewer candidates than requested.
	Partial bool
}

// Generate samples candidate muon sites in the structure and writes one
// sub-directory per candidate, ready for submission to the external
// optimizer. An exhausted attempt budget does not discard the accepted
// points: the partial batch is written and flagged on the summary.
func Generate(structurePath string, cfg *config.Config) (*GenerateSummary, error) {
	host, err := crystal.ReadXYZFile(structurePath)
	if err != nil {
		return nil, err
	}

	sampler := sample.NewSampler(host, sample.Options{
		Count:                cfg.Muon.Count,
		MinDistance:          cfg.Muon.MinDistance,
		MinDistanceFromAtoms: cfg.Muon.MinDistanceFromAtoms,
		MaxAttempts:          cfg.Muon.MaxAttempts,
		Seed:                 cfg.Muon.Seed,
		Log:                  cfg.Verbose,
	})

	positions, err := sampler.Generate()
	partial := false
	if err != nil {
		var exhausted *sample.SamplingExhaustedError
		if !errors.As(err, &exhausted) {
			return nil, err
		}
		positions = exhausted.Accepted
		partial = true
		fmt.Printf("Warning: %v\n", exhausted)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no candidate positions could be placed in %s", host.Name)
	}

	candidates := sample.BuildCandidates(host, positions, cfg.Muon.Species)

	batchDir := filepath.Join(cfg.Output.Directory, host.Name)
	if err := os.MkdirAll(filepath.Join(batchDir, "results"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	for _, c := range candidates {
		name := fmt.Sprintf("cand-%04d", c.ID)
		dir := filepath.Join(batchDir, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create candidate directory: %w", err)
		}
		if err := crystal.WriteXYZFile(filepath.Join(dir, name+".xyz"), c.Structure); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		BatchID:     uuid.New().String()[:8],
		Structure:   host.Name,
		MuonSpecies: cfg.Muon.Species,
		Seed:        cfg.Muon.Seed,
		Requested:   cfg.Muon.Count,
		Positions:   make([][3]float64, len(positions)),
	}
	for i, p := range positions {
		manifest.Positions[i] = p
	}
	if err := saveManifest(batchDir, manifest); err != nil {
		return nil, fmt.Errorf("failed to write batch manifest: %w", err)
	}

	if cfg.Verbose {
		fmt.Printf("Wrote %d candidates to %s (batch %s)\n", len(candidates), batchDir, manifest.BatchID)
	}
	return &GenerateSummary{
		BatchID:   manifest.BatchID,
		BatchDir:  batchDir,
		Requested: cfg.Muon.Count,
		Generated: len(candidates),
		Partial:   partial,
	}, nil
}

// Analyze rebuilds the candidate batch from its manifest, collects the
// optimizer outputs under <batch>/results, clusters the surviving results
// into stopping sites and saves a compressed report archive. The report is
// returned for rendering; per-candidate failures are recorded inside it.
func Analyze(structurePath string, cfg *config.Config) (*sites.Report, error) {
	host, err := crystal.ReadXYZFile(structurePath)
	if err != nil {
		return nil, err
	}

	batchDir := filepath.Join(cfg.Output.Directory, host.Name)
	manifest, err := loadManifest(batchDir)
	if err != nil {
		return nil, err
	}

	candidates := sample.BuildCandidates(host, manifest.MuonPositions(), manifest.MuonSpecies)

	collector := collect.NewCollector(candidates)
	collector.Log = cfg.Verbose
	if _, err := collect.ReadResultsDir(filepath.Join(batchDir, "results"), collector); err != nil {
		return nil, err
	}
	results, failures := collector.Collect()

	opts := sites.ClusterOptions{
		Threshold: cfg.Clustering.Threshold,
		Linkage:   cfg.Clustering.Linkage,
		Cell:      host.Cell,
		Log:       cfg.Verbose,
	}
	if cfg.Clustering.SymmetryFile != "" {
		ops, err := crystal.LoadSymmetryOps(cfg.Clustering.SymmetryFile)
		if err != nil {
			return nil, err
		}
		opts.Metric = &crystal.SymmetryMetric{Cell: host.Cell, Ops: ops}
	}

	clusters, err := sites.ClusterResults(results, opts)
	if err != nil {
		return nil, err
	}

	report := sites.BuildReport(manifest.BatchID, host.Name, len(candidates), len(results), failures, clusters, opts)

	savePath := reportFilename(batchDir, len(clusters))
	if cfg.Verbose {
		fmt.Printf("Saving report to %s...\n", savePath)
	}
	if cfg.Output.SaveFormat == "mmap" {
		err = report.SaveCompressedMMap(savePath)
	} else {
		err = report.SaveCompressed(savePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

// Format: report-{numClusters}c-{timestamp}-{id}.zst
func reportFilename(dir string, numClusters int) string {
	timestamp := time.Now().Format("20060102-150405")
	id := uuid.New().String()[:8] // Use first 8 chars of UUID for brevity
	return filepath.Join(dir, fmt.Sprintf("report-%dc-%s-%s.zst", numClusters, timestamp, id))
}
