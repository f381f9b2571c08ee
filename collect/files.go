package collect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/muonsuite/muairss/crystal"
)

// resultFile is the on-disk form the external optimizer writes, one JSON file
// per candidate (cand-NNNN.json).
type resultFile struct {
	CandidateID int           `json:"candidate_id"`
	Species     []string      `json:"species,omitempty"`
	Positions   [][3]float64  `json:"positions"`
	Cell        [3][3]float64 `json:"cell"`
	Energy      float64       `json:"energy"`
	Converged   bool          `json:"converged"`
	Failed      bool          `json:"failed,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// ReadResultsDir feeds every cand-*.json file under dir into the collector.
// Files are processed in name order so duplicate handling is reproducible.
// A file that cannot be parsed or that mismatches its candidate only takes
// down that candidate, never the batch; the error count is returned for the
// caller's report.
func ReadResultsDir(dir string, c *Collector) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "cand-*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to scan results directory: %w", err)
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no result files found in %s", dir)
	}
	sort.Strings(paths)

	rejected := 0
	for _, path := range paths {
		if err := readResultFile(path, c); err != nil {
			rejected++
			if c.Log {
				fmt.Printf("Skipping %s: %v\n", filepath.Base(path), err)
			}
		}
	}
	return rejected, nil
}

func readResultFile(path string, c *Collector) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var rf resultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("invalid result file: %w", err)
	}

	if rf.Failed {
		reason := rf.Reason
		if reason == "" {
			reason = "optimizer reported failure"
		}
		c.MarkFailed(rf.CandidateID, reason)
		return nil
	}

	cell, err := crystal.NewUnitCell(rf.Cell)
	if err != nil {
		c.MarkFailed(rf.CandidateID, "result carries a degenerate cell")
		return err
	}

	positions := make([]crystal.Vec3, len(rf.Positions))
	for i, p := range rf.Positions {
		positions[i] = crystal.Vec3(p)
	}

	addErr := c.Add(OptimizedResult{
		CandidateID: rf.CandidateID,
		Species:     rf.Species,
		Positions:   positions,
		Cell:        cell,
		Energy:      rf.Energy,
		Converged:   rf.Converged,
	})
	var rme *ResultMismatchError
	if errors.As(addErr, &rme) {
		return addErr
	}
	return nil
}

// WriteResultFile writes one result in the exchange format. The workflow uses
// it in tests and the profiler; real optimizer wrappers produce the same
// shape.
func WriteResultFile(dir string, res OptimizedResult) error {
	rf := resultFile{
		CandidateID: res.CandidateID,
		Species:     res.Species,
		Energy:      res.Energy,
		Converged:   res.Converged,
	}
	rf.Positions = make([][3]float64, len(res.Positions))
	for i, p := range res.Positions {
		rf.Positions[i] = p
	}
	rf.Cell = res.Cell.Vectors

	data, err := json.MarshalIndent(&rf, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("cand-%04d.json", res.CandidateID))
	return os.WriteFile(path, data, 0644)
}

// WriteFailureFile records an explicit failure signal for a candidate in the
// same exchange format.
func WriteFailureFile(dir string, candidateID int, reason string) error {
	rf := resultFile{CandidateID: candidateID, Failed: true, Reason: reason}
	data, err := json.MarshalIndent(&rf, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("cand-%04d.json", candidateID))
	return os.WriteFile(path, data, 0644)
}
