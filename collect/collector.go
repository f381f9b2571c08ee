package collect

import (
	"fmt"
	"sort"

	"github.com/muonsuite/muairss/crystal"
)

// OptimizedResult is what the external optimizer hands back for one
// candidate: final positions in the candidate's atom order, the (possibly
// relaxed) cell, the total energy in eV and a convergence flag.
type OptimizedResult struct {
	CandidateID int
	Species     []string
	Positions   []crystal.Vec3
	Cell        *crystal.UnitCell
	Energy      float64
	Converged   bool
}

// MuonPos returns the optimized muon position (last atom by construction).
func (r *OptimizedResult) MuonPos() crystal.Vec3 {
	return r.Positions[len(r.Positions)-1]
}

// ResultMismatchError reports an optimizer output that does not line up with
// the candidate it claims to belong to. The candidate is excluded from
// clustering; the batch goes on.
type ResultMismatchError struct {
	CandidateID int
	Reason      string
}

func (e *ResultMismatchError) Error() string {
	return fmt.Sprintf("result for candidate %d does not match its structure: %s", e.CandidateID, e.Reason)
}

// Failure records one candidate that produced no usable result.
type Failure struct {
	CandidateID int
	Reason      string
}

// FailureReport accumulates per-candidate failures so they surface in the
// final report instead of being silently dropped.
type FailureReport struct {
	Failures []Failure
}

// IDs returns the failed candidate identifiers in ascending order.
func (r *FailureReport) IDs() []int {
	ids := make([]int, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.CandidateID
	}
	sort.Ints(ids)
	return ids
}

// Collector assembles optimizer outputs for a candidate batch. Outputs may
// arrive in any order and may be missing, duplicated or malformed; none of
// that aborts the batch.
type Collector struct {
	candidates map[int]crystal.Candidate
	results    map[int]OptimizedResult
	failures   map[int]string
	Log        bool
}

// NewCollector builds a collector over the submitted candidate batch.
func NewCollector(batch []crystal.Candidate) *Collector {
	candidates := make(map[int]crystal.Candidate, len(batch))
	for _, c := range batch {
		candidates[c.ID] = c
	}
	return &Collector{
		candidates: candidates,
		results:    make(map[int]OptimizedResult, len(batch)),
		failures:   make(map[int]string),
	}
}

// Add records one optimizer output. A result whose atom count or species
// order disagrees with the original candidate earns a ResultMismatchError and
// marks that candidate failed; a duplicate for an already-seen candidate wins
// with a warning; a result flagged non-converged is recorded as a failure.
func (c *Collector) Add(res OptimizedResult) error {
	cand, ok := c.candidates[res.CandidateID]
	if !ok {
		err := &ResultMismatchError{CandidateID: res.CandidateID, Reason: "unknown candidate identifier"}
		if c.Log {
			fmt.Printf("Rejected result: %v\n", err)
		}
		return err
	}

	if reason := c.mismatch(cand, res); reason != "" {
		c.failures[res.CandidateID] = reason
		delete(c.results, res.CandidateID)
		err := &ResultMismatchError{CandidateID: res.CandidateID, Reason: reason}
		if c.Log {
			fmt.Printf("Rejected result: %v\n", err)
		}
		return err
	}

	if !res.Converged {
		c.MarkFailed(res.CandidateID, "did not converge")
		return nil
	}

	if _, seen := c.results[res.CandidateID]; seen && c.Log {
		fmt.Printf("Warning: duplicate result for candidate %d, keeping the latest\n", res.CandidateID)
	}
	c.results[res.CandidateID] = res
	delete(c.failures, res.CandidateID)
	return nil
}

// MarkFailed records an explicit failure signal (crash, timeout, lost job)
// for a candidate.
func (c *Collector) MarkFailed(id int, reason string) {
	if _, ok := c.candidates[id]; !ok {
		return
	}
	// A usable result already collected wins over a late failure signal.
	if _, ok := c.results[id]; ok {
		return
	}
	c.failures[id] = reason
}

func (c *Collector) mismatch(cand crystal.Candidate, res OptimizedResult) string {
	want := cand.Species()
	if len(res.Positions) != len(want) {
		return fmt.Sprintf("atom count %d, candidate has %d", len(res.Positions), len(want))
	}
	if len(res.Species) != 0 {
		if len(res.Species) != len(want) {
			return fmt.Sprintf("species count %d, candidate has %d", len(res.Species), len(want))
		}
		for i := range want {
			if res.Species[i] != want[i] {
				return fmt.Sprintf("species order differs at atom %d: %s vs %s", i, res.Species[i], want[i])
			}
		}
	}
	if res.Cell == nil {
		return "missing unit cell"
	}
	return ""
}

// Collect closes the batch: candidates with neither a result nor an explicit
// failure are marked as missing. It returns the usable results sorted by
// candidate ID and the failure report.
func (c *Collector) Collect() ([]OptimizedResult, FailureReport) {
	var report FailureReport
	for id := range c.candidates {
		if _, ok := c.results[id]; ok {
			continue
		}
		reason, ok := c.failures[id]
		if !ok {
			reason = "no result received"
		}
		report.Failures = append(report.Failures, Failure{CandidateID: id, Reason: reason})
	}
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].CandidateID < report.Failures[j].CandidateID
	})

	results := make([]OptimizedResult, 0, len(c.results))
	for _, r := range c.results {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CandidateID < results[j].CandidateID
	})

	if c.Log {
		fmt.Printf("Collected %d results, %d failures out of %d candidates\n",
			len(results), len(report.Failures), len(c.candidates))
	}
	return results, report
}
