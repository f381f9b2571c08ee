package sites

import (
	"fmt"
	"io"
	"time"

	"github.com/muonsuite/muairss/collect"
)

// Report is the artifact of one analyze run: the clusters found plus the
// candidates that produced nothing usable. It is what gets rendered for the
// user and persisted to disk.
type Report struct {
	BatchID   string
	Structure string
	CreatedAt time.Time

	Threshold float64
	Linkage   string

	TotalCandidates int
	UsableResults   int
	Failed          []collect.Failure

	Clusters []SiteCluster
}

// BuildReport assembles the report for a finished clustering run.
func BuildReport(batchID, structure string, total int, usable int, failures collect.FailureReport, clusters []SiteCluster, opts ClusterOptions) *Report {
	linkage := opts.Linkage
	if linkage == "" {
		linkage = LinkageSingle
	}
	return &Report{
		BatchID:         batchID,
		Structure:       structure,
		CreatedAt:       time.Now().UTC(),
		Threshold:       opts.Threshold,
		Linkage:         linkage,
		TotalCandidates: total,
		UsableResults:   usable,
		Failed:          failures.Failures,
		Clusters:        clusters,
	}
}

// Render writes the human-readable report. Failed candidates are always
// listed: losing them silently is not an option.
func (r *Report) Render(w io.Writer) error {
	fmt.Fprintf(w, "Muon stopping site report for %s (batch %s)\n", r.Structure, r.BatchID)
	fmt.Fprintf(w, "Generated %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Candidates: %d submitted, %d optimized, %d failed\n",
		r.TotalCandidates, r.UsableResults, len(r.Failed))
	fmt.Fprintf(w, "Clustering: %s linkage, threshold %.3f A\n\n", r.Linkage, r.Threshold)

	for i, c := range r.Clusters {
		mu := c.Representative.MuonPos()
		fmt.Fprintf(w, "Site %d: population %d\n", i+1, c.Population)
		fmt.Fprintf(w, "  energy (eV): mean %.6f  min %.6f  max %.6f  std %.6f\n",
			c.MeanEnergy, c.MinEnergy, c.MaxEnergy, c.StdEnergy)
		fmt.Fprintf(w, "  representative: candidate %d, muon at (%.4f, %.4f, %.4f)\n",
			c.Representative.CandidateID, mu[0], mu[1], mu[2])
		fmt.Fprintf(w, "  members: %v\n", c.Members)
	}

	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "\nFailed candidates:\n")
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  %d: %s\n", f.CandidateID, f.Reason)
		}
	}
	return nil
}
