package sites

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/crystal"
)

// Linkage selects how the distance between two clusters is derived from the
// pairwise distances of their members.
const (
	LinkageSingle   = "single"   // minimum pairwise distance
	LinkageAverage  = "average"  // mean pairwise distance
	LinkageComplete = "complete" // maximum pairwise distance
)

// ClusterOptions configures the clustering engine. Metric defaults to the
// plain periodic metric over Cell when left nil.
type ClusterOptions struct {
	// Threshold is the dendrogram cut distance in Angstrom: merging stops
	// once the closest pair of clusters is farther apart than this.
	Threshold float64
	Linkage   string
	// Cell is the host lattice used for cross-result distance comparisons.
	Cell *crystal.UnitCell
	// Metric overrides the distance function, e.g. for symmetry-aware
	// clustering.
	Metric crystal.Metric
	Log    bool
}

// EmptyInputError means clustering was asked to partition zero usable
// results. Reported to the user, never a crash.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no successfully optimized results to cluster"
}

// SiteCluster is one equivalence class of optimized results: a distinct muon
// stopping site. Immutable once computed.
type SiteCluster struct {
	// Members holds the candidate IDs judged equivalent, ascending.
	Members    []int
	Population int

	MeanEnergy float64
	MinEnergy  float64
	MaxEnergy  float64
	StdEnergy  float64

	// Representative is the lowest-energy member.
	Representative collect.OptimizedResult
}

// workingCluster is the mutable merge state during agglomeration.
type workingCluster struct {
	members []int // indices into the results slice
	idSum   int   // sum of candidate IDs, used for deterministic tie-breaks
}

// ClusterResults partitions optimized results into stopping sites by
// agglomerative hierarchical clustering over the muon positions, cut at
// opts.Threshold. Clusters come back sorted by descending population, then
// ascending mean energy.
func ClusterResults(results []collect.OptimizedResult, opts ClusterOptions) ([]SiteCluster, error) {
	if len(results) == 0 {
		return nil, &EmptyInputError{}
	}
	linkage := opts.Linkage
	if linkage == "" {
		linkage = LinkageSingle
	}
	switch linkage {
	case LinkageSingle, LinkageAverage, LinkageComplete:
	default:
		return nil, fmt.Errorf("unknown linkage method %q", opts.Linkage)
	}
	metric := opts.Metric
	if metric == nil {
		if opts.Cell == nil {
			return nil, fmt.Errorf("clustering needs either a metric or a host cell")
		}
		metric = &crystal.PeriodicMetric{Cell: opts.Cell}
	}

	// Full pairwise distance matrix over muon positions. Comparisons use the
	// shared host lattice: per-result relaxed cells shift all positions
	// coherently and are reconciled when the muon position is wrapped back
	// into the host cell by the metric.
	n := len(results)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := metric.Distance(results[i].MuonPos(), results[j].MuonPos())
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	clusters := make([]*workingCluster, n)
	for i, r := range results {
		clusters[i] = &workingCluster{members: []int{i}, idSum: r.CandidateID}
	}

	// Greedy agglomeration: merge the closest pair while it sits inside the
	// threshold. Exactly equal linkage distances break ties on the lower
	// combined candidate-ID sum so the outcome never depends on input order.
	for len(clusters) > 1 {
		bestA, bestB := -1, -1
		bestD := math.Inf(1)
		bestSum := 0
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				d := linkageDistance(dist, clusters[a], clusters[b], linkage)
				sum := clusters[a].idSum + clusters[b].idSum
				if d < bestD || (d == bestD && sum < bestSum) {
					bestA, bestB = a, b
					bestD = d
					bestSum = sum
				}
			}
		}
		if bestD > opts.Threshold {
			break
		}
		merged := &workingCluster{
			members: append(append([]int{}, clusters[bestA].members...), clusters[bestB].members...),
			idSum:   clusters[bestA].idSum + clusters[bestB].idSum,
		}
		next := make([]*workingCluster, 0, len(clusters)-1)
		for i, c := range clusters {
			if i != bestA && i != bestB {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
	}

	out := make([]SiteCluster, len(clusters))
	for i, wc := range clusters {
		out[i] = summarize(results, wc.members)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Population != out[j].Population {
			return out[i].Population > out[j].Population
		}
		return out[i].MeanEnergy < out[j].MeanEnergy
	})

	if opts.Log {
		fmt.Printf("Formed %d clusters from %d results (%s linkage, threshold %.3f)\n",
			len(out), n, linkage, opts.Threshold)
	}
	return out, nil
}

func linkageDistance(dist [][]float64, a, b *workingCluster, linkage string) float64 {
	switch linkage {
	case LinkageSingle:
		best := math.Inf(1)
		for _, i := range a.members {
			for _, j := range b.members {
				if d := dist[i][j]; d < best {
					best = d
				}
			}
		}
		return best
	case LinkageComplete:
		worst := 0.0
		for _, i := range a.members {
			for _, j := range b.members {
				if d := dist[i][j]; d > worst {
					worst = d
				}
			}
		}
		return worst
	default: // LinkageAverage
		sum := 0.0
		for _, i := range a.members {
			for _, j := range b.members {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a.members)*len(b.members))
	}
}

func summarize(results []collect.OptimizedResult, members []int) SiteCluster {
	energies := make([]float64, len(members))
	ids := make([]int, len(members))
	repIdx := members[0]
	for k, idx := range members {
		energies[k] = results[idx].Energy
		ids[k] = results[idx].CandidateID
		if results[idx].Energy < results[repIdx].Energy {
			repIdx = idx
		}
	}
	sort.Ints(ids)

	std := 0.0
	if len(energies) > 1 {
		std = stat.StdDev(energies, nil)
	}
	return SiteCluster{
		Members:        ids,
		Population:     len(ids),
		MeanEnergy:     stat.Mean(energies, nil),
		MinEnergy:      floats.Min(energies),
		MaxEnergy:      floats.Max(energies),
		StdEnergy:      std,
		Representative: results[repIdx],
	}
}
