package sites

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/crystal"
)

// generateRandomResults creates n optimized results scattered around numSites
// synthetic stopping sites in a 10 A cubic cell.
func generateRandomResults(n, numSites int, cell *crystal.UnitCell) []collect.OptimizedResult {
	// Use deterministic seed for reproducibility
	source := rand.NewSource(42)
	r := rand.New(source)

	centers := make([]crystal.Vec3, numSites)
	for i := range centers {
		centers[i] = crystal.Vec3{r.Float64() * 10, r.Float64() * 10, r.Float64() * 10}
	}

	results := make([]collect.OptimizedResult, n)
	for i := 0; i < n; i++ {
		c := centers[i%numSites]
		mu := crystal.Vec3{
			c[0] + (r.Float64()-0.5)*0.2,
			c[1] + (r.Float64()-0.5)*0.2,
			c[2] + (r.Float64()-0.5)*0.2,
		}
		results[i] = collect.OptimizedResult{
			CandidateID: i,
			Species:     []string{"Cu", "H:mu"},
			Positions:   []crystal.Vec3{{0, 0, 0}, mu},
			Cell:        cell,
			Energy:      -1418 + r.Float64(),
			Converged:   true,
		}
	}
	return results
}

// benchmarkClustering runs clustering benchmarks with different result counts
// and linkage methods
func benchmarkClustering(b *testing.B, numResults int, linkage string) {
	cell, err := crystal.Cubic(10)
	if err != nil {
		b.Fatal(err)
	}
	results := generateRandomResults(numResults, 8, cell)

	// Track memory usage before and after
	var memStatsBefore, memStatsAfter runtime.MemStats
	runtime.ReadMemStats(&memStatsBefore)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ClusterResults(results, ClusterOptions{
			Threshold: 0.5,
			Linkage:   linkage,
			Cell:      cell,
		}); err != nil {
			b.Fatal(err)
		}
	}

	b.StopTimer()

	// Measure memory after benchmark
	runtime.ReadMemStats(&memStatsAfter)
	allocMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024

	// Report additional metrics
	b.ReportMetric(allocMB, "MB/op")
}

// Benchmark with different result counts and linkage methods
func BenchmarkClusteringSmall_Single(b *testing.B) {
	benchmarkClustering(b, 100, LinkageSingle)
}

func BenchmarkClusteringSmall_Average(b *testing.B) {
	benchmarkClustering(b, 100, LinkageAverage)
}

func BenchmarkClusteringSmall_Complete(b *testing.B) {
	benchmarkClustering(b, 100, LinkageComplete)
}

func BenchmarkClusteringMedium_Single(b *testing.B) {
	benchmarkClustering(b, 500, LinkageSingle)
}

func BenchmarkClusteringMedium_Average(b *testing.B) {
	benchmarkClustering(b, 500, LinkageAverage)
}

func BenchmarkClusteringMedium_Complete(b *testing.B) {
	benchmarkClustering(b, 500, LinkageComplete)
}

func BenchmarkClusteringLarge_Single(b *testing.B) {
	benchmarkClustering(b, 2000, LinkageSingle)
}

func BenchmarkClusteringLarge_Complete(b *testing.B) {
	benchmarkClustering(b, 2000, LinkageComplete)
}
