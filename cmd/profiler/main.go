package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/crystal"
	"github.com/muonsuite/muairss/sites"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to file")
	heapprofile = flag.String("heapprofile", "", "write heap profile to file")
	numResults  = flag.Int("results", 1000, "number of optimized results to cluster")
	numSites    = flag.Int("sites", 8, "number of synthetic stopping sites")
	linkage     = flag.String("linkage", sites.LinkageSingle, "linkage method to profile")
	testall     = flag.Bool("testall", false, "test all configurations")
)

// generateResults fabricates optimized results scattered around numSites
// synthetic stopping sites inside a 10 A cubic cell.
func generateResults(n, numSites int) ([]collect.OptimizedResult, *crystal.UnitCell) {
	cell, err := crystal.Cubic(10)
	if err != nil {
		panic(err)
	}

	// Use deterministic seed for reproducibility
	r := rand.New(rand.NewSource(42))

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
	return results, cell
}

func runSingleProfile(n, numSites int, linkage string) {
	fmt.Printf("Profiling %s-linkage clustering of %d results over %d sites\n", linkage, n, numSites)

	results, cell := generateResults(n, numSites)

	var memStatsBefore, memStatsAfter runtime.MemStats
	runtime.ReadMemStats(&memStatsBefore)

	start := time.Now()
	clusters, err := sites.ClusterResults(results, sites.ClusterOptions{
		Threshold: 0.5,
		Linkage:   linkage,
		Cell:      cell,
	})
	duration := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Clustering failed: %v\n", err)
		return
	}

	runtime.ReadMemStats(&memStatsAfter)
	allocMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024

	fmt.Printf("Clustering completed in %v (%d clusters)\n", duration, len(clusters))
	fmt.Printf("Memory allocated: %.2f MB\n", allocMB)
	fmt.Printf("Memory usage: %.2f MB\n", float64(memStatsAfter.Alloc)/1024/1024)
}

func runProfileBattery() {
	resultCounts := []int{100, 500, 1000, 2000}
	linkages := []string{sites.LinkageSingle, sites.LinkageAverage, sites.LinkageComplete}

	fmt.Println("Running comprehensive profile battery...")
	fmt.Println("=======================================")

	fmt.Printf("%-10s | %-10s | %-15s | %-12s | %-10s | %-10s\n",
		"Results", "Linkage", "Duration", "Clusters", "Memory (MB)", "GC Runs")
	fmt.Printf("%s\n", "------------------------------------------------------------------------")

	for _, n := range resultCounts {
		for _, lk := range linkages {
			results, cell := generateResults(n, *numSites)

			var memStatsBefore, memStatsAfter runtime.MemStats
			runtime.ReadMemStats(&memStatsBefore)

			start := time.Now()
			clusters, err := sites.ClusterResults(results, sites.ClusterOptions{
				Threshold: 0.5,
				Linkage:   lk,
				Cell:      cell,
			})
			duration := time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Clustering failed: %v\n", err)
				continue
			}

			runtime.ReadMemStats(&memStatsAfter)
			memMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024
			gcRuns := memStatsAfter.NumGC - memStatsBefore.NumGC

			fmt.Printf("%-10d | %-10s | %-15s | %-12d | %-10.2f | %-10d\n",
				n, lk, duration, len(clusters), memMB, gcRuns)
		}

		fmt.Printf("%s\n", "------------------------------------------------------------------------")
	}
}

func main() {
	flag.Parse()

	// Set up CPU profiling if requested
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			return
		}
		defer f.Close()

		fmt.Println("Starting CPU profiling...")
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	if *testall {
		runProfileBattery()
	} else {
		runSingleProfile(*numResults, *numSites, *linkage)
	}

	// Write memory profile if requested
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create memory profile: %v\n", err)
			return
		}
		defer f.Close()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write memory profile: %v\n", err)
		}
	}

	// Write heap profile if requested
	if *heapprofile != "" {
		f, err := os.Create(*heapprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create heap profile: %v\n", err)
			return
		}
		defer f.Close()

		memProfile := pprof.Lookup("heap")
		if memProfile == nil {
			fmt.Fprintf(os.Stderr, "Could not find heap profile\n")
			return
		}

		if err := memProfile.WriteTo(f, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write heap profile: %v\n", err)
		}
	}
}
