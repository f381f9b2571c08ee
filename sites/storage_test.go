package sites

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/crystal"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	cell := mustCubic(t, 10)
	results := []collect.OptimizedResult{
		resultAt(cell, 0, crystal.Vec3{1, 1, 1}, -1.0),
		resultAt(cell, 1, crystal.Vec3{1.1, 1, 1}, -2.0),
		resultAt(cell, 3, crystal.Vec3{6, 6, 6}, -0.5),
	}
	opts := ClusterOptions{Threshold: 1.0, Linkage: LinkageSingle, Cell: cell}
	clusters, err := ClusterResults(results, opts)
	if err != nil {
		t.Fatalf("ClusterResults failed: %v", err)
	}
	failures := collect.FailureReport{Failures: []collect.Failure{
		{CandidateID: 2, Reason: "did not converge"},
	}}
	r := BuildReport("deadbeef", "cu-bulk", 4, len(results), failures, clusters, opts)
	r.CreatedAt = time.Date(2026, 5, 14, 10, 30, 0, 0, time.UTC)
	return r
}

func reportsEqual(t *testing.T, a, b *Report) {
	t.Helper()
	if a.BatchID != b.BatchID || a.Structure != b.Structure {
		t.Errorf("Header differs: %s/%s vs %s/%s", a.BatchID, a.Structure, b.BatchID, b.Structure)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("CreatedAt differs: %v vs %v", a.CreatedAt, b.CreatedAt)
	}
	if a.Threshold != b.Threshold || a.Linkage != b.Linkage {
		t.Errorf("Options differ: %f/%s vs %f/%s", a.Threshold, a.Linkage, b.Threshold, b.Linkage)
	}
	if a.TotalCandidates != b.TotalCandidates || a.UsableResults != b.UsableResults {
		t.Errorf("Counts differ")
	}
	if len(a.Failed) != len(b.Failed) {
		t.Fatalf("Failure count differs: %d vs %d", len(a.Failed), len(b.Failed))
	}
	for i := range a.Failed {
		if a.Failed[i] != b.Failed[i] {
			t.Errorf("Failure %d differs: %+v vs %+v", i, a.Failed[i], b.Failed[i])
		}
	}
	if len(a.Clusters) != len(b.Clusters) {
		t.Fatalf("Cluster count differs: %d vs %d", len(a.Clusters), len(b.Clusters))
	}
	for i := range a.Clusters {
		ca, cb := a.Clusters[i], b.Clusters[i]
		if ca.Population != cb.Population || ca.MeanEnergy != cb.MeanEnergy ||
			ca.MinEnergy != cb.MinEnergy || ca.MaxEnergy != cb.MaxEnergy ||
			ca.StdEnergy != cb.StdEnergy {
			t.Errorf("Cluster %d stats differ", i)
		}
		if ca.Representative.CandidateID != cb.Representative.CandidateID ||
			ca.Representative.Energy != cb.Representative.Energy {
			t.Errorf("Cluster %d representative differs", i)
		}
		if len(ca.Representative.Positions) != len(cb.Representative.Positions) {
			t.Fatalf("Cluster %d representative atom count differs", i)
		}
		for k := range ca.Representative.Positions {
			if ca.Representative.Positions[k] != cb.Representative.Positions[k] {
				t.Errorf("Cluster %d representative position %d differs", i, k)
			}
		}
	}
}

func TestSaveLoadCompressed(t *testing.T) {
	report := sampleReport(t)
	path := filepath.Join(t.TempDir(), "report.zst")

	if err := report.SaveCompressed(path); err != nil {
		t.Fatalf("SaveCompressed failed: %v", err)
	}
	back, err := LoadCompressedReport(path)
	if err != nil {
		t.Fatalf("LoadCompressedReport failed: %v", err)
	}
	reportsEqual(t, report, back)
}

func TestSaveLoadMMap(t *testing.T) {
	report := sampleReport(t)
	dir := t.TempDir()

	raw := filepath.Join(dir, "report.bin")
	if err := report.SaveMMap(raw); err != nil {
		t.Fatalf("SaveMMap failed: %v", err)
	}
	back, err := LoadMMapReport(raw)
	if err != nil {
		t.Fatalf("LoadMMapReport failed: %v", err)
	}
	reportsEqual(t, report, back)

	// Compressed mmap path must interoperate with the stream loader too.
	compressed := filepath.Join(dir, "report.zst")
	if err := report.SaveCompressedMMap(compressed); err != nil {
		t.Fatalf("SaveCompressedMMap failed: %v", err)
	}
	viaMMap, err := LoadCompressedMMap(compressed)
	if err != nil {
		t.Fatalf("LoadCompressedMMap failed: %v", err)
	}
	reportsEqual(t, report, viaMMap)

	viaStream, err := LoadCompressedReport(compressed)
	if err != nil {
		t.Fatalf("LoadCompressedReport on mmap-written archive failed: %v", err)
	}
	reportsEqual(t, report, viaStream)
}

func TestRenderListsFailures(t *testing.T) {
	report := sampleReport(t)
	var b strings.Builder
	if err := report.Render(&b); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Failed candidates:") {
		t.Error("Report does not list failed candidates")
	}
	if !strings.Contains(out, "did not converge") {
		t.Error("Report drops the failure reason")
	}
	if !strings.Contains(out, "Site 1: population 2") {
		t.Errorf("Report misses the main site summary:\n%s", out)
	}
}
