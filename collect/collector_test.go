package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonsuite/muairss/crystal"
	"github.com/muonsuite/muairss/sample"
)

func testBatch(t *testing.T, n int) []crystal.Candidate {
	t.Helper()
	cell, err := crystal.Cubic(10)
	require.NoError(t, err)
	host := &crystal.HostStructure{
		Name:  "host",
		Cell:  cell,
		Atoms: []crystal.Atom{{Species: "Cu", Pos: crystal.Vec3{0, 0, 0}}},
	}
	positions := make([]crystal.Vec3, n)
	for i := range positions {
		positions[i] = crystal.Vec3{float64(i) + 1, 2, 3}
	}
	return sample.BuildCandidates(host, positions, "mu")
}

func resultFor(c crystal.Candidate, energy float64) OptimizedResult {
	positions := make([]crystal.Vec3, len(c.Structure.Atoms))
	for i, a := range c.Structure.Atoms {
		positions[i] = a.Pos
	}
	return OptimizedResult{
		CandidateID: c.ID,
		Species:     c.Species(),
		Positions:   positions,
		Cell:        c.Structure.Cell,
		Energy:      energy,
		Converged:   true,
	}
}

func TestCollectHappyPath(t *testing.T) {
	batch := testBatch(t, 3)
	c := NewCollector(batch)

	// Arrival order is arbitrary.
	assert.NoError(t, c.Add(resultFor(batch[2], -3.0)))
	assert.NoError(t, c.Add(resultFor(batch[0], -1.0)))
	assert.NoError(t, c.Add(resultFor(batch[1], -2.0)))

	results, report := c.Collect()
	require.Len(t, results, 3)
	assert.Empty(t, report.Failures)

	// Sorted by candidate ID regardless of arrival order.
	for i, r := range results {
		assert.Equal(t, i, r.CandidateID)
	}
}

func TestCollectMissingAndFailed(t *testing.T) {
	batch := testBatch(t, 4)
	c := NewCollector(batch)

	assert.NoError(t, c.Add(resultFor(batch[0], -1.0)))
	c.MarkFailed(2, "job timed out")
	// Candidate 1 and 3 never report.

	results, report := c.Collect()
	assert.Len(t, results, 1)
	assert.Equal(t, []int{1, 2, 3}, report.IDs())

	reasons := map[int]string{}
	for _, f := range report.Failures {
		reasons[f.CandidateID] = f.Reason
	}
	assert.Equal(t, "job timed out", reasons[2])
	assert.Equal(t, "no result received", reasons[1])
}

func TestCollectDuplicateLastWriteWins(t *testing.T) {
	batch := testBatch(t, 2)
	c := NewCollector(batch)

	assert.NoError(t, c.Add(resultFor(batch[0], -1.0)))
	assert.NoError(t, c.Add(resultFor(batch[0], -5.0)))

	results, _ := c.Collect()
	require.Len(t, results, 1)
	assert.Equal(t, -5.0, results[0].Energy)
}

func TestCollectMismatch(t *testing.T) {
	batch := testBatch(t, 2)
	c := NewCollector(batch)

	bad := resultFor(batch[0], -1.0)
	bad.Positions = bad.Positions[:1] // wrong atom count
	err := c.Add(bad)
	var rme *ResultMismatchError
	require.ErrorAs(t, err, &rme)
	assert.Equal(t, 0, rme.CandidateID)

	wrongSpecies := resultFor(batch[1], -2.0)
	wrongSpecies.Species[0] = "Au"
	require.Error(t, c.Add(wrongSpecies))

	results, report := c.Collect()
	assert.Empty(t, results)
	assert.Equal(t, []int{0, 1}, report.IDs())
}

func TestCollectUnknownCandidate(t *testing.T) {
	c := NewCollector(testBatch(t, 1))
	res := OptimizedResult{CandidateID: 17}
	var rme *ResultMismatchError
	assert.ErrorAs(t, c.Add(res), &rme)
}

func TestCollectNonConvergedIsFailure(t *testing.T) {
	batch := testBatch(t, 2)
	c := NewCollector(batch)

	nc := resultFor(batch[1], -2.0)
	nc.Converged = false
	assert.NoError(t, c.Add(nc))
	assert.NoError(t, c.Add(resultFor(batch[0], -1.0)))

	results, report := c.Collect()
	assert.Len(t, results, 1)
	assert.Equal(t, []int{1}, report.IDs())
}

func TestReadResultsDir(t *testing.T) {
	batch := testBatch(t, 3)
	dir := t.TempDir()

	require.NoError(t, WriteResultFile(dir, resultFor(batch[0], -1.5)))
	require.NoError(t, WriteResultFile(dir, resultFor(batch[1], -2.5)))
	require.NoError(t, WriteFailureFile(dir, 2, "SCF did not converge"))

	c := NewCollector(batch)
	rejected, err := ReadResultsDir(dir, c)
	require.NoError(t, err)
	assert.Zero(t, rejected)

	results, report := c.Collect()
	assert.Len(t, results, 2)
	assert.Equal(t, []int{2}, report.IDs())
	assert.Equal(t, -1.5, results[0].Energy)
}

func TestReadResultsDirEmpty(t *testing.T) {
	c := NewCollector(testBatch(t, 1))
	_, err := ReadResultsDir(t.TempDir(), c)
	assert.Error(t, err)
}
