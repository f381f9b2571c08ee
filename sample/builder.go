package sample

import "github.com/muonsuite/muairss/crystal"

// DefaultMuonSpecies is the label used for the implanted muon when the
// parameter file does not override it.
const DefaultMuonSpecies = "H:mu"

// BuildCandidates turns sampled positions into one candidate structure each:
// a copy of the host with the muon appended as the last atom. IDs are assigned
// contiguously in sampling order; that ordering is the only meaning an ID
// carries.
func BuildCandidates(host *crystal.HostStructure, positions []crystal.Vec3, muonSpecies string) []crystal.Candidate {
	if muonSpecies == "" {
		muonSpecies = DefaultMuonSpecies
	}

	candidates := make([]crystal.Candidate, len(positions))
	for i, pos := range positions {
		s := host.Copy()
		s.Atoms = append(s.Atoms, crystal.Atom{Species: muonSpecies, Pos: pos})
		candidates[i] = crystal.Candidate{ID: i, Structure: s}
	}
	return candidates
}
