package crystal

// Atom is a species label plus a Cartesian position inside the cell. Atoms
// are value types; copying a structure copies its atoms.
type Atom struct {
	Species string
	Pos     Vec3
}

// HostStructure is the crystal the muon is implanted into: a unit cell and an
// ordered list of atoms. The workflow treats it as read-only; candidates copy
// it rather than mutate it.
type HostStructure struct {
	Name  string
	Cell  *UnitCell
	Atoms []Atom
}

// Copy returns a deep copy of the atom list. The cell is shared: it is
// immutable after construction.
func (h *HostStructure) Copy() *HostStructure {
	atoms := make([]Atom, len(h.Atoms))
	copy(atoms, h.Atoms)
	return &HostStructure{
		Name:  h.Name,
		Cell:  h.Cell,
		Atoms: atoms,
	}
}

// Candidate is a host copy with one extra muon atom, identified by its index
// in sampling order. The muon is always the last atom.
type Candidate struct {
	ID        int
	Structure *HostStructure
}

// MuonPos returns the Cartesian position of the muon atom.
func (c *Candidate) MuonPos() Vec3 {
	return c.Structure.Atoms[len(c.Structure.Atoms)-1].Pos
}

// Species returns the ordered species labels of the candidate, muon last.
func (c *Candidate) Species() []string {
	out := make([]string, len(c.Structure.Atoms))
	for i, a := range c.Structure.Atoms {
		out[i] = a.Species
	}
	return out
}
