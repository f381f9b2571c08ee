package crystal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// The core reads and writes one structure format of its own: XYZ with the
// lattice embedded in the comment line as Lattice="ax ay az bx by bz cx cy cz".
// Richer formats (CIF, POSCAR, .cell) belong to the external tooling.

// ReadXYZFile reads a lattice-annotated XYZ file. The structure name is taken
// from the file name without extension.
func ReadXYZFile(path string) (*HostStructure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open structure file: %w", err)
	}
	defer f.Close()

	s, err := ReadXYZ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Base(path)
	s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	return s, nil
}

// ReadXYZ parses a lattice-annotated XYZ stream.
func ReadXYZ(r io.Reader) (*HostStructure, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, fmt.Errorf("empty structure file")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid atom count %q", sc.Text())
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("missing comment line")
	}
	cell, err := parseLattice(sc.Text())
	if err != nil {
		return nil, err
	}

	atoms := make([]Atom, 0, n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("expected %d atoms, got %d", n, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("atom line %d: expected species and 3 coordinates", i+1)
		}
		var pos Vec3
		for j := 0; j < 3; j++ {
			pos[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("atom line %d: bad coordinate %q", i+1, fields[j+1])
			}
		}
		atoms = append(atoms, Atom{Species: fields[0], Pos: pos})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return &HostStructure{Cell: cell, Atoms: atoms}, nil
}

func parseLattice(comment string) (*UnitCell, error) {
	const key = `Lattice="`
	start := strings.Index(comment, key)
	if start < 0 {
		return nil, fmt.Errorf("comment line carries no Lattice=\"...\" entry")
	}
	rest := comment[start+len(key):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return nil, fmt.Errorf("unterminated Lattice entry")
	}

	fields := strings.Fields(rest[:end])
	if len(fields) != 9 {
		return nil, fmt.Errorf("Lattice entry has %d values, want 9", len(fields))
	}
	var vectors [3][3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad lattice value %q", f)
		}
		vectors[i/3][i%3] = v
	}
	return NewUnitCell(vectors)
}

// WriteXYZFile writes a structure as lattice-annotated XYZ.
func WriteXYZFile(path string, s *HostStructure) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create structure file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := WriteXYZ(w, s); err != nil {
		return err
	}
	return w.Flush()
}

// WriteXYZ writes a structure as lattice-annotated XYZ to w.
func WriteXYZ(w io.Writer, s *HostStructure) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(s.Atoms)); err != nil {
		return err
	}
	v := s.Cell.Vectors
	if _, err := fmt.Fprintf(w, "Lattice=\"%g %g %g %g %g %g %g %g %g\"\n",
		v[0][0], v[0][1], v[0][2],
		v[1][0], v[1][1], v[1][2],
		v[2][0], v[2][1], v[2][2]); err != nil {
		return err
	}
	for _, a := range s.Atoms {
		if _, err := fmt.Fprintf(w, "%s %.8f %.8f %.8f\n", a.Species, a.Pos[0], a.Pos[1], a.Pos[2]); err != nil {
			return err
		}
	}
	return nil
}
