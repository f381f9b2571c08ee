package sites

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/muonsuite/muairss/collect"
	"github.com/muonsuite/muairss/crystal"
)

// Binary report archive, zstd-compressed. Little-endian, length-prefixed
// strings, no framing beyond the leading counts.

// SaveCompressed writes the report as a zstd-compressed archive.
func (r *Report) SaveCompressed(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}

	if err := r.encode(enc); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %v", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %v", err)
	}
	return nil
}

// LoadCompressedReport reads an archive written by SaveCompressed.
func LoadCompressedReport(filename string) (*Report, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(bufio.NewReaderSize(file, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	return decodeReport(dec)
}

func (r *Report) encode(w io.Writer) error {
	writeString(w, r.BatchID)
	writeString(w, r.Structure)
	binary.Write(w, binary.LittleEndian, r.CreatedAt.UnixNano())
	binary.Write(w, binary.LittleEndian, r.Threshold)
	writeString(w, r.Linkage)
	binary.Write(w, binary.LittleEndian, int64(r.TotalCandidates))
	binary.Write(w, binary.LittleEndian, int64(r.UsableResults))

	binary.Write(w, binary.LittleEndian, uint32(len(r.Failed)))
	for _, f := range r.Failed {
		binary.Write(w, binary.LittleEndian, int64(f.CandidateID))
		writeString(w, f.Reason)
	}

	binary.Write(w, binary.LittleEndian, uint32(len(r.Clusters)))
	for _, c := range r.Clusters {
		binary.Write(w, binary.LittleEndian, uint32(len(c.Members)))
		for _, id := range c.Members {
			binary.Write(w, binary.LittleEndian, int64(id))
		}
		binary.Write(w, binary.LittleEndian, c.MeanEnergy)
		binary.Write(w, binary.LittleEndian, c.MinEnergy)
		binary.Write(w, binary.LittleEndian, c.MaxEnergy)
		binary.Write(w, binary.LittleEndian, c.StdEnergy)
		if err := encodeResult(w, c.Representative); err != nil {
			return err
		}
	}
	return nil
}

func encodeResult(w io.Writer, res collect.OptimizedResult) error {
	binary.Write(w, binary.LittleEndian, int64(res.CandidateID))
	binary.Write(w, binary.LittleEndian, res.Energy)
	conv := uint8(0)
	if res.Converged {
		conv = 1
	}
	binary.Write(w, binary.LittleEndian, conv)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			binary.Write(w, binary.LittleEndian, res.Cell.Vectors[i][j])
		}
	}
	binary.Write(w, binary.LittleEndian, uint32(len(res.Positions)))
	for k, p := range res.Positions {
		binary.Write(w, binary.LittleEndian, p[0])
		binary.Write(w, binary.LittleEndian, p[1])
		binary.Write(w, binary.LittleEndian, p[2])
		sp := ""
		if k < len(res.Species) {
			sp = res.Species[k]
		}
		writeString(w, sp)
	}
	return nil
}

func decodeReport(rd io.Reader) (*Report, error) {
	r := &Report{}
	var err error
	if r.BatchID, err = readString(rd); err != nil {
		return nil, fmt.Errorf("failed to read report header: %v", err)
	}
	if r.Structure, err = readString(rd); err != nil {
		return nil, err
	}
	var nanos int64
	binary.Read(rd, binary.LittleEndian, &nanos)
	r.CreatedAt = time.Unix(0, nanos).UTC()
	binary.Read(rd, binary.LittleEndian, &r.Threshold)
	if r.Linkage, err = readString(rd); err != nil {
		return nil, err
	}
	var total, usable int64
	binary.Read(rd, binary.LittleEndian, &total)
	binary.Read(rd, binary.LittleEndian, &usable)
	r.TotalCandidates = int(total)
	r.UsableResults = int(usable)

	var numFailed uint32
	binary.Read(rd, binary.LittleEndian, &numFailed)
	r.Failed = make([]collect.Failure, numFailed)
	for i := range r.Failed {
		var id int64
		binary.Read(rd, binary.LittleEndian, &id)
		reason, err := readString(rd)
		if err != nil {
			return nil, err
		}
		r.Failed[i] = collect.Failure{CandidateID: int(id), Reason: reason}
	}

	var numClusters uint32
	if err := binary.Read(rd, binary.LittleEndian, &numClusters); err != nil {
		return nil, fmt.Errorf("failed to read cluster count: %v", err)
	}
	r.Clusters = make([]SiteCluster, numClusters)
	for i := range r.Clusters {
		c := &r.Clusters[i]
		var numMembers uint32
		binary.Read(rd, binary.LittleEndian, &numMembers)
		c.Members = make([]int, numMembers)
		for k := range c.Members {
			var id int64
			binary.Read(rd, binary.LittleEndian, &id)
			c.Members[k] = int(id)
		}
		c.Population = int(numMembers)
		binary.Read(rd, binary.LittleEndian, &c.MeanEnergy)
		binary.Read(rd, binary.LittleEndian, &c.MinEnergy)
		binary.Read(rd, binary.LittleEndian, &c.MaxEnergy)
		binary.Read(rd, binary.LittleEndian, &c.StdEnergy)

		rep, err := decodeResult(rd)
		if err != nil {
			return nil, err
		}
		c.Representative = rep
	}
	return r, nil
}

func decodeResult(rd io.Reader) (collect.OptimizedResult, error) {
	var res collect.OptimizedResult
	var id int64
	binary.Read(rd, binary.LittleEndian, &id)
	res.CandidateID = int(id)
	binary.Read(rd, binary.LittleEndian, &res.Energy)
	var conv uint8
	binary.Read(rd, binary.LittleEndian, &conv)
	res.Converged = conv == 1

	var vectors [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			binary.Read(rd, binary.LittleEndian, &vectors[i][j])
		}
	}
	cell, err := crystal.NewUnitCell(vectors)
	if err != nil {
		return res, fmt.Errorf("archived result %d: %w", res.CandidateID, err)
	}
	res.Cell = cell

	var numAtoms uint32
	if err := binary.Read(rd, binary.LittleEndian, &numAtoms); err != nil {
		return res, fmt.Errorf("failed to read atom count: %v", err)
	}
	res.Positions = make([]crystal.Vec3, numAtoms)
	res.Species = make([]string, numAtoms)
	for k := range res.Positions {
		binary.Read(rd, binary.LittleEndian, &res.Positions[k][0])
		binary.Read(rd, binary.LittleEndian, &res.Positions[k][1])
		binary.Read(rd, binary.LittleEndian, &res.Positions[k][2])
		if res.Species[k], err = readString(rd); err != nil {
			return res, err
		}
	}
	return res, nil
}

func writeString(w io.Writer, s string) {
	binary.Write(w, binary.LittleEndian, uint32(len(s)))
	w.Write([]byte(s))
}

func readString(rd io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(rd, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd, b); err != nil {
		return "", err
	}
	return string(b), nil
}
