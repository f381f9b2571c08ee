package sites

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zstd"
)

// Memory-mapped variant of the report archive. Large archives load without
// pulling the whole file through a decode buffer; the serve binary uses this
// path.

// MMapWriter writes sequentially into a memory-mapped region.
type MMapWriter struct {
	data   mmap.MMap
	offset int
}

func NewMMapWriter(data mmap.MMap) *MMapWriter {
	return &MMapWriter{data: data}
}

func (w *MMapWriter) Write(p []byte) (int, error) {
	if w.offset+len(p) > len(w.data) {
		return 0, fmt.Errorf("mmap region overflow at offset %d", w.offset)
	}
	copy(w.data[w.offset:], p)
	w.offset += len(p)
	return len(p), nil
}

// MMapReader reads sequentially from a memory-mapped region.
type MMapReader struct {
	data   mmap.MMap
	offset int
}

func NewMMapReader(data mmap.MMap) *MMapReader {
	return &MMapReader{data: data}
}

func (r *MMapReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// calculateSize returns the exact encoded size of the report by running the
// encoder against a counting sink.
func (r *Report) calculateSize() (int64, error) {
	var c countingWriter
	if err := r.encode(&c); err != nil {
		return 0, err
	}
	return c.n, nil
}

// SaveMMap writes the uncompressed archive through a memory mapping.
func (r *Report) SaveMMap(filename string) error {
	size, err := r.calculateSize()
	if err != nil {
		return fmt.Errorf("failed to size report: %v", err)
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate file: %v", err)
	}

	mmapData, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %v", err)
	}
	defer mmapData.Unmap()

	if err := r.encode(NewMMapWriter(mmapData)); err != nil {
		return err
	}
	return mmapData.Flush()
}

// LoadMMapReport reads an uncompressed archive through a memory mapping.
func LoadMMapReport(filename string) (*Report, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	mmapData, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %v", err)
	}
	defer mmapData.Unmap()

	return decodeReport(NewMMapReader(mmapData))
}

// SaveCompressedMMap writes via mmap, then compresses the result.
func (r *Report) SaveCompressedMMap(filename string) error {
	tempFile := filename + ".tmp"
	if err := r.SaveMMap(tempFile); err != nil {
		return fmt.Errorf("failed to save mmap: %v", err)
	}
	defer os.Remove(tempFile)

	src, err := os.Open(tempFile)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %v", err)
	}
	defer src.Close()

	dst, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create compressed file: %v", err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("failed to compress data: %v", err)
	}
	return enc.Close()
}

// LoadCompressedMMap decompresses the archive to a temp file and loads it
// through a memory mapping.
func LoadCompressedMMap(filename string) (*Report, error) {
	tempFile := filename + ".tmp"
	dst, err := os.Create(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tempFile)
	defer dst.Close()

	src, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed file: %v", err)
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	if _, err := io.Copy(dst, dec); err != nil {
		return nil, fmt.Errorf("failed to decompress data: %v", err)
	}
	if err := dst.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync temp file: %v", err)
	}

	return LoadMMapReport(tempFile)
}
