package cfb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"docextra/pkg/logger"
)

// Reader is an open compound file. It is not safe for concurrent use.
type Reader struct {
	ra     io.ReaderAt
	closer io.Closer
	header *Header

	// FAT entries per sector.
	perSector uint32
	// Sectors the backing file can hold after the header. Every chain
	// walk is bounded by it.
	sectorCount uint32

	entries    map[uint32]*DirectoryEntry
	miniStream *Stream
}

// Open opens the compound file at path. The file stays open until Close.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	r, err := NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	logger.Logger.Printf("opened compound file %s (%d bytes)\n", path, fi.Size())
	return r, nil
}

// NewReader reads a compound file of the given size from ra. Only the
// header is read eagerly.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	h, err := ParseHeader(io.NewSectionReader(ra, 0, HeaderSize))
	if err != nil {
		return nil, err
	}
	r := &Reader{
		ra:          ra,
		header:      h,
		perSector:   uint32(h.SectorSize() / 4),
		sectorCount: sectorsIn(size, h.SectorShift),
		entries:     make(map[uint32]*DirectoryEntry),
	}
	logger.DebugLogger.Printf("file holds %d sectors of %d bytes\n", r.sectorCount, h.SectorSize())
	return r, nil
}

// sectorsIn counts the (possibly partial) sectors after the header sector.
func sectorsIn(size int64, shift uint16) uint32 {
	n := size >> shift
	if size&(1<<shift-1) != 0 {
		n++
	}
	n-- // header
	if n < 0 {
		return 0
	}
	if n > int64(MaxRegSect)+1 {
		return MaxRegSect + 1
	}
	return uint32(n)
}

// Close releases the backing file, if the Reader owns one. Cached
// entries are dropped.
func (r *Reader) Close() error {
	r.entries = make(map[uint32]*DirectoryEntry)
	r.miniStream = nil
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Header returns the validated header.
func (r *Reader) Header() *Header {
	return r.header
}

// Version is the major version, 3 or 4.
func (r *Reader) Version() int {
	return int(r.header.MajorVersion)
}

// sectorOffset is the file offset of a regular sector. Sector 0 follows
// the header, which occupies one full sector.
func (r *Reader) sectorOffset(sector uint32) int64 {
	return (int64(sector) + 1) << r.header.SectorShift
}

func (r *Reader) checkSector(part string, sector uint32) error {
	if sector > MaxRegSect || sector >= r.sectorCount {
		return NewFormatError(part, "sector %#x is outside the file (%d sectors)", sector, r.sectorCount)
	}
	return nil
}

func (r *Reader) readUint32(part string, off int64) (uint32, error) {
	var buf [4]byte
	if err := readFull(r.ra, buf[:], off, part); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// readFull fills p from src at off. A short read means the structure
// points past the end of its source.
func readFull(src io.ReaderAt, p []byte, off int64, part string) error {
	n, err := src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewFormatError(part, "%d bytes at offset %#x lie beyond the end of the data", len(p), off)
	}
	return fmt.Errorf("%s: read at %#x: %w", part, off, err)
}

// walk follows a chain up to steps links from start. It stops early at
// EndOfChain and fails once more than limit links were followed.
func walk(start uint32, steps int64, limit uint32, part string, next func(uint32) (uint32, error)) (uint32, error) {
	sector := start
	for i := int64(0); i < steps && sector != EndOfChain; i++ {
		if i >= int64(limit) {
			return 0, NewFormatError(part, "sector chain starting at %d is longer than the file allows", start)
		}
		var err error
		if sector, err = next(sector); err != nil {
			return 0, err
		}
	}
	return sector, nil
}
