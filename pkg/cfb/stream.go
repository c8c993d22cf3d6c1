package cfb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"docextra/pkg/logger"
)

// allocation is one of the two sector schemes a stream can live in.
type allocation struct {
	part  string
	shift uint16
	// sectors in front of sector 0 in src: 1 for the header, 0 inside
	// the mini stream
	skip  int64
	src   io.ReaderAt
	next  func(uint32) (uint32, error)
	limit uint32
}

func (a *allocation) sectorSize() int64 {
	return 1 << a.shift
}

func (a *allocation) offset(sector uint32, inSector int64) int64 {
	return (int64(sector)+a.skip)<<a.shift + inSector
}

// cursor is the position of a stream expressed in its sector chain.
type cursor struct {
	pos      int64
	sector   uint32
	inSector int64
}

// Stream reads the data of one directory entry. It implements io.Reader,
// io.Seeker and io.ReaderAt; ReadAt does not move the cursor.
type Stream struct {
	entry *DirectoryEntry
	alloc allocation
	size  int64
	cur   cursor
}

// OpenStream returns a Stream over e's data. The root entry and entries
// of at least MiniStreamCutoff bytes use regular sectors; smaller ones
// are read from the mini stream held by the root entry.
func (r *Reader) OpenStream(e *DirectoryEntry) (*Stream, error) {
	s := &Stream{entry: e, size: int64(e.Size)}
	if !e.IsMini() {
		s.alloc = allocation{
			part:  "fat",
			shift: r.header.SectorShift,
			skip:  1,
			src:   r.ra,
			next:  r.nextSector,
			limit: r.sectorCount,
		}
	} else {
		mini, err := r.ministream()
		if err != nil {
			return nil, err
		}
		s.alloc = allocation{
			part:  "minifat",
			shift: MiniSectorShift,
			src:   mini,
			next:  r.nextMiniSector,
			limit: r.miniSectorLimit(),
		}
	}

	cur, err := s.locate(0)
	if err != nil {
		return nil, err
	}
	s.cur = cur
	logger.DebugLogger.Printf("stream %s uses %s sectors of %d bytes\n", e, s.alloc.part, s.alloc.sectorSize())
	return s, nil
}

// OpenStreamByName looks name up in the root storage and opens it.
func (r *Reader) OpenStreamByName(name string) (*Stream, error) {
	e, err := r.EntryByName(name)
	if err != nil {
		return nil, err
	}
	return r.OpenStream(e)
}

// ministream is the root entry's stream, the backing store of all mini
// sectors. Opened once.
func (r *Reader) ministream() (*Stream, error) {
	if r.miniStream != nil {
		return r.miniStream, nil
	}
	root, err := r.Root()
	if err != nil {
		return nil, err
	}
	s, err := r.OpenStream(root)
	if err != nil {
		return nil, err
	}
	r.miniStream = s
	return s, nil
}

// locate derives a cursor for off by walking the chain from the start.
func (s *Stream) locate(off int64) (cursor, error) {
	index := off >> s.alloc.shift
	sector, err := walk(s.entry.StartSector, index, s.alloc.limit, s.alloc.part, s.alloc.next)
	if err != nil {
		return cursor{}, err
	}
	return cursor{pos: off, sector: sector, inSector: off - index<<s.alloc.shift}, nil
}

// readFrom reads at c and advances it. It stops short at the end of the
// stream or of the chain.
func (s *Stream) readFrom(c *cursor, p []byte) (int, error) {
	if c.pos >= s.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if left := s.size - c.pos; want > left {
		want = left
	}

	secSize := s.alloc.sectorSize()
	var n int64
	for n < want {
		if c.sector != EndOfChain && c.inSector >= secSize {
			next, err := s.alloc.next(c.sector)
			if err != nil {
				return int(n), err
			}
			c.sector, c.inSector = next, c.inSector-secSize
		}
		if c.sector == EndOfChain {
			break
		}

		chunk := secSize - c.inSector
		if chunk > want-n {
			chunk = want - n
		}
		if err := readFull(s.alloc.src, p[n:n+chunk], s.alloc.offset(c.sector, c.inSector), s.alloc.part); err != nil {
			return int(n), err
		}
		n += chunk
		c.pos += chunk
		c.inSector += chunk
	}
	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

// Read reads up to len(p) bytes from the current position.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return s.readFrom(&s.cur, p)
}

// ReadAt reads len(p) bytes at off without touching the cursor.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("cfb: negative offset")
	}
	c, err := s.locate(off)
	if err != nil {
		return 0, err
	}
	var n int
	for n < len(p) {
		m, err := s.readFrom(&c, p[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Seek moves the cursor. io.SeekEnd counts backwards: the new position
// is Size()-offset. Positions past the end are allowed.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.cur.pos + offset
	case io.SeekEnd:
		abs = s.size - offset
	default:
		return 0, fmt.Errorf("cfb: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("cfb: seek to negative position %d", abs)
	}
	c, err := s.locate(abs)
	if err != nil {
		return 0, err
	}
	s.cur = c
	return abs, nil
}

// Tell returns the current position.
func (s *Stream) Tell() int64 {
	return s.cur.pos
}

// Size is the stream length in bytes.
func (s *Stream) Size() int64 {
	return s.size
}

// Entry is the directory entry the stream belongs to.
func (s *Stream) Entry() *DirectoryEntry {
	return s.entry
}

// Name of the underlying entry.
func (s *Stream) Name() string {
	return s.entry.Name
}

func (s *Stream) fixed(off int64, n int) ([]byte, error) {
	if _, err := s.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, NewFormatError("stream", "%q: cannot read %d bytes at offset %#x", s.entry.Name, n, off)
		}
		return nil, err
	}
	return buf, nil
}

// Byte reads the byte at off.
func (s *Stream) Byte(off int64) (uint8, error) {
	buf, err := s.fixed(off, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Uint16 reads a little-endian uint16 at off.
func (s *Stream) Uint16(off int64) (uint16, error) {
	buf, err := s.fixed(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// Uint32 reads a little-endian uint32 at off.
func (s *Stream) Uint32(off int64) (uint32, error) {
	buf, err := s.fixed(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}
