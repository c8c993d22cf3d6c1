package cfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"

	"docextra/pkg/logger"
)

// rawEntry is the on-disk 128-byte directory record.
type rawEntry struct {
	Name           [64]byte // UTF-16LE, NUL terminated
	NameLen        uint16   // in bytes, terminator included
	ObjectType     uint8
	ColorFlag      uint8
	LeftSiblingID  uint32
	RightSiblingID uint32
	ChildID        uint32
	CLSID          [16]byte
	StateBits      uint32
	CreationTime   uint64 // FILETIME
	ModifiedTime   uint64 // FILETIME
	StartSector    uint32
	StreamSize     uint64
}

// DirectoryEntry describes a storage or stream. Links to siblings and
// children are ids resolved through the owning Reader.
type DirectoryEntry struct {
	ID             uint32
	Name           string
	Type           ObjectType
	Color          Color
	LeftSiblingID  uint32
	RightSiblingID uint32
	ChildID        uint32
	CLSID          uuid.UUID
	StateBits      uint32
	Created        time.Time // zero when absent
	Modified       time.Time // zero when absent
	StartSector    uint32
	Size           uint64
}

// IsMini reports whether the entry's data lives in the mini stream.
func (e *DirectoryEntry) IsMini() bool {
	return e.Type != TypeRoot && e.Size < MiniStreamCutoff
}

func (e *DirectoryEntry) String() string {
	return fmt.Sprintf("#%d %q (%s, %d bytes)", e.ID, e.Name, e.Type, e.Size)
}

// 100ns intervals between 1601-01-01 and 1970-01-01.
const filetimeEpoch = 116444736000000000

func filetime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	d := int64(ft) - filetimeEpoch
	return time.Unix(d/1e7, (d%1e7)*100).UTC()
}

func validID(id uint32) bool {
	return id <= MaxRegID || id == NoStream
}

// parseEntry decodes and validates one directory record.
func (r *Reader) parseEntry(id uint32, buf []byte) (*DirectoryEntry, error) {
	raw := rawEntry{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("directory entry %d: %w", id, err)
	}

	if raw.NameLen > uint16(len(raw.Name)) {
		return nil, NewFormatError("directory", "entry %d: name length %d exceeds 64 bytes", id, raw.NameLen)
	}
	units := make([]uint16, raw.NameLen/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw.Name[2*i:])
	}
	name := strings.TrimRight(string(utf16.Decode(units)), "\x00")
	if strings.ContainsAny(name, `/\:!`) {
		return nil, NewFormatError("directory", "entry %d: the characters '/', '\\', ':', '!' MUST NOT be part of the name %q", id, name)
	}

	typ := ObjectType(raw.ObjectType)
	switch typ {
	case TypeStorage, TypeStream, TypeRoot:
	case TypeUnallocated:
		return nil, NewFormatError("directory", "entry %d is unallocated", id)
	default:
		return nil, NewFormatError("directory", "entry %d: Object Type MUST be 0x00, 0x01, 0x02, or 0x05, got %#02x", id, raw.ObjectType)
	}

	color := Color(raw.ColorFlag)
	if color != Red && color != Black {
		return nil, NewFormatError("directory", "entry %d: Color Flag MUST be 0x00 (red) or 0x01 (black), got %#02x", id, raw.ColorFlag)
	}

	for _, link := range []uint32{raw.LeftSiblingID, raw.RightSiblingID, raw.ChildID} {
		if !validID(link) {
			return nil, NewFormatError("directory", "entry %d: stream id %#x exceeds MAXREGSID", id, link)
		}
	}

	clsid := uuid.UUID(raw.CLSID)
	if typ == TypeStream {
		if clsid != uuid.Nil {
			return nil, NewFormatError("directory", "entry %d: CLSID MUST be all zeroes for a stream object", id)
		}
		if raw.StateBits != 0 {
			return nil, NewFormatError("directory", "entry %d: State Bits MUST be zero for a stream object", id)
		}
	}

	if r.header.MajorVersion == version3 && raw.StreamSize > maxV3StreamSize {
		return nil, NewFormatError("directory", "entry %d: stream size %#x exceeds 0x80000000 for a version 3 file", id, raw.StreamSize)
	}
	if raw.StreamSize > maxStreamSize {
		return nil, NewFormatError("directory", "entry %d: stream size %#x does not fit in an int64", id, raw.StreamSize)
	}

	e := &DirectoryEntry{
		ID:             id,
		Name:           name,
		Type:           typ,
		Color:          color,
		LeftSiblingID:  raw.LeftSiblingID,
		RightSiblingID: raw.RightSiblingID,
		ChildID:        raw.ChildID,
		CLSID:          clsid,
		StateBits:      raw.StateBits,
		Created:        filetime(raw.CreationTime),
		Modified:       filetime(raw.ModifiedTime),
		StartSector:    raw.StartSector,
		Size:           raw.StreamSize,
	}
	logger.DebugLogger.Printf("directory entry %s, start sector %d, left %#x, right %#x, child %#x\n",
		e, e.StartSector, e.LeftSiblingID, e.RightSiblingID, e.ChildID)
	return e, nil
}

// EntryByID returns the directory entry with the given id. Entries are
// parsed once and cached for the lifetime of the Reader.
func (r *Reader) EntryByID(id uint32) (*DirectoryEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	if id > MaxRegID {
		return nil, NewFormatError("directory", "entry id %#x exceeds MAXREGSID", id)
	}

	perSector := uint32(r.header.SectorSize() / DirEntrySize)
	sector, err := walk(r.header.DirectoryStart, int64(id/perSector), r.sectorCount, "directory", r.nextSector)
	if err != nil {
		return nil, err
	}
	if sector == EndOfChain {
		return nil, NewFormatError("directory", "entry %d lies past the end of the directory chain", id)
	}
	if err := r.checkSector("directory", sector); err != nil {
		return nil, err
	}

	buf := make([]byte, DirEntrySize)
	if err := readFull(r.ra, buf, r.sectorOffset(sector)+int64(id%perSector)*DirEntrySize, "directory"); err != nil {
		return nil, err
	}
	e, err := r.parseEntry(id, buf)
	if err != nil {
		return nil, err
	}
	r.entries[id] = e
	return e, nil
}

// Root returns the root storage entry (id 0).
func (r *Reader) Root() (*DirectoryEntry, error) {
	root, err := r.EntryByID(RootID)
	if err != nil {
		return nil, err
	}
	if root.Type != TypeRoot {
		return nil, NewFormatError("directory", "entry 0 is a %s, not the root storage", root.Type)
	}
	return root, nil
}

// CompareNames orders directory entry names the way the container's
// red-black tree does: a shorter name sorts first, names of equal length
// compare by UTF-16 code unit. The comparison is case sensitive.
func CompareNames(a, b string) int {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(ua) != len(ub) {
		if len(ua) < len(ub) {
			return -1
		}
		return 1
	}
	for i := range ua {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// EntryByName searches the root storage's tree for name. The root itself
// matches its own name. A miss returns ErrNotFound.
func (r *Reader) EntryByName(name string) (*DirectoryEntry, error) {
	root, err := r.Root()
	if err != nil {
		return nil, err
	}
	if root.Name == name {
		return root, nil
	}

	visited := make(map[uint32]bool)
	for id := root.ChildID; id != NoStream; {
		if visited[id] {
			return nil, NewFormatError("directory", "sibling tree revisits entry %d", id)
		}
		visited[id] = true

		e, err := r.EntryByID(id)
		if err != nil {
			return nil, err
		}
		switch c := CompareNames(e.Name, name); {
		case c < 0:
			id = e.RightSiblingID
		case c > 0:
			id = e.LeftSiblingID
		default:
			return e, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}

// Children lists the direct children of a storage in tree order.
func (r *Reader) Children(e *DirectoryEntry) ([]*DirectoryEntry, error) {
	var out []*DirectoryEntry
	visited := make(map[uint32]bool)

	var visit func(id uint32) error
	visit = func(id uint32) error {
		if id == NoStream {
			return nil
		}
		if visited[id] {
			return NewFormatError("directory", "sibling tree revisits entry %d", id)
		}
		visited[id] = true
		child, err := r.EntryByID(id)
		if err != nil {
			return err
		}
		if err := visit(child.LeftSiblingID); err != nil {
			return err
		}
		out = append(out, child)
		return visit(child.RightSiblingID)
	}

	if err := visit(e.ChildID); err != nil {
		return nil, err
	}
	return out, nil
}

// WalkFunc is called for every entry below the root with the names of
// the storages leading to it.
type WalkFunc func(path []string, e *DirectoryEntry) error

// Walk visits the directory depth first, starting below the root.
func (r *Reader) Walk(fn WalkFunc) error {
	root, err := r.Root()
	if err != nil {
		return err
	}
	seen := map[uint32]bool{RootID: true}

	var walkStorage func(path []string, storage *DirectoryEntry) error
	walkStorage = func(path []string, storage *DirectoryEntry) error {
		children, err := r.Children(storage)
		if err != nil {
			return err
		}
		for _, child := range children {
			if seen[child.ID] {
				return NewFormatError("directory", "entry %d appears in more than one storage", child.ID)
			}
			seen[child.ID] = true
			if err := fn(path, child); err != nil {
				return err
			}
			if child.Type == TypeStorage {
				sub := append(append([]string(nil), path...), child.Name)
				if err := walkStorage(sub, child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walkStorage(nil, root)
}
