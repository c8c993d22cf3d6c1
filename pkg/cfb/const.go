// Package cfb reads Compound File Binary containers ([MS-CFB]): the
// sector-addressed file system underneath legacy Office documents.
//
// The reader never loads whole allocation tables. Every "next sector"
// lookup goes through the DIFAT/FAT (or MiniFAT) on the backing
// io.ReaderAt, so opening a large file costs one header read.
package cfb

const (
	HeaderSize     = 512
	DirEntrySize   = 128
	HeaderDIFATLen = 109

	// MiniSectorShift and MiniStreamCutoff are fixed by the format.
	MiniSectorShift  = 6
	MiniSectorSize   = 1 << MiniSectorShift
	MiniStreamCutoff = 0x1000
)

// Signature is the big-endian magic at offset 0.
var Signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Sector numbers with special meaning in FAT/MiniFAT entries.
const (
	MaxRegSect uint32 = 0xFFFFFFFA
	DifSect    uint32 = 0xFFFFFFFC
	FatSect    uint32 = 0xFFFFFFFD
	EndOfChain uint32 = 0xFFFFFFFE
	FreeSect   uint32 = 0xFFFFFFFF
)

// Directory entry ids.
const (
	RootID   uint32 = 0
	MaxRegID uint32 = 0xFFFFFFFA
	NoStream uint32 = 0xFFFFFFFF
)

const (
	version3 = 0x0003
	version4 = 0x0004

	byteOrderMark = 0xFFFE

	// v3 streams may not exceed 2 GiB.
	maxV3StreamSize = 0x80000000
	maxStreamSize   = 1<<63 - 1
)

// ObjectType is the kind of a directory entry.
type ObjectType uint8

const (
	TypeUnallocated ObjectType = 0x00
	TypeStorage     ObjectType = 0x01
	TypeStream      ObjectType = 0x02
	TypeRoot        ObjectType = 0x05
)

func (t ObjectType) String() string {
	switch t {
	case TypeUnallocated:
		return "unallocated"
	case TypeStorage:
		return "storage"
	case TypeStream:
		return "stream"
	case TypeRoot:
		return "root storage"
	}
	return "unknown"
}

// Color is the red-black flag of a directory entry. It is validated but
// never used for balancing.
type Color uint8

const (
	Red   Color = 0x00
	Black Color = 0x01
)
