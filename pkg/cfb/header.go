package cfb

import (
	"encoding/binary"
	"fmt"
	"io"

	"docextra/pkg/logger"
)

// Header is the 512-byte compound file header.
type Header struct {
	Signature            [8]byte  // D0 CF 11 E0 A1 B1 1A E1
	CLSID                [16]byte // must be zero
	MinorVersion         uint16
	MajorVersion         uint16 // 3 or 4
	ByteOrder            uint16 // 0xFFFE
	SectorShift          uint16 // 9 (v3) or 12 (v4)
	MiniSectorShift      uint16 // 6
	Reserved             [6]byte
	DirectorySectorCnt   uint32 // 0 for v3
	FATSectorCnt         uint32
	DirectoryStart       uint32
	TransactionSignature uint32
	MiniStreamCutoffSize uint32 // 4096
	MiniFATStart         uint32
	MiniFATSectorCnt     uint32
	DIFATStart           uint32
	DIFATSectorCnt       uint32
	DIFAT                [HeaderDIFATLen]uint32
}

// ParseHeader reads and validates the first 512 bytes of a container.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	if err := binary.Read(r, binary.LittleEndian, h); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, NewFormatError("header", "file is shorter than %d bytes", HeaderSize)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	h.Printf()
	return h, nil
}

// Validate checks every fixed field of the header.
func (h *Header) Validate() error {
	if h.Signature != Signature {
		return NewFormatError("header", "Header Signature MUST be set to the value 0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1")
	}
	if h.CLSID != [16]byte{} {
		return NewFormatError("header", "Header CLSID MUST be set to all zeroes (CLSID_NULL)")
	}
	if h.MajorVersion != version3 && h.MajorVersion != version4 {
		return NewFormatError("header", "Major Version MUST be set to either 0x0003 or 0x0004, got %#04x", h.MajorVersion)
	}
	if h.ByteOrder != byteOrderMark {
		return NewFormatError("header", "Byte Order MUST be set to 0xFFFE, got %#04x", h.ByteOrder)
	}
	if (h.MajorVersion == version3 && h.SectorShift != 9) ||
		(h.MajorVersion == version4 && h.SectorShift != 12) {
		return NewFormatError("header", "Sector Shift %#04x does not match Major Version %d", h.SectorShift, h.MajorVersion)
	}
	if h.MiniSectorShift != MiniSectorShift {
		return NewFormatError("header", "Mini Sector Shift MUST be set to 0x0006, got %#04x", h.MiniSectorShift)
	}
	if h.Reserved != [6]byte{} {
		return NewFormatError("header", "Reserved field MUST be set to all zeroes")
	}
	if h.MajorVersion == version3 && h.DirectorySectorCnt != 0 {
		return NewFormatError("header", "Number of Directory Sectors MUST be zero for version 3, got %d", h.DirectorySectorCnt)
	}
	if h.MiniStreamCutoffSize != MiniStreamCutoff {
		return NewFormatError("header", "Mini Stream Cutoff Size MUST be set to 0x00001000, got %#x", h.MiniStreamCutoffSize)
	}
	return nil
}

// SectorSize is 512 for version 3 and 4096 for version 4.
func (h *Header) SectorSize() int64 {
	return 1 << h.SectorShift
}

// MiniSectorSize is always 64.
func (h *Header) MiniSectorSize() int64 {
	return 1 << h.MiniSectorShift
}

func (h *Header) Printf() {
	logger.DebugLogger.Printf("cfb version %d.%d, sector size %d, FAT sectors %d\n", h.MajorVersion, h.MinorVersion, h.SectorSize(), h.FATSectorCnt)
	logger.DebugLogger.Printf("mini sector size %d, MiniFAT sectors %d, first MiniFAT sector %d\n", h.MiniSectorSize(), h.MiniFATSectorCnt, h.MiniFATStart)
	logger.DebugLogger.Printf("directory sectors %d, first directory sector %d\n", h.DirectorySectorCnt, h.DirectoryStart)
	logger.DebugLogger.Printf("DIFAT sectors %d, first DIFAT sector %d\n", h.DIFATSectorCnt, h.DIFATStart)
}
