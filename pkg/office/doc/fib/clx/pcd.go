package clx

import (
	"encoding/binary"

	"docextra/pkg/cfb"
)

const (
	PcdSize = 8

	fcCompressedFlag = 0x40000000
	fcMask           = 0x3FFFFFFF
)

// Pcd describes where the characters of one piece are stored.
type Pcd struct {
	Flags        uint16 // fNoParaLast, fR1, fDirty, fR2
	FcCompressed uint32 // 30-bit fc plus fCompressed; bit 31 is reserved
	Prm          uint16
}

// Fc is the offset of the piece in the WordDocument stream. For
// compressed pieces the byte offset is Fc()/2.
func (p Pcd) Fc() uint32 {
	return p.FcCompressed & fcMask
}

// IsCompressed reports whether the piece stores one byte per character
// in an ANSI code page instead of UTF-16LE.
func (p Pcd) IsCompressed() bool {
	return p.FcCompressed&fcCompressedFlag != 0
}

// ValidateReservedBit checks the reserved most significant bit of fc.
func (p Pcd) ValidateReservedBit() error {
	if p.FcCompressed&0x80000000 != 0 {
		return cfb.NewFormatError("clx", "FcCompressed.r1 MUST be zero, fc is %#08x", p.FcCompressed)
	}
	return nil
}

func decodePcd(buf []byte) Pcd {
	return Pcd{
		Flags:        binary.LittleEndian.Uint16(buf),
		FcCompressed: binary.LittleEndian.Uint32(buf[2:]),
		Prm:          binary.LittleEndian.Uint16(buf[6:]),
	}
}
