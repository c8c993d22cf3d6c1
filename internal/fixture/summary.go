package fixture

import "encoding/binary"

// FMTID_SummaryInformation {F29F85E0-4FF9-1068-AB91-08002B27B3D9}, as
// stored on disk.
var summaryFMTID = []byte{
	0xE0, 0x85, 0x9F, 0xF2, 0xF9, 0x4F, 0x68, 0x10,
	0xAB, 0x91, 0x08, 0x00, 0x2B, 0x27, 0xB3, 0xD9,
}

const (
	vtI2    = 0x0002
	vtLPSTR = 0x001E

	pidCodePage = 0x01
	pidTitle    = 0x02
	pidAuthor   = 0x04
)

// SummaryInformation builds a one-section property set stream holding the
// code page (1252) and the non-empty title and author as VT_LPSTR.
func SummaryInformation(title, author string) []byte {
	le := binary.LittleEndian

	type prop struct {
		id  uint32
		val []byte
	}
	codePage := make([]byte, 8)
	le.PutUint16(codePage[0:], vtI2)
	le.PutUint16(codePage[4:], 1252)
	props := []prop{{pidCodePage, codePage}}
	for _, p := range []struct {
		id uint32
		s  string
	}{{pidTitle, title}, {pidAuthor, author}} {
		if p.s != "" {
			props = append(props, prop{p.id, lpstr(p.s)})
		}
	}

	// section: size, count, (id, offset) pairs, values
	offset := uint32(8 + 8*len(props))
	section := make([]byte, offset)
	for i, p := range props {
		le.PutUint32(section[8+8*i:], p.id)
		le.PutUint32(section[12+8*i:], offset)
		section = append(section, p.val...)
		offset += uint32(len(p.val))
	}
	le.PutUint32(section[0:], uint32(len(section)))
	le.PutUint32(section[4:], uint32(len(props)))

	head := make([]byte, 48)
	le.PutUint16(head[0:], 0xFFFE)
	le.PutUint32(head[24:], 1)
	copy(head[28:], summaryFMTID)
	le.PutUint32(head[44:], 48)
	return append(head, section...)
}

// lpstr encodes s as a NUL-terminated VT_LPSTR padded to 4 bytes.
func lpstr(s string) []byte {
	n := len(s) + 1
	b := make([]byte, 8+(n+3)/4*4)
	binary.LittleEndian.PutUint16(b[0:], vtLPSTR)
	binary.LittleEndian.PutUint32(b[4:], uint32(n))
	copy(b[8:], s)
	return b
}
