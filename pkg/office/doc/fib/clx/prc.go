package clx

import "docextra/pkg/cfb"

const (
	PrcClxtIdentifier  = 0x01
	PcdtClxtIdentifier = 0x02

	// largest allowed cbGrpprl
	maxGrpprl = 0x3FA2
)

// Prc is a block of property modifiers. Only its position is kept; the
// text engine never applies formatting.
type Prc struct {
	Offset   int64  // of the clxt byte in the table stream
	CbGrpprl uint16 // size of the GrpPrl that follows
}

// Size is the number of bytes the Prc occupies, tag included.
func (p Prc) Size() int64 {
	return 3 + int64(p.CbGrpprl)
}

// parsePrc reads the Prc whose clxt byte is at off.
func parsePrc(table Stream, off int64) (Prc, error) {
	cb, err := table.Uint16(off + 1)
	if err != nil {
		return Prc{}, err
	}
	if cb > maxGrpprl {
		return Prc{}, cfb.NewFormatError("clx", "cbGrpprl MUST be less than or equal to 0x3FA2, got %#x", cb)
	}
	return Prc{Offset: off, CbGrpprl: cb}, nil
}
