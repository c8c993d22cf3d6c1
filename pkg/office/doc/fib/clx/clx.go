// Package clx decodes the Clx of a Word document: the optional Prc blocks
// followed by the piece table (PlcPcd) that maps character positions to
// byte ranges of the WordDocument stream.
package clx

import (
	"fmt"
	"io"
	"sort"

	"docextra/pkg/cfb"
	"docextra/pkg/logger"
)

// Stream is the table stream as seen by the decoder. *cfb.Stream
// implements it.
type Stream interface {
	io.ReaderAt
	Byte(off int64) (uint8, error)
	Uint16(off int64) (uint16, error)
	Uint32(off int64) (uint32, error)
}

// PlcPcd is the piece table: len(CP) == len(Pcd)+1 and piece i covers the
// characters [CP[i], CP[i+1]).
type PlcPcd struct {
	CP  []uint32
	Pcd []Pcd
}

type Pcdt struct {
	Lcb    uint32 // size of PlcPcd in bytes
	PlcPcd PlcPcd
}

type Clx struct {
	Prcs []Prc // zero or more
	Pcdt Pcdt
}

// Parse decodes the Clx at fcClx in the table stream. lcbClx is its size
// and lastCP the character position the piece table must end at.
func Parse(table Stream, fcClx, lcbClx, lastCP uint32) (*Clx, error) {
	c := &Clx{}
	pos := int64(fcClx)

	clxt, err := table.Byte(pos)
	if err != nil {
		return nil, err
	}
	for clxt == PrcClxtIdentifier {
		prc, err := parsePrc(table, pos)
		if err != nil {
			return nil, err
		}
		c.Prcs = append(c.Prcs, prc)
		pos += prc.Size()
		if clxt, err = table.Byte(pos); err != nil {
			return nil, err
		}
	}
	if clxt != PcdtClxtIdentifier {
		return nil, cfb.NewFormatError("clx", "PlcPcd.clxt MUST be 0x02, got %#02x", clxt)
	}
	pos++

	lcb, err := table.Uint32(pos)
	if err != nil {
		return nil, err
	}
	pos += 4
	// lcb counts either everything after the Prcs, clxt and lcb, or
	// everything after the first clxt and lcb (Prcs included)
	afterPrcs := int64(lcbClx) - (pos - int64(fcClx))
	afterHead := int64(lcbClx) - 5
	if int64(lcb) != afterPrcs && int64(lcb) != afterHead {
		return nil, cfb.NewFormatError("clx", "wrong size of PlcPcd structure: lcb %d, lcbClx %d", lcb, lcbClx)
	}
	c.Pcdt.Lcb = lcb

	cps, err := readCPs(table, pos, lcb, lastCP)
	if err != nil {
		return nil, err
	}
	pos += int64(len(cps)) * 4

	pcds, err := readPcds(table, pos, len(cps)-1)
	if err != nil {
		return nil, err
	}
	c.Pcdt.PlcPcd = PlcPcd{CP: cps, Pcd: pcds}
	c.Printf()
	return c, nil
}

// readCPs reads character positions until one equals lastCP.
func readCPs(table Stream, pos int64, lcb, lastCP uint32) ([]uint32, error) {
	var cps []uint32
	for read := uint32(0); read+4 <= lcb; read += 4 {
		cp, err := table.Uint32(pos + int64(read))
		if err != nil {
			return nil, err
		}
		if n := len(cps); n > 0 && cp < cps[n-1] {
			return nil, cfb.NewFormatError("clx", "CP[%d] = %d is smaller than CP[%d] = %d", n, cp, n-1, cps[n-1])
		}
		cps = append(cps, cp)
		if cp == lastCP {
			return cps, nil
		}
		if cp > lastCP {
			break
		}
	}
	return nil, cfb.NewFormatError("clx", "last found CP MUST be equal to lastCP %d", lastCP)
}

func readPcds(table Stream, pos int64, n int) ([]Pcd, error) {
	buf := make([]byte, n*PcdSize)
	if m, err := table.ReadAt(buf, pos); m < len(buf) {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read piece descriptors: %w", err)
		}
		return nil, cfb.NewFormatError("clx", "%d piece descriptors at %#x run past the table stream", n, pos)
	}
	pcds := make([]Pcd, n)
	for i := range pcds {
		pcds[i] = decodePcd(buf[i*PcdSize:])
		if err := pcds[i].ValidateReservedBit(); err != nil {
			return nil, fmt.Errorf("pcd %d: %w", i, err)
		}
	}
	return pcds, nil
}

// LastCP is the position that ends the piece table.
func (c *Clx) LastCP() uint32 {
	cp := c.Pcdt.PlcPcd.CP
	return cp[len(cp)-1]
}

// Length is the number of characters the pieces cover.
func (c *Clx) Length() uint32 {
	cp := c.Pcdt.PlcPcd.CP
	return cp[len(cp)-1] - cp[0]
}

// Pieces is the number of pieces.
func (c *Clx) Pieces() int {
	return len(c.Pcdt.PlcPcd.Pcd)
}

// Find returns the index of the first piece that ends after cp, or
// Pieces() when cp is at or past the end. Empty pieces are never
// returned.
func (c *Clx) Find(cp uint32) int {
	cps := c.Pcdt.PlcPcd.CP
	return sort.Search(c.Pieces(), func(i int) bool {
		return cps[i+1] > cp
	})
}

func (c *Clx) Printf() {
	for _, prc := range c.Prcs {
		logger.DebugLogger.Printf("prc at %#x, cbGrpprl %d\n", prc.Offset, prc.CbGrpprl)
	}
	plc := c.Pcdt.PlcPcd
	logger.DebugLogger.Printf("plcpcd: lcb %d, %d pieces, cp %v\n", c.Pcdt.Lcb, len(plc.Pcd), plc.CP)
	for i, pcd := range plc.Pcd {
		logger.DebugLogger.Printf("pcd[%d]: fc %#x, compressed %v, flags %#x, prm %#x\n", i, pcd.Fc(), pcd.IsCompressed(), pcd.Flags, pcd.Prm)
	}
}
