// Package fib reads the parts of the File Information Block that locate
// the text of a Word document: the table stream name, the character
// counts of every story and the position of the Clx.
package fib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"docextra/pkg/cfb"
	"docextra/pkg/logger"
)

const (
	WordIdent = 0xA5EC

	// fWhichTblStm
	flagTable1 = 0x0200

	offsetCcp    = 0x004C
	offsetFcClx  = 0x01A2
	offsetLcbClx = 0x01A6

	// bytes of the FIB this package needs
	minSize = offsetLcbClx + 4
)

const (
	Table0 = "0Table"
	Table1 = "1Table"
)

type FibBase struct {
	WIdent    uint16 // 0xA5EC
	NFib      uint16 // 0x00C1 for Word 97 and later
	Unused    uint16
	Lid       uint16
	PnNext    uint16
	Flags     uint16 // fDot, fGlsy, fComplex, ..., fWhichTblStm (0x0200), ...
	NFibBack  uint16 // 0x00BF or 0x00C1
	LKey      uint32
	Envr      uint8
	FlagsB    uint8
	Reserved3 uint16
	Reserved4 uint16
	Reserved5 uint32
	Reserved6 uint32
}

func (fb *FibBase) Printf() {
	logger.DebugLogger.Printf("FibBase: wIdent %#x, nFib %#x, lid %#x, flags %#x, nFibBack %#x\n",
		fb.WIdent, fb.NFib, fb.Lid, fb.Flags, fb.NFibBack)
}

// Ccp holds the character counts of the stories, in FIB order.
type Ccp struct {
	Text    uint32
	Ftn     uint32
	Hdd     uint32
	Mcr     uint32
	Atn     uint32
	Edn     uint32
	Txbx    uint32
	HdrTxbx uint32
}

// auxiliary is the sum of every story except the main text.
func (c Ccp) auxiliary() uint32 {
	return c.Ftn + c.Hdd + c.Mcr + c.Atn + c.Edn + c.Txbx + c.HdrTxbx
}

type Fib struct {
	Base   FibBase
	Ccp    Ccp
	FcClx  uint32 // offset of the Clx in the table stream
	LcbClx uint32 // size of the Clx in bytes
}

// Parse reads the FIB at the start of the WordDocument stream.
func Parse(wd io.ReaderAt) (*Fib, error) {
	buf := make([]byte, minSize)
	if n, err := wd.ReadAt(buf, 0); n < len(buf) {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read fib: %w", err)
		}
		return nil, cfb.NewFormatError("fib", "WordDocument stream holds %d bytes, the FIB needs %d", n, minSize)
	}

	f := &Fib{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &f.Base); err != nil {
		return nil, fmt.Errorf("read fib base: %w", err)
	}
	f.Base.Printf()
	if f.Base.WIdent != WordIdent {
		return nil, cfb.NewFormatError("fib", "wIdent MUST be 0xA5EC, got %#04x", f.Base.WIdent)
	}

	if err := binary.Read(bytes.NewReader(buf[offsetCcp:]), binary.LittleEndian, &f.Ccp); err != nil {
		return nil, fmt.Errorf("read fib ccp: %w", err)
	}
	f.FcClx = binary.LittleEndian.Uint32(buf[offsetFcClx:])
	f.LcbClx = binary.LittleEndian.Uint32(buf[offsetLcbClx:])

	logger.DebugLogger.Printf("ccp: %+v\n", f.Ccp)
	logger.DebugLogger.Printf("clx at %#x, %d bytes, table stream %s, lastCP %d\n", f.FcClx, f.LcbClx, f.TableName(), f.LastCP())
	return f, nil
}

// TableName is the name of the table stream that holds the Clx.
func (f *Fib) TableName() string {
	if f.Base.Flags&flagTable1 != 0 {
		return Table1
	}
	return Table0
}

// LastCP is the character position that ends the last story. When any
// story besides the main text exists, one extra paragraph mark closes
// the document.
func (f *Fib) LastCP() uint32 {
	last := f.Ccp.auxiliary()
	if last > 0 {
		last++
	}
	return last + f.Ccp.Text
}
