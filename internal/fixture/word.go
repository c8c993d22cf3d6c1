package fixture

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// Piece is a run of text stored either compressed (one cp1252 byte per
// character) or as UTF-16LE.
type Piece struct {
	Text       string
	Compressed bool
	// Raw replaces the encoded text of a compressed piece.
	Raw []byte
}

func (p Piece) encode() []byte {
	if p.Raw != nil {
		return p.Raw
	}
	if p.Compressed {
		b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(p.Text))
		if err != nil {
			panic(err)
		}
		return b
	}
	units := utf16.Encode([]rune(p.Text))
	b := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	return b
}

func (p Piece) chars() uint32 {
	if p.Compressed {
		return uint32(len(p.encode()))
	}
	return uint32(len(p.encode()) / 2)
}

// Word describes a WordDocument stream and its table stream.
type Word struct {
	Pieces []Piece
	// store the Clx in 1Table instead of 0Table
	Table1 bool
	// auxiliary story lengths: ftn, hdd, mcr, atn, edn, txbx, hdrTxbx
	Aux [7]uint32
	// GrpPrl sizes of Prc blocks in front of the piece table
	Prcs []uint16
	// adds a \x05SummaryInformation stream when not empty
	Title  string
	Author string

	// overrides for malformed documents
	Ident    uint16   // wIdent, 0xA5EC when zero
	CPs      []uint32 // replaces the computed CP array
	ClxTag   byte     // replaces the 0x02 clxt
	LcbDelta int32    // added to the PlcPcd lcb
	// moves every piece this many bytes further into the stream without
	// growing it
	FcShift uint32
	// absolute start of the first piece
	TextOffset uint32
}

const (
	clxOffsetInTable = 0x20
	defaultTextStart = 0x400
)

// Streams returns the WordDocument and table stream contents plus the
// name of the table stream.
func (w Word) Streams() (wordDocument, table []byte, tableName string) {
	le := binary.LittleEndian
	start := w.TextOffset
	if start == 0 {
		start = defaultTextStart
	}

	var text []byte
	cps := []uint32{0}
	fcs := make([]uint32, len(w.Pieces))
	for i, p := range w.Pieces {
		off := start + uint32(len(text)) + w.FcShift
		if p.Compressed {
			fcs[i] = off*2 | 0x40000000
		} else {
			fcs[i] = off
		}
		text = append(text, p.encode()...)
		cps = append(cps, cps[len(cps)-1]+p.chars())
	}
	total := cps[len(cps)-1]

	var aux uint32
	for _, n := range w.Aux {
		aux += n
	}
	ccpText := total
	if aux > 0 {
		ccpText = total - aux - 1
	}
	if w.CPs != nil {
		cps = w.CPs
	}

	wd := make([]byte, int(start)+len(text))
	ident := w.Ident
	if ident == 0 {
		ident = 0xA5EC
	}
	le.PutUint16(wd[0x00:], ident)
	le.PutUint16(wd[0x02:], 0x00C1)
	flags := uint16(0x1000)
	if w.Table1 {
		flags |= 0x0200
	}
	le.PutUint16(wd[0x0A:], flags)
	le.PutUint16(wd[0x0C:], 0x00BF)
	le.PutUint16(wd[0x20:], 0x000E)
	le.PutUint16(wd[0x3E:], 0x0016)
	le.PutUint32(wd[0x4C:], ccpText)
	for i, n := range w.Aux {
		le.PutUint32(wd[0x50+4*i:], n)
	}
	le.PutUint16(wd[0x98:], 0x005D)
	copy(wd[start:], text)

	// Clx
	var clx []byte
	for _, cb := range w.Prcs {
		prc := make([]byte, 3+int(cb))
		prc[0] = 0x01
		le.PutUint16(prc[1:], cb)
		clx = append(clx, prc...)
	}
	tag := w.ClxTag
	if tag == 0 {
		tag = 0x02
	}
	pcdCount := len(cps) - 1
	if pcdCount < 0 {
		pcdCount = 0
	}
	plc := make([]byte, 4*len(cps)+8*pcdCount)
	for i, cp := range cps {
		le.PutUint32(plc[4*i:], cp)
	}
	for i := 0; i < pcdCount; i++ {
		pcd := plc[4*len(cps)+8*i:]
		fc := uint32(0)
		if i < len(fcs) {
			fc = fcs[i]
		}
		le.PutUint32(pcd[2:], fc)
	}
	head := make([]byte, 5)
	head[0] = tag
	le.PutUint32(head[1:], uint32(int32(len(plc))+w.LcbDelta))
	clx = append(clx, head...)
	clx = append(clx, plc...)

	tbl := make([]byte, clxOffsetInTable+len(clx))
	copy(tbl[clxOffsetInTable:], clx)
	le.PutUint32(wd[0x1A2:], clxOffsetInTable)
	le.PutUint32(wd[0x1A6:], uint32(len(clx)))

	tableName = "0Table"
	if w.Table1 {
		tableName = "1Table"
	}
	return wd, tbl, tableName
}

// Entries are the directory entries of a document holding w, ready for
// Build.
func (w Word) Entries() []Entry {
	wd, tbl, name := w.Streams()
	entries := []Entry{
		{Name: "WordDocument", Data: wd},
		{Name: name, Data: tbl},
	}
	if w.Title != "" || w.Author != "" {
		entries = append(entries, Entry{Name: "\x05SummaryInformation", Data: SummaryInformation(w.Title, w.Author)})
	}
	return entries
}

// Document builds a version 3 compound file holding w.
func (w Word) Document() []byte {
	return Build(Options{Entries: w.Entries()}).Bytes
}
