package doc

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"

	"docextra/pkg/cfb"
	"docextra/pkg/logger"
	"docextra/pkg/office/doc/fib/clx"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ReadChars reads up to n characters from the current position and
// returns them as UTF-8. A negative n reads to the end. The position
// moves by the number of characters read; on error it does not move.
func (d *Document) ReadChars(n int) ([]byte, error) {
	if d.clx == nil {
		return nil, fmt.Errorf("doc: read from closed document")
	}
	left := d.length - d.pos
	want := int64(n)
	if n < 0 || want > left {
		want = left
	}
	if want == 0 {
		return []byte{}, nil
	}

	plc := d.clx.Pcdt.PlcPcd
	cur := plc.CP[0] + uint32(d.pos)
	remaining := uint32(want)
	var out bytes.Buffer
	for i := d.clx.Find(cur); i < d.clx.Pieces() && remaining > 0; i++ {
		start, end := plc.CP[i], plc.CP[i+1]
		if end <= cur {
			continue
		}
		count := end - cur
		if count > remaining {
			count = remaining
		}
		text, err := d.readPiece(i, plc.Pcd[i], cur-start, count)
		if err != nil {
			return nil, err
		}
		out.Write(text)
		cur += count
		remaining -= count
	}

	d.pos += want - int64(remaining)
	return out.Bytes(), nil
}

// readPiece decodes count characters of piece i, skipping the first
// consumed ones.
func (d *Document) readPiece(i int, pcd clx.Pcd, consumed, count uint32) ([]byte, error) {
	var off int64
	var raw []byte
	if pcd.IsCompressed() {
		off = int64(pcd.Fc()/2) + int64(consumed)
		raw = make([]byte, count)
	} else {
		off = int64(pcd.Fc()) + 2*int64(consumed)
		raw = make([]byte, 2*int64(count))
	}
	logger.DebugLogger.Printf("piece %d: %d characters at %#x, compressed %v\n", i, count, off, pcd.IsCompressed())

	if err := d.readWord(raw, off, i); err != nil {
		return nil, err
	}
	if !pcd.IsCompressed() {
		return utf16le.NewDecoder().Bytes(raw)
	}
	enc, err := d.compressedEncoding()
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Bytes(raw)
}

func (d *Document) readWord(p []byte, off int64, piece int) error {
	n, err := d.word.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		return cfb.NewFormatError("text", "piece %d: %d bytes at %#x lie beyond the WordDocument stream (%d bytes)", piece, len(p), off, d.word.Size())
	}
	return err
}
