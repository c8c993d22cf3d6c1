// Package doc extracts plain text from Word binary documents. A Document
// is a cursor over the characters of the piece table: it can be moved
// with Seek and read in chunks with ReadChars.
package doc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"

	"docextra/pkg/cfb"
	"docextra/pkg/logger"
	"docextra/pkg/office/doc/fib"
	"docextra/pkg/office/doc/fib/clx"
)

const (
	WordDocumentStream = "WordDocument"
	SummaryStream      = "\x05SummaryInformation"
)

var (
	ErrFormat   = cfb.ErrFormat
	ErrNotFound = cfb.ErrNotFound
)

// FormatError is the single error kind for malformed documents.
type FormatError = cfb.FormatError

// Document is an open Word document. It is not safe for concurrent use.
type Document struct {
	container *cfb.Reader
	word      *cfb.Stream
	table     *cfb.Stream
	fib       *fib.Fib
	clx       *clx.Clx

	// characters from CP[0]
	pos    int64
	length int64

	opts options
	// decoder of compressed pieces, resolved on first use
	ansi encoding.Encoding
}

// Open opens the Word document at path. The file is closed again when
// any part of it turns out to be malformed.
func Open(path string, opts ...Option) (*Document, error) {
	container, err := cfb.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := newDocument(container, opts)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Logger.Printf("opened word document %s, %d characters\n", path, d.length)
	return d, nil
}

// NewDocument reads a Word document of the given size from ra. Close does
// not close ra.
func NewDocument(ra io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	container, err := cfb.NewReader(ra, size)
	if err != nil {
		return nil, err
	}
	d, err := newDocument(container, opts)
	if err != nil {
		container.Close()
		return nil, err
	}
	return d, nil
}

func newDocument(container *cfb.Reader, opts []Option) (*Document, error) {
	d := &Document{container: container}
	for _, opt := range opts {
		opt(&d.opts)
	}
	if err := d.opts.resolve(); err != nil {
		return nil, err
	}

	var err error
	if d.word, err = requiredStream(container, WordDocumentStream); err != nil {
		return nil, err
	}
	if d.fib, err = fib.Parse(d.word); err != nil {
		return nil, err
	}
	if d.table, err = requiredStream(container, d.fib.TableName()); err != nil {
		return nil, err
	}
	if d.clx, err = clx.Parse(d.table, d.fib.FcClx, d.fib.LcbClx, d.fib.LastCP()); err != nil {
		return nil, err
	}
	d.length = int64(d.clx.Length())
	return d, nil
}

// requiredStream opens a stream the document cannot do without. Its
// absence makes the file malformed.
func requiredStream(container *cfb.Reader, name string) (*cfb.Stream, error) {
	s, err := container.OpenStreamByName(name)
	if errors.Is(err, cfb.ErrNotFound) {
		return nil, cfb.NewFormatError("document", "%s stream not found", name)
	}
	return s, err
}

// Close releases the container. The Document must not be used afterwards.
func (d *Document) Close() error {
	if d.container == nil {
		return nil
	}
	err := d.container.Close()
	d.container, d.word, d.table, d.clx = nil, nil, nil, nil
	return err
}

// Seek moves the character position. The result is clamped to
// [0, Len()]; io.SeekEnd counts backwards from the end. Seek never
// fails; an unknown whence leaves the position unchanged.
func (d *Document) Seek(offset int64, whence int) (int64, error) {
	pos := d.pos
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		// compared against the room left so the sum cannot overflow
		if offset > d.length-d.pos {
			pos = d.length
		} else {
			pos += offset
		}
	case io.SeekEnd:
		if offset < 0 {
			pos = d.length
		} else {
			pos = d.length - offset
		}
	}
	if pos < 0 {
		pos = 0
	}
	if pos > d.length {
		pos = d.length
	}
	d.pos = pos
	return pos, nil
}

// Tell returns the character position.
func (d *Document) Tell() int64 {
	return d.pos
}

// Len is the number of characters in the document.
func (d *Document) Len() int64 {
	return d.length
}

// Container gives access to the compound file the document lives in.
func (d *Document) Container() *cfb.Reader {
	return d.container
}

// Fib returns the decoded FIB fields.
func (d *Document) Fib() *fib.Fib {
	return d.fib
}

// ReadAll reads from the current position to the end.
func (d *Document) ReadAll() ([]byte, error) {
	return d.ReadChars(-1)
}

// WriteTo writes the rest of the document to w as UTF-8.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	text, err := d.ReadAll()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(text)
	return int64(n), err
}

// String returns the whole text without moving the position.
func (d *Document) String() string {
	saved := d.pos
	defer func() { d.pos = saved }()
	d.pos = 0

	var sb strings.Builder
	if _, err := d.WriteTo(&sb); err != nil {
		logger.Logger.Printf("document text: %v\n", err)
	}
	return sb.String()
}

// OfficeDocParser extracts the text of .doc files for the file type
// registry.
type OfficeDocParser struct {
	Options []Option
}

func (p *OfficeDocParser) Parse(filePath string) ([]byte, error) {
	d, err := Open(filePath, p.Options...)
	if err != nil {
		return nil, fmt.Errorf("open doc: %w", err)
	}
	defer d.Close()

	text, err := d.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}
