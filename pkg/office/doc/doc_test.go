package doc_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"docextra/internal/fixture"
	"docextra/pkg/cfb"
	"docextra/pkg/office/doc"
)

const sentence = "One two three four five.\r"

func newDocument(t *testing.T, data []byte, opts ...doc.Option) *doc.Document {
	t.Helper()
	d, err := doc.NewDocument(bytes.NewReader(data), int64(len(data)), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.doc")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// mixed has compressed and UTF-16 pieces, an empty piece and text well
// past the mini stream cutoff.
func mixed() fixture.Word {
	return fixture.Word{
		Table1: true,
		Prcs:   []uint16{12},
		Pieces: []fixture.Piece{
			{Text: "Plain ASCII start. ", Compressed: true},
			{Text: "Ünïcödé ☃ and clef. "},
			{Text: "", Compressed: true},
			{Text: strings.Repeat("filler text ", 400), Compressed: true},
			{Text: "Café crème brûlée.\r", Compressed: true},
			{Text: "Ω end.\r"},
		},
	}
}

func mixedText() string {
	var sb strings.Builder
	for _, p := range mixed().Pieces {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func TestEndToEnd(t *testing.T) {
	path := writeTemp(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}}.Document())

	d, err := doc.Open(path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, int64(len(sentence)), d.Len())
	assert.Equal(t, int64(0), d.Tell())

	text, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sentence, string(text))
	assert.Equal(t, d.Len(), d.Tell())

	pos, err := d.Seek(14, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(14), pos)
	text, err = d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "four five.\r", string(text))

	d.Seek(13, io.SeekStart)
	text, err = d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, " four five.\r", string(text))
}

func TestReadAllTwice(t *testing.T) {
	d := newDocument(t, mixed().Document())

	text, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, mixedText(), string(text))
	assert.Equal(t, d.Len(), d.Tell())

	text, err = d.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = d.ReadChars(10)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestLengthMatchesCharacterCount(t *testing.T) {
	d := newDocument(t, mixed().Document())

	var want int64
	for _, p := range mixed().Pieces {
		want += int64(len([]rune(p.Text)))
	}
	assert.Equal(t, want, d.Len())
}

func TestSurrogatePairsCountTwice(t *testing.T) {
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Text: "a𝄞b\r"}}}.Document())
	assert.Equal(t, int64(5), d.Len())

	text, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "a𝄞b\r", string(text))
}

func TestSeekClamps(t *testing.T) {
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence, Compressed: true}}}.Document())
	n := d.Len()

	for _, x := range []int64{math.MinInt64, -100, -1, 0, 1, 12, n - 1, n, n + 1, 1 << 40, math.MaxInt64} {
		pos, err := d.Seek(x, io.SeekStart)
		require.NoError(t, err)
		want := x
		if want < 0 {
			want = 0
		}
		if want > n {
			want = n
		}
		assert.Equal(t, want, pos, "seek %d", x)
		assert.Equal(t, want, d.Tell(), "seek %d", x)
	}

	d.Seek(10, io.SeekStart)
	pos, _ := d.Seek(5, io.SeekCurrent)
	assert.Equal(t, int64(15), pos)
	pos, _ = d.Seek(-20, io.SeekCurrent)
	assert.Equal(t, int64(0), pos)

	// counts backwards from the end
	pos, _ = d.Seek(5, io.SeekEnd)
	assert.Equal(t, n-5, pos)
	pos, _ = d.Seek(-5, io.SeekEnd)
	assert.Equal(t, n, pos)
}

func TestSeekSaturates(t *testing.T) {
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence, Compressed: true}}}.Document())
	n := d.Len()

	d.Seek(10, io.SeekStart)
	pos, err := d.Seek(math.MaxInt64, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, n, pos)

	pos, _ = d.Seek(math.MinInt64, io.SeekCurrent)
	assert.Equal(t, int64(0), pos)

	pos, _ = d.Seek(math.MinInt64, io.SeekEnd)
	assert.Equal(t, n, pos)

	pos, _ = d.Seek(math.MaxInt64, io.SeekEnd)
	assert.Equal(t, int64(0), pos)
	assert.Equal(t, int64(0), d.Tell())
}

func TestReadChunksCompose(t *testing.T) {
	data := mixed().Document()
	whole, err := newDocument(t, data).ReadAll()
	require.NoError(t, err)

	for _, chunk := range []int{1, 3, 7, 19, 64, 1000} {
		d := newDocument(t, data)
		var got []byte
		for {
			part, err := d.ReadChars(chunk)
			require.NoError(t, err)
			if len(part) == 0 {
				break
			}
			got = append(got, part...)
		}
		assert.Equal(t, string(whole), string(got), "chunk %d", chunk)
	}

	// n followed by m equals n+m from the same start
	for _, start := range []int64{0, 5, 19, 40, 4800} {
		d := newDocument(t, data)
		d.Seek(start, io.SeekStart)
		a, err := d.ReadChars(11)
		require.NoError(t, err)
		b, err := d.ReadChars(23)
		require.NoError(t, err)

		d.Seek(start, io.SeekStart)
		ab, err := d.ReadChars(34)
		require.NoError(t, err)
		assert.Equal(t, string(ab), string(a)+string(b), "start %d", start)
	}
}

func TestReadCharsCountsCharacters(t *testing.T) {
	d := newDocument(t, mixed().Document())

	d.Seek(19, io.SeekStart) // start of the UTF-16 piece
	text, err := d.ReadChars(9)
	require.NoError(t, err)
	assert.Equal(t, "Ünïcödé ☃", string(text))
	assert.Equal(t, int64(28), d.Tell())

	d.Seek(3, io.SeekEnd)
	text, err = d.ReadChars(100)
	require.NoError(t, err)
	assert.Equal(t, "d.\r", string(text))
	assert.Equal(t, d.Len(), d.Tell())
}

func TestCompressedRoundTrip(t *testing.T) {
	// bytes 0x80-0xFF of cp1252 map to the characters below
	raw := []byte{0x80, 0x93, 0x94, 0xE9, 0xFC, 'x'}
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Raw: raw, Compressed: true}}}.Document())

	assert.Equal(t, int64(len(raw)), d.Len())
	text, err := d.ReadAll()
	require.NoError(t, err)
	want, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(text))
	assert.Equal(t, "€“”éüx", string(text))
}

func TestCodePageOptions(t *testing.T) {
	raw := []byte{0xC0, 0xE1, 0xE2} // cp1251: А б в
	data := fixture.Word{Pieces: []fixture.Piece{{Raw: raw, Compressed: true}}}.Document()

	text, err := newDocument(t, data, doc.WithCodePage(charmap.Windows1251)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Абв", string(text))

	text, err = newDocument(t, data, doc.WithCodePageName("windows-1251")).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Абв", string(text))

	text, err = newDocument(t, data).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Àáâ", string(text))

	_, err = doc.NewDocument(bytes.NewReader(data), int64(len(data)), doc.WithCodePageName("no-such-charset"))
	assert.Error(t, err)
}

func TestCharsetDetectionKeepsASCII(t *testing.T) {
	d := newDocument(t, mixed().Document(), doc.WithCharsetDetection(true))
	text, err := d.ReadChars(19)
	require.NoError(t, err)
	assert.Equal(t, "Plain ASCII start. ", string(text))
}

func TestWriteToAndString(t *testing.T) {
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}}.Document())
	d.Seek(4, io.SeekStart)

	assert.Equal(t, sentence, d.String())
	assert.Equal(t, int64(4), d.Tell())

	var buf bytes.Buffer
	n, err := d.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(sentence)-4), n)
	assert.Equal(t, sentence[4:], buf.String())
}

func TestAuxiliaryStoriesAreIncluded(t *testing.T) {
	text := "Body.\rHead\r\r"
	d := newDocument(t, fixture.Word{
		Pieces: []fixture.Piece{{Text: text, Compressed: true}},
		Aux:    [7]uint32{0, 5},
	}.Document())

	assert.Equal(t, int64(len(text)), d.Len())
	assert.Equal(t, uint32(6), d.Fib().Ccp.Text)
	got, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestVersion4Container(t *testing.T) {
	data := fixture.Build(fixture.Options{Version: 4, Entries: mixed().Entries()}).Bytes
	d := newDocument(t, data)
	assert.Equal(t, 4, d.Container().Version())

	text, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, mixedText(), string(text))
}

func TestOpenFailures(t *testing.T) {
	valid := fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}}
	wd, tbl, _ := valid.Streams()

	tests := []struct {
		name string
		data []byte
	}{
		{"signature", func() []byte {
			b := valid.Document()
			b[1] = 0
			return b
		}()},
		{"byte order", func() []byte {
			b := valid.Document()
			b[28] = 0xFF
			return b
		}()},
		{"sector shift", func() []byte {
			b := valid.Document()
			b[30] = 12
			return b
		}()},
		{"no WordDocument", fixture.Build(fixture.Options{Entries: []fixture.Entry{
			{Name: "0Table", Data: tbl},
		}}).Bytes},
		{"no table stream", fixture.Build(fixture.Options{Entries: []fixture.Entry{
			{Name: "WordDocument", Data: wd},
			{Name: "1Table", Data: tbl},
		}}).Bytes},
		{"wIdent", fixture.Word{Ident: 0x1234, Pieces: []fixture.Piece{{Text: sentence}}}.Document()},
		{"lastCP", fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}, CPs: []uint32{0, 20}}.Document()},
		{"clxt", fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}, ClxTag: 0x05}.Document()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doc.NewDocument(bytes.NewReader(tt.data), int64(len(tt.data)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, doc.ErrFormat))
			var fe *doc.FormatError
			assert.True(t, errors.As(err, &fe))
			assert.NotEmpty(t, fe.Error())

			_, err = doc.Open(writeTemp(t, tt.data))
			assert.ErrorIs(t, err, doc.ErrFormat)
		})
	}
}

func TestPiecePastEndOfStream(t *testing.T) {
	d := newDocument(t, fixture.Word{
		Pieces:  []fixture.Piece{{Text: "short", Compressed: true}, {Text: sentence}},
		FcShift: 0x10000,
	}.Document())

	_, err := d.ReadAll()
	assert.ErrorIs(t, err, cfb.ErrFormat)
	assert.Equal(t, int64(0), d.Tell())
}

func TestSummary(t *testing.T) {
	d := newDocument(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}}.Document())
	props, err := d.Summary()
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestSummaryProperties(t *testing.T) {
	d := newDocument(t, fixture.Word{
		Pieces: []fixture.Piece{{Text: sentence}},
		Title:  "Quarterly report",
		Author: "J. Doe",
	}.Document())

	props, err := d.Summary()
	require.NoError(t, err)
	assert.Equal(t, []doc.Property{
		{Name: "CodePage", Value: "1252"},
		{Name: "Title", Value: "Quarterly report"},
		{Name: "Author", Value: "J. Doe"},
	}, props)

	text, err := d.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sentence, string(text))
}

func TestClose(t *testing.T) {
	path := writeTemp(t, fixture.Word{Pieces: []fixture.Piece{{Text: sentence}}}.Document())
	d, err := doc.Open(path)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = d.ReadAll()
	assert.Error(t, err)
}

func TestOfficeDocParser(t *testing.T) {
	path := writeTemp(t, mixed().Document())
	text, err := (&doc.OfficeDocParser{}).Parse(path)
	require.NoError(t, err)
	assert.Equal(t, mixedText(), string(text))

	_, err = (&doc.OfficeDocParser{}).Parse(filepath.Join(t.TempDir(), "missing.doc"))
	assert.Error(t, err)
}
