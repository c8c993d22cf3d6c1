package doc

import (
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"docextra/pkg/logger"
)

// DefaultCodePage decodes compressed pieces unless an option says
// otherwise.
var DefaultCodePage encoding.Encoding = charmap.Windows1252

// bytes of compressed text handed to the charset detector
const detectSample = 8192

type options struct {
	codePage     encoding.Encoding
	codePageName string
	detect       bool
}

// Option configures a Document.
type Option func(*options)

// WithCodePage decodes compressed pieces with enc.
func WithCodePage(enc encoding.Encoding) Option {
	return func(o *options) {
		o.codePage = enc
	}
}

// WithCodePageName is WithCodePage with a WHATWG encoding label such as
// "windows-1251" or "gbk". An unknown label fails Open.
func WithCodePageName(name string) Option {
	return func(o *options) {
		o.codePageName = name
	}
}

// WithCharsetDetection guesses the code page of compressed pieces from
// their bytes. An explicit code page takes precedence.
func WithCharsetDetection(on bool) Option {
	return func(o *options) {
		o.detect = on
	}
}

func (o *options) resolve() error {
	if o.codePageName == "" {
		return nil
	}
	enc, err := htmlindex.Get(o.codePageName)
	if err != nil {
		return fmt.Errorf("code page %q: %w", o.codePageName, err)
	}
	o.codePage = enc
	return nil
}

// detected maps chardet results onto single and double byte code pages.
var detected = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"iso-8859-2":   charmap.Windows1250,
	"windows-1250": charmap.Windows1250,
	"iso-8859-5":   charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"iso-8859-7":   charmap.Windows1253,
	"windows-1253": charmap.Windows1253,
	"iso-8859-9":   charmap.Windows1254,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"iso-8859-8-i": charmap.Windows1255,
	"iso-8859-8":   charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"iso-8859-6":   charmap.Windows1256,
	"gb-18030":     simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
}

// compressedEncoding returns the decoder for compressed pieces. With
// detection on, it is chosen once from a sample of all compressed text.
func (d *Document) compressedEncoding() (encoding.Encoding, error) {
	if d.ansi != nil {
		return d.ansi, nil
	}
	switch {
	case d.opts.codePage != nil:
		d.ansi = d.opts.codePage
	case d.opts.detect:
		sample, err := d.compressedSample()
		if err != nil {
			return nil, err
		}
		d.ansi = detectCodePage(sample)
	default:
		d.ansi = DefaultCodePage
	}
	return d.ansi, nil
}

// compressedSample collects up to detectSample bytes of compressed text
// in piece order.
func (d *Document) compressedSample() ([]byte, error) {
	plc := d.clx.Pcdt.PlcPcd
	var sample []byte
	for i, pcd := range plc.Pcd {
		if !pcd.IsCompressed() {
			continue
		}
		n := int(plc.CP[i+1] - plc.CP[i])
		if room := detectSample - len(sample); n > room {
			n = room
		}
		buf := make([]byte, n)
		if err := d.readWord(buf, int64(pcd.Fc()/2), i); err != nil {
			return nil, err
		}
		sample = append(sample, buf...)
		if len(sample) >= detectSample {
			break
		}
	}
	return sample, nil
}

// detectCodePage guesses the code page of sample. Anything the detector
// cannot place, including UTF-8 for plain ASCII, falls back to
// DefaultCodePage.
func detectCodePage(sample []byte) encoding.Encoding {
	if len(sample) == 0 {
		return DefaultCodePage
	}
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		logger.Logger.Printf("charset detection failed: %v, using the default code page\n", err)
		return DefaultCodePage
	}
	name := strings.ToLower(result.Charset)
	logger.DebugLogger.Printf("detected charset %s (confidence %d, language %q)\n", result.Charset, result.Confidence, result.Language)

	if enc, ok := detected[name]; ok {
		return enc
	}
	if enc, err := htmlindex.Get(name); err == nil && !strings.HasPrefix(name, "utf-") {
		return enc
	}
	return DefaultCodePage
}
