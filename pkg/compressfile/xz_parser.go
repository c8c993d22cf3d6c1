package compressfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docextra/internal"

	"github.com/ulikunitz/xz"
)

type XzFileParser struct{}

func (p *XzFileParser) Parse(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xz: %w", err)
	}
	defer file.Close()

	return parseXzFromReader(file, filePath)
}

func init() {
	// xz(29)
	internal.RegisterParser(internal.FileTypeXZ, &XzFileParser{})
}

func parseXzFromReader(reader io.Reader, filename string) ([]byte, error) {
	xzReader, err := xz.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("read xz header: %w", err)
	}

	original := memberName("", filename, ".xz")
	return extractTo("xz", func(tmpDir string) error {
		return WriteDstFile(xzReader, filepath.Join(tmpDir, sanitizePath(original)), 0644)
	})
}
