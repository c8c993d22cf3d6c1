package compressfile

import (
	"compress/bzip2"
	"fmt"
	"os"
	"path/filepath"

	"docextra/internal"
)

type Bz2FileParser struct{}

func (p *Bz2FileParser) Parse(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open bz2: %w", err)
	}
	defer file.Close()

	original := memberName("", filePath, ".bz2")
	return extractTo("bz2", func(tmpDir string) error {
		return WriteDstFile(bzip2.NewReader(file), filepath.Join(tmpDir, sanitizePath(original)), 0644)
	})
}

func init() {
	// bz2(24)
	internal.RegisterParser(internal.FileTypeBZ2, &Bz2FileParser{})
}
