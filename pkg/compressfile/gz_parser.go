package compressfile

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docextra/internal"
	"docextra/pkg/logger"
)

type GzFileParser struct{}

func (p *GzFileParser) Parse(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open gz: %w", err)
	}
	defer file.Close()

	return parseGzFromReader(file, filePath)
}

func init() {
	// gz(19) tar.gz(20)
	internal.RegisterParser(internal.FileTypeTARGZ, &GzFileParser{})
	internal.RegisterParser(internal.FileTypeGZ, &GzFileParser{})
}

func parseGzFromReader(reader io.Reader, filename string) ([]byte, error) {
	gzReader, err := gzip.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("read gzip header: %w", err)
	}
	defer gzReader.Close()

	original := gzReader.Header.Name
	if original == "" {
		lower := strings.ToLower(filename)
		switch {
		case strings.HasSuffix(lower, ".tar.gz"):
			original = memberName("", filename, ".tar.gz") + ".tar"
		case strings.HasSuffix(lower, ".tgz"):
			original = memberName("", filename, ".tgz") + ".tar"
		default:
			original = memberName("", filename, ".gz")
		}
	}
	logger.Logger.Printf("gz member: %s", original)

	return extractTo("gz", func(tmpDir string) error {
		return WriteDstFile(gzReader, filepath.Join(tmpDir, sanitizePath(original)), 0644)
	})
}
