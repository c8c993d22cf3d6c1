package compressfile

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docextra/internal"
	"docextra/pkg/logger"
)

type TarFileParser struct{}

func (p *TarFileParser) Parse(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open tar: %w", err)
	}
	defer file.Close()

	return parseTarFromReader(file)
}

func init() {
	internal.RegisterParser(internal.FileTypeTAR, &TarFileParser{})
}

func parseTarFromReader(reader io.Reader) ([]byte, error) {
	tarReader := tar.NewReader(reader)

	return extractTo("tar", func(tmpDir string) error {
		for {
			header, err := tarReader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read tar: %w", err)
			}
			if header.Typeflag != tar.TypeReg {
				continue
			}

			targetPath := filepath.Join(tmpDir, sanitizePath(header.Name))
			logger.DebugLogger.Printf("tar member: %s", header.Name)
			if err := WriteDstFile(tarReader, targetPath, 0644); err != nil {
				return err
			}
		}
	})
}
