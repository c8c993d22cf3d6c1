package compressfile

import (
	"archive/zip"
	"fmt"
	"path/filepath"

	"docextra/internal"
	"docextra/pkg/logger"
)

type ZipFileParser struct{}

func (p *ZipFileParser) Parse(filePath string) ([]byte, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()
	logger.Logger.Printf("extract zip: %s", filePath)

	return extractTo("zip", func(tmpDir string) error {
		for _, f := range r.File {
			if f.FileInfo().IsDir() {
				continue
			}
			safePath := filepath.Join(tmpDir, sanitizePath(f.Name))
			logger.DebugLogger.Printf("zip member: %s -> %s", f.Name, safePath)

			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open zip member %s: %w", f.Name, err)
			}
			err = WriteDstFile(rc, safePath, 0644)
			rc.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	// zip(21) jar(25)
	internal.RegisterParser(internal.FileTypeZIP, &ZipFileParser{})
	internal.RegisterParser(internal.FileTypeJAR, &ZipFileParser{})
}
