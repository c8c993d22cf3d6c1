package compressfile

import (
	"fmt"
	"io"
	"path/filepath"

	"docextra/internal"
	"docextra/pkg/logger"

	"github.com/nwaples/rardecode"
)

type RarFileParser struct{}

func (p *RarFileParser) Parse(filePath string) ([]byte, error) {
	reader, err := rardecode.OpenReader(filePath, "")
	if err != nil {
		return nil, fmt.Errorf("open rar: %w", err)
	}
	defer reader.Close()

	return extractTo("rar", func(tmpDir string) error {
		for {
			hdr, err := reader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read rar: %w", err)
			}
			if hdr.IsDir {
				continue
			}

			logger.DebugLogger.Printf("rar member: %s", hdr.Name)
			if err := WriteDstFile(reader, filepath.Join(tmpDir, sanitizePath(hdr.Name)), 0644); err != nil {
				return err
			}
		}
	})
}

func init() {
	// rar(23)
	internal.RegisterParser(internal.FileTypeRAR, &RarFileParser{})
}
