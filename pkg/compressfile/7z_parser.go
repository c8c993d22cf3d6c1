package compressfile

import (
	"fmt"

	"docextra/internal"
	"docextra/pkg/logger"

	"github.com/gen2brain/go-unarr"
)

type SevenZFileParser struct{}

func (p *SevenZFileParser) Parse(filePath string) ([]byte, error) {
	archive, err := unarr.NewArchive(filePath)
	if err != nil {
		return nil, fmt.Errorf("open 7z: %w", err)
	}
	defer archive.Close()

	return extractTo("7z", func(tmpDir string) error {
		files, err := archive.Extract(tmpDir)
		if err != nil {
			return fmt.Errorf("extract 7z: %w", err)
		}
		logger.DebugLogger.Printf("7z members: %v", files)
		return nil
	})
}

func init() {
	// go-unarr has no rar v5 support, rar goes through rardecode
	internal.RegisterParser(internal.FileType7Z, &SevenZFileParser{})
}
