package compressfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docextra/internal"
	"docextra/pkg/logger"
)

/*
	Archive members are written to a temp dir first; each member is then
	parsed through the registry by its own suffix. Members without a
	registered parser are skipped.
*/

// sanitizePath keeps member names inside the extraction dir.
func sanitizePath(path string) string {
	sanitized := strings.TrimPrefix(filepath.Join("/", path), "/")
	if path != sanitized {
		logger.DebugLogger.Printf("sanitized member path: %s -> %s", path, sanitized)
	}
	return sanitized
}

// WriteDstFile copies rc into a new file at safePath, creating parents.
func WriteDstFile(rc io.Reader, safePath string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(safePath), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", safePath, err)
	}

	dstFile, err := os.OpenFile(safePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", safePath, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, rc); err != nil {
		return fmt.Errorf("copy into %s: %w", safePath, err)
	}
	return nil
}

// extractTo runs extract against a fresh temp dir and parses what it left
// behind.
func extractTo(kind string, extract func(tmpDir string) error) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", kind+"_extract_")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	logger.DebugLogger.Printf("temp dir: %s", tmpDir)

	if err := extract(tmpDir); err != nil {
		return nil, err
	}

	content, files, err := walkDir(tmpDir)
	if err != nil {
		return content, err
	}
	logger.Logger.Printf("%s archive parsed, %d member(s) extracted", kind, files)
	return content, nil
}

func walkDir(tmpDir string) ([]byte, int, error) {
	var buffer bytes.Buffer
	var fileCnt int

	err := filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		fileType := internal.GetDynamicFileType(path)
		parser, err := internal.GetParser(fileType)
		if errors.Is(err, internal.ErrNoParser) {
			logger.DebugLogger.Printf("skip member: %s", path)
			return nil
		}
		if err != nil {
			return err
		}

		logger.Logger.Printf("parse member: %s", path)
		content, err := parser.Parse(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", strings.TrimPrefix(path, tmpDir), err)
		}

		fmt.Fprintf(&buffer, "=== file: %s ===\n\n", strings.TrimPrefix(path, tmpDir))
		fileCnt++

		buffer.Write(content)
		buffer.WriteString("\n\n")
		return nil
	})

	return buffer.Bytes(), fileCnt, err
}

// memberName picks the name of the single member of a compressed stream:
// the stream's own name if it carries one, else the archive name minus
// its suffix.
func memberName(stored, archivePath, suffix string) string {
	if stored != "" {
		return stored
	}
	base := filepath.Base(archivePath)
	if strings.HasSuffix(strings.ToLower(base), suffix) {
		return base[:len(base)-len(suffix)]
	}
	return base + ".out"
}
