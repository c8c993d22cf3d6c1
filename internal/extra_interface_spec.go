package internal

import (
	"path/filepath"
	"strings"
)

const (
	FileTypeDOC   = 7
	FileTypeTAR   = 18
	FileTypeGZ    = 19
	FileTypeTARGZ = 20
	FileTypeZIP   = 21
	FileType7Z    = 22
	FileTypeRAR   = 23
	FileTypeBZ2   = 24
	FileTypeJAR   = 25
	FileTypeXZ    = 29
	FileTypeOther = 114
)

var suffixMap = map[string]int{
	"doc":    FileTypeDOC,
	"dot":    FileTypeDOC,
	"tar":    FileTypeTAR,
	"gz":     FileTypeGZ,
	"tar.gz": FileTypeTARGZ,
	"tgz":    FileTypeTARGZ,
	"zip":    FileTypeZIP,
	"7z":     FileType7Z,
	"rar":    FileTypeRAR,
	"bz2":    FileTypeBZ2,
	"jar":    FileTypeJAR,
	"xz":     FileTypeXZ,
}

// GetDynamicFileType maps a file name to a file type by its suffix.
func GetDynamicFileType(filename string) int {
	lowerFilename := strings.ToLower(filename)

	ext := strings.TrimPrefix(filepath.Ext(lowerFilename), ".")
	if strings.HasSuffix(lowerFilename, ".tar.gz") {
		ext = "tar.gz"
	}

	if t, ok := suffixMap[ext]; ok {
		return t
	}
	return FileTypeOther
}
