package internal

import (
	"errors"
	"fmt"
)

// FileParser extracts the text of one file.
type FileParser interface {
	Parse(filePath string) ([]byte, error)
}

// ErrNoParser is returned by GetParser for file types nobody registered.
var ErrNoParser = errors.New("no parser registered for file type")

var parsers = make(map[int]FileParser)

// RegisterParser binds a parser to a file type. The first registration wins.
func RegisterParser(fileType int, parser FileParser) {
	if _, exists := parsers[fileType]; exists {
		fmt.Printf("warning: file type %d already registered, ignoring duplicate\n", fileType)
		return
	}
	parsers[fileType] = parser
}

// GetParser returns the parser for fileType.
func GetParser(fileType int) (FileParser, error) {
	parser, exists := parsers[fileType]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrNoParser, fileType)
	}
	return parser, nil
}
