package cfb

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the root of every structural violation. Use
	// errors.Is(err, cfb.ErrFormat) to treat a file as unreadable.
	ErrFormat = errors.New("invalid document format")

	// ErrNotFound is returned by name lookups that miss.
	ErrNotFound = errors.New("directory entry not found")
)

// FormatError reports a violated rule of the container or document
// structure. Part names the structure ("header", "directory", "clx", ...).
type FormatError struct {
	Part string
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Part == "" {
		return e.Msg
	}
	return e.Part + ": " + e.Msg
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// NewFormatError builds a FormatError with a formatted message.
func NewFormatError(part, format string, args ...interface{}) *FormatError {
	return &FormatError{Part: part, Msg: fmt.Sprintf(format, args...)}
}
