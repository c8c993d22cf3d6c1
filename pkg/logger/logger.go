package logger

import (
	"io"
	"log"
)

// StdLogger is the minimal logging surface used across the module.
type StdLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

var (
	// Logger receives regular progress messages. Discarded by default.
	Logger StdLogger = log.New(io.Discard, "[docextra] ", log.LstdFlags)

	// DebugLogger receives structure dumps (header fields, sector chains,
	// piece descriptors). It forwards to Logger until replaced.
	DebugLogger StdLogger = &debugLogger{}
)

// debugLogger forwards to whatever Logger currently is.
type debugLogger struct{}

func (d *debugLogger) Print(v ...interface{}) {
	Logger.Print(v...)
}
func (d *debugLogger) Printf(format string, v ...interface{}) {
	Logger.Printf(format, v...)
}
func (d *debugLogger) Println(v ...interface{}) {
	Logger.Println(v...)
}

// SetLogger replaces the global logger.
func SetLogger(l StdLogger) {
	Logger = l
}

// SetDebugLogger replaces the debug logger.
func SetDebugLogger(l StdLogger) {
	DebugLogger = l
}

// Discard silences both loggers.
func Discard() {
	Logger = log.New(io.Discard, "", 0)
	DebugLogger = log.New(io.Discard, "", 0)
}
