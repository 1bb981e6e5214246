// Package enginelog provides a small prefixed logger shared by the
// coordinator and worker processes.
//
// Grounded on coatyio-dda-examples/compute/clog: a thin wrapper over the
// standard log.Logger that tags every line with the emitting component's
// role, rather than pulling in a structured logging library the rest of
// the reference corpus doesn't use for this kind of single-process CLI
// tool.
package enginelog

import (
	"fmt"
	"log"
)

// Logger logs lines prefixed with a component tag, e.g. "[coordinator]" or
// "[worker a1b2c3d4]".
type Logger struct {
	logger *log.Logger
}

// New creates a Logger whose prefix is built from prefixFormat/prefixArgs,
// in the manner of fmt.Sprintf.
func New(prefixFormat string, prefixArgs ...any) *Logger {
	return &Logger{
		logger: log.New(log.Writer(), fmt.Sprintf(prefixFormat, prefixArgs...), log.Ldate|log.Ltime|log.Lmicroseconds),
	}
}

// Printf logs an informational line.
func (l *Logger) Printf(format string, a ...any) {
	l.logger.Printf(format, a...)
}

// Errorf logs an error line. It never panics or exits; callers decide how
// to react to the underlying failure.
func (l *Logger) Errorf(format string, a ...any) {
	l.logger.Printf("ERROR: "+format, a...)
}
