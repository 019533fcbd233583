// Package logging hands out leveled loggers. Levels are controlled with the
// PION_LOG_* environment variables, e.g.
// PION_LOG_DEBUG=heightmap/collection.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a logger for scope from the process-wide factory.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}

// From returns a logger for scope from f, falling back to the process-wide
// factory when f is nil.
func From(f logging.LoggerFactory, scope string) logging.LeveledLogger {
	if f == nil {
		return NewLogger(scope)
	}
	return f.NewLogger(scope)
}
