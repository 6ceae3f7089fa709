package logger

import corelogger "github.com/kilianp07/sortie/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component using the process-wide
// configuration set by Configure.
func New(component string) Logger {
	return NewWithConfig(component, current())
}
