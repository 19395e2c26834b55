package app

import (
	"io"
	"time"

	"hawk/internal/component"
)

// Config holds the application configuration
type Config struct {
	// Debug lowers the log level to debug, overriding Level.
	Debug bool

	// LogLevel names the minimum level logged. Empty means info.
	LogLevel string

	// Silent discards all log output.
	Silent bool

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Home is the hawk home directory.
	// When empty, $HAWK_HOME or ~/.config/hawk is used.
	Home string

	// Store replaces the filesystem component store. Tests substitute a MemStore.
	Store component.Store

	// CacheSize bounds the in-process resolved-set memo. Zero uses the default.
	CacheSize int

	// LockWait bounds the wait for another invocation. Zero uses DefaultLockWait.
	LockWait time.Duration
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, home string) *Config {
	return &Config{
		Debug:  debug,
		Silent: silent,
		Home:   home,
	}
}
