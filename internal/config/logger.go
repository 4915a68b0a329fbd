package config

import (
	"io"

	"github.com/charmbracelet/log"
)

// LogPrefix tags every line the provisioner writes.
const LogPrefix = "agent-telegram"

// NewLogger returns a logger writing to w at info level, or debug level
// when debug is set.
func NewLogger(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: LogPrefix,
		Level:  level,
	})
}
