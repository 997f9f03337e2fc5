// Package logger wraps zap with level configuration for the service.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger holds the configured zap logger.
type Logger struct {
	// Log is the underlying zap logger; no-op until Init is called.
	Log *zap.Logger
}

// New returns a Logger with a no-op backend.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init replaces the backend with a production zap logger at the given level
// (e.g. "Info", "Debug", "Error").
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = log
	return nil
}
