// Package logger constructs the application's structured zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger wraps the zap logger so initialization can be deferred until the
// configured level is known.
type Logger struct {
	// Log is the underlying zap logger. A no-op logger until Init is called.
	Log *zap.Logger
}

// New returns a Logger that discards everything until initialized.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger at the given level ("debug", "info",
// "warn", "error") and installs it on the Logger.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = log
	return nil
}
