package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	// Debug enables development encoding and debug-level output
	Debug bool
}

// NewLogger creates a zap logger. Production JSON encoding by default,
// human-readable development encoding when Debug is set.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return c.Build()
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return c.Build()
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
