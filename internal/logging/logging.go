// Package logging builds the zap logger shared by the CLI and its packages.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Debug   bool
	NoColor bool
	Writer  io.Writer // defaults to os.Stderr
}

// New creates a console logger writing to stderr.
// Debug enables debug level; otherwise only warnings and errors are emitted
// so regular command output stays clean.
func New(opts Options) *zap.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.NoColor {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.WarnLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Token returns a field that never exposes the token value itself.
func Token(key, val string) zap.Field {
	if val == "" {
		return zap.String(key, "(empty)")
	}
	return zap.String(key, "[REDACTED]")
}
