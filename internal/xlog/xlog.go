// Package xlog provides the structured logging sink used across the
// sandbox driver. Every diagnostic the C original reported with
// printErr(file, line, msg, errno) is logged here with the equivalent
// fields, backed by zap instead of fmt.Fprintf(os.Stderr, ...).
package xlog

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"
)

// Logger wraps a zap.Logger with the call-site/errno convention used
// throughout the driver.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger. verbose enables debug-level output, matching
// the C original's SB_VERBOSE compile flag.
func New(verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything, useful for tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Err logs a diagnostic at the call site, mirroring the original's
// printErr(__FILE__, __LINE__, msg, use_errno, errno).
func (l *Logger) Err(msg string, err error) {
	_, file, line, _ := runtime.Caller(1)
	l.z.Error(msg, zap.String("site", fileLine(file, line)), zap.Error(err))
}

// Errno logs a diagnostic that carries an explicit errno, for call
// sites using raw syscalls rather than the Go error wrappers.
func (l *Logger) Errno(msg string, errno unix.Errno) {
	_, file, line, _ := runtime.Caller(1)
	l.z.Error(msg, zap.String("site", fileLine(file, line)), zap.String("errno", errno.Error()))
}

// Debug logs a verbose trace line, used for the step-by-step
// bootstrap/controller narration the original gated behind SB_VERBOSE.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.z.Debug(msg, fields...)
}

// Info logs a normal operational line.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.z.Info(msg, fields...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func fileLine(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}
