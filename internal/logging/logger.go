// SPDX-License-Identifier: MIT
// Package logging provides the process-wide structured logger used by every
// non-RT component. The RT audio thread must never call into this package;
// it reports failures through atomic counters instead (see
// internal/engine/telemetry).
package logging

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Level mirrors zapcore.Level ordering but is kept as our own type so
// callers never need to import zapcore directly.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a Level. Returns
// LevelInfo and false if the string is not recognized.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

var currentLevel atomic.Int32

var base *zap.Logger
var sugar *zap.SugaredLogger

func init() {
	// zap's own level is Debug so that SetLevel alone decides what is emitted.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	base, _ = cfg.Build()
	sugar = base.Sugar()
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging threshold atomically. Messages below
// this level are dropped before formatting to avoid wasted allocation on
// the control/dispatcher threads.
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// GetLevel returns the current global logging threshold.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

func shouldLog(level Level) bool {
	return level >= GetLevel()
}

// Sync flushes any buffered log entries. Call during shutdown.
func Sync() {
	_ = base.Sync()
}

func Debugf(format string, v ...interface{}) {
	if shouldLog(LevelDebug) {
		sugar.Debugf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if shouldLog(LevelInfo) {
		sugar.Infof(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if shouldLog(LevelWarn) {
		sugar.Warnf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if shouldLog(LevelError) {
		sugar.Errorf(format, v...)
	}
}

// Fatalf always logs regardless of level, then exits the process.
func Fatalf(format string, v ...interface{}) {
	sugar.Fatalf(format, v...)
}

func Debug(v ...interface{}) {
	if shouldLog(LevelDebug) {
		sugar.Debug(v...)
	}
}

func Info(v ...interface{}) {
	if shouldLog(LevelInfo) {
		sugar.Info(v...)
	}
}

func Warn(v ...interface{}) {
	if shouldLog(LevelWarn) {
		sugar.Warn(v...)
	}
}

func Error(v ...interface{}) {
	if shouldLog(LevelError) {
		sugar.Error(v...)
	}
}

func Fatal(v ...interface{}) {
	sugar.Fatal(v...)
}
