// Package logger is the module's logger. Records go to moontrade/log until a
// program installs a zap logger with SetLogger.
//
// Calls take a printf style message:
//
//	logger.Warn("skew of %d ticks", n)
//	logger.Error(err, "live thread id allocation failed for goroutine %d", goid)
package logger

import (
	"fmt"

	mlog "github.com/moontrade/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type holder struct {
	log     *zap.SugaredLogger // nil while records go to moontrade/log
	wrapped *zap.SugaredLogger // skips this package's frames
}

var (
	current atomic.Value
	level   = atomic.NewInt32(int32(zapcore.InfoLevel))
	nop     = zap.NewNop().Sugar()
)

func init() {
	SetLogger(nil)
}

// SetLogger sends records to l. A nil l restores moontrade/log.
func SetLogger(l *zap.Logger) {
	if l == nil {
		current.Store(&holder{})
		return
	}
	current.Store(&holder{
		log:     l.Sugar(),
		wrapped: l.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	})
}

// SetLevel sets the lowest level written to moontrade/log. A zap logger
// installed with SetLogger keeps its own level.
func SetLevel(l zapcore.Level) {
	level.Store(int32(l))
}

// NewDevelopment builds a human readable zap logger at the given level.
func NewDevelopment(l zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(l)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Log returns the installed zap logger, or a no-op one while records go to
// moontrade/log.
func Log() *zap.SugaredLogger {
	if h := load(); h.log != nil {
		return h.log
	}
	return nop
}

func load() *holder {
	return current.Load().(*holder)
}

func Enabled(l zapcore.Level) bool {
	if h := load(); h.log != nil {
		return h.log.Desugar().Core().Enabled(l)
	}
	return l >= zapcore.Level(level.Load())
}

func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func Debug(format string, args ...interface{}) {
	h := load()
	if h.log != nil {
		h.wrapped.Debugf(format, args...)
		return
	}
	if Enabled(zapcore.DebugLevel) {
		mlog.Debug(sprintf(format, args))
	}
}

func Warn(format string, args ...interface{}) {
	h := load()
	if h.log != nil {
		h.wrapped.Warnf(format, args...)
		return
	}
	if Enabled(zapcore.WarnLevel) {
		mlog.Warn(sprintf(format, args))
	}
}

// WarnErr logs err at warn level.
func WarnErr(err error, format string, args ...interface{}) {
	h := load()
	if h.log != nil {
		h.wrapped.With(zap.Error(err)).Warnf(format, args...)
		return
	}
	if Enabled(zapcore.WarnLevel) {
		mlog.WarnErr(err, sprintf(format, args))
	}
}

// Error logs err at error level.
func Error(err error, format string, args ...interface{}) {
	h := load()
	if h.log != nil {
		h.wrapped.With(zap.Error(err)).Errorf(format, args...)
		return
	}
	mlog.Error(err, sprintf(format, args))
}

// Sync flushes a zap logger's buffered entries.
func Sync() error {
	return Log().Sync()
}
