package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger for the auth service, backed by zap.
// Provides Debugf/Infof/Warnf/Errorf/Fatalf and Init(level).

var (
	mu    sync.RWMutex
	log   *zap.SugaredLogger
	level = "info"
)

func init() {
	log = build(zapcore.InfoLevel)
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	s := strings.ToLower(strings.TrimSpace(l))
	var zl zapcore.Level
	switch s {
	case "debug":
		zl = zapcore.DebugLevel
	case "warn", "warning":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	case "fatal":
		zl = zapcore.FatalLevel
	default:
		s = "info"
		zl = zapcore.InfoLevel
	}
	level = s
	log = build(zl)
}

func build(l zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(l)
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	// skip one frame so call sites report the caller, not this wrapper
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewNop()
	}
	return z.Sugar()
}

// LevelString returns the currently configured level name.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debugf(format string, v ...interface{}) { get().Debugf(format, v...) }

func Infof(format string, v ...interface{}) { get().Infof(format, v...) }

func Warnf(format string, v ...interface{}) { get().Warnf(format, v...) }

func Errorf(format string, v ...interface{}) { get().Errorf(format, v...) }

func Fatalf(format string, v ...interface{}) { get().Fatalf(format, v...) }

// Sync flushes buffered log entries; call on shutdown.
func Sync() { _ = get().Sync() }
