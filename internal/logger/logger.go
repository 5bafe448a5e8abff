package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv names the environment variable controlling log verbosity.
const LevelEnv = "GLUCOBAR_LOG_LEVEL"

var (
	once   sync.Once
	global *zap.Logger
)

// Get returns the process-wide logger, building it on first use from
// the level in LevelEnv (default info).
func Get() *zap.Logger {
	once.Do(func() {
		global = newConsoleLogger(toZapLevel(os.Getenv(LevelEnv)))
	})
	return global
}

// Named returns the global logger scoped to a component name.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

func toZapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newConsoleLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(os.Stderr)
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(ws), zap.NewAtomicLevelAt(level)))
}
