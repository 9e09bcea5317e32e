package logging

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects the minimum log level (debug, info, warn, error)
const LogLevelEnvVar = "LOG_LEVEL"

// NewLogger creates the service logger: the slog API on top of a zap JSON core.
// The returned function flushes buffered entries and must be called on exit.
func NewLogger() (*slog.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(os.Getenv(LogLevelEnvVar)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	return NewLoggerFromCore(zapLogger.Core()), func() error { return sync(zapLogger) }, nil
}

// NewLoggerFromCore wraps an existing zap core, tests use zaptest/observer cores
func NewLoggerFromCore(core zapcore.Core) *slog.Logger {
	handler := zapslog.NewHandler(core, zapslog.WithCaller(true), zapslog.AddStacktraceAt(slog.LevelError))
	return slog.New(handler)
}

func sync(logger *zap.Logger) error {
	err := logger.Sync()
	// syncing stdout/stderr fails on terminals and pipes, that is not an error worth reporting
	if err != nil && (errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)) {
		return nil
	}
	return err
}
