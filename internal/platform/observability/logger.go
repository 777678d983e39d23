package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Call sites use the slog API; entries are
// encoded by a zap JSON core so LOG_LEVEL and LOG_FILE behave like the rest of
// the fleet. The returned func flushes buffered entries.
func NewLogger(serviceName string) (*slog.Logger, func() error, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if logFile := strings.TrimSpace(os.Getenv("LOG_FILE")); logFile != "" {
		if err := ensureLogFile(logFile); err != nil {
			return nil, nil, fmt.Errorf("prepare log file: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}
	level, err := zapcore.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.InitialFields = map[string]any{"service": serviceName}

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithCaller(true)))
	slog.SetDefault(logger)
	return logger, zl.Sync, nil
}

// DiscardLogger is the default for decorators and workers constructed without a logger.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ensureLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
