// Package log provides debug logging for the whole process, enabled via
// CODO_DEBUG=1. Output goes to ~/.codo/debug.log with rotation so a TUI
// session never has log lines mixed into the terminal.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu          sync.Mutex
	logger      *zap.Logger
	enabled     bool
	initialized bool
)

// Init initializes the logger based on the CODO_DEBUG env var.
// Safe to call more than once.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}
	initialized = true

	if os.Getenv("CODO_DEBUG") != "1" {
		logger = zap.NewNop()
		return nil
	}
	enabled = true

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	logDir := filepath.Join(homeDir, ".codo")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "debug.log"),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // Days
		Compress:   true,
	})

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		writeSyncer,
		zapcore.DebugLevel,
	)
	logger = zap.New(core)
	logger.Info("Debug logging started")
	return nil
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Logger returns the underlying zap logger, or a nop logger before Init.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Tool logs one tool execution with timing.
func Tool(name, id string, duration time.Duration, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	Logger().Info(fmt.Sprintf("[tool] %s id=%s %s %s", name, id, duration.Round(time.Millisecond), status))
}

// Stream logs completion of one model stream.
func Stream(provider string, duration time.Duration, chunks int) {
	Logger().Info(fmt.Sprintf("[stream] %s done duration=%s chunks=%d", provider, duration.Round(time.Millisecond), chunks))
}
