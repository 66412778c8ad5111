package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// newLogger builds the process logger. Output goes to stderr unless a log file is configured, in which
// case it is rotated by lumberjack. The returned closer releases the file.
func newLogger(cfg logConfig) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return slog.New(newHandler(cfg.Format, os.Stderr, opts)), io.NopCloser(os.Stderr), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return slog.New(newHandler(cfg.Format, os.Stderr, opts)), io.NopCloser(os.Stderr), err
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
	return slog.New(newHandler(cfg.Format, writer, opts)), writer, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}
