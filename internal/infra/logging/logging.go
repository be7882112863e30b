package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 5
	fileMaxAgeDays = 28
)

// New builds the process logger and installs it as the slog default.
// When logFile is set, records are also written to a size-rotated file; the
// returned close func flushes and closes it.
func New(logFormat, logLevel, logFile string) (*slog.Logger, func() error) {
	var out io.Writer = os.Stdout

	closeFn := func() error { return nil }

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}

		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = rotator.Close
	}

	logger := slog.New(newHandler(out, logFormat, ParseLevel(logLevel)))

	slog.SetDefault(logger)

	return logger, closeFn
}

// ParseLevel maps a level name to slog.Level; unknown names map to info.
func ParseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(out io.Writer, logFormat string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if logFormat == "text" {
		return slog.NewTextHandler(out, opts)
	}

	return slog.NewJSONHandler(out, opts)
}
