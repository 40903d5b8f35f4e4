package vscroll

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logLevel controls the package logger. Set VSCROLL_DEBUG=1 to enable debug
// output for layout, clamping and gesture handling.
var logLevel = new(slog.LevelVar)

// Logger is the default logger used by lists that were not given one with
// [WithLogger]. It writes to stderr unless VSCROLL_LOG_FILE names a file, see
// [SetLogFile].
var Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

func init() {
	if os.Getenv("VSCROLL_DEBUG") != "" {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
	if path := os.Getenv("VSCROLL_LOG_FILE"); path != "" {
		SetLogFile(path)
	}
}

// SetLogLevel changes the level of the default logger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLogFile points the default logger at a size-rotated JSON log file. While
// an Application runs the screen owns the terminal, so stderr output is lost.
// Lists created before the call keep the logger they were created with.
func SetLogFile(path string) io.Closer {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 0,
		MaxAge:     30, // days
	}
	Logger = slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: logLevel}))
	return rotator
}
