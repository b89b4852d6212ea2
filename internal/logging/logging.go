package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var level = new(slog.LevelVar)

// Configure installs a text logger writing to w as the slog default and
// returns it. Unknown level names fall back to INFO. A nil w means stderr.
func Configure(name string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level.Set(ParseLevel(name))
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to slog levels.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SetLevel changes the level of loggers returned by Configure.
func SetLevel(l slog.Level) {
	level.Set(l)
}
