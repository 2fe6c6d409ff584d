package app

import (
	"fmt"
	"io"
	"log/slog"
)

// Log formats accepted by Config.LogFormat.
const (
	LogText = "text"
	LogJSON = "json"
)

var logLevels = map[string]slog.Level{
	"":      slog.LevelInfo,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func parseLevel(s string) (slog.Level, error) {
	level, ok := logLevels[s]
	if !ok {
		return 0, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", s)
	}
	return level, nil
}

// ValidateLogging checks log settings. Empty values fall back to info/text.
func ValidateLogging(level, format string) error {
	if _, err := parseLevel(level); err != nil {
		return err
	}
	switch format {
	case "", LogText, LogJSON:
		return nil
	}
	return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", format)
}

// NewLogger builds an isolated logger writing to w. Settings are expected to
// have passed ValidateLogging; anything else logs at info as text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
