package config

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger from the log section. Output
// goes to stderr unless a file is configured; the returned closer is
// nil for stderr.
func (c *LogConfig) NewLogger() (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer

	if c.File != "" {
		f, err := os.OpenFile(ExpandPath(c.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closer = f
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.SlogLevel()})
	return slog.New(h), closer, nil
}

// SlogLevel maps the configured level name onto a slog level.
func (c *LogConfig) SlogLevel() slog.Level {
	switch c.Level {
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
