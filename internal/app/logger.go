package app

import (
	"io"
	"log/slog"
	"os"

	"moto-dispatch/internal/config"
	"moto-dispatch/internal/logx"
)

// NewLogger builds the JSON logger on stdout at cfg.LogLevel.
func NewLogger(cfg *config.Config) logx.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) logx.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		if lvl, err := logx.ParseLevel(cfg.LogLevel); err == nil {
			level = lvl
		}
	}
	base := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return logx.NewSlogAdapter(base).With(logx.String("service", "moto-dispatch"))
}
