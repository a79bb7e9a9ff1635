// Package logger настраивает slog по окружению.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Окружения.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup возвращает логгер для env: local и dev пишут текст с уровнем debug, prod пишет JSON с уровнем info.
func Setup(env string) *slog.Logger {
	return New(os.Stdout, env)
}

// New как Setup, но пишет в w.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
