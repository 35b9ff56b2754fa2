package observability

import (
	"log/slog"
	"os"
	"strings"
)

func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel()}
	if env == "prod" || env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
