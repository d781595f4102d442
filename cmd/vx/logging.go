package main

import (
	"log/slog"
	"os"
)

// initLogger reads VX_LOG_LEVEL and VX_LOG_FORMAT from the environment,
// constructs the appropriate slog.Handler, and installs it as the default
// logger via slog.SetDefault.
func initLogger() {
	level := slog.LevelInfo
	switch getEnv("VX_LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if getEnv("VX_LOG_FORMAT", "text") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
