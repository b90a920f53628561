// Package logging installs the process-wide slog logger used by the wayfare
// server: tint's colored handler on stderr, with source locations.
//
// Two environment variables steer it:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//	NO_COLOR:  any non-empty value disables color (https://no-color.org)
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default logger, reading level and color preferences
// from the environment.
func Setup() {
	SetupWithLevel(levelFromEnv())
}

// SetupWithLevel installs the default logger at an explicit level, bypassing
// LOG_LEVEL. Tests use this to silence or amplify output.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})))
}

// levelFromEnv parses LOG_LEVEL via slog's own case-insensitive level names,
// defaulting to info when unset or unparseable.
func levelFromEnv() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
