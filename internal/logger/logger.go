// Package logger builds the application's root zerolog logger. Every
// component derives its own sub-logger from this one; nothing logs through
// the standard library once startup is past config loading.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. In the "dev" environment output goes through
// the human-readable console writer; anywhere else it stays JSON on stderr.
// Unknown level names fall back to info.
func New(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if env == "dev" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(lvl).With().Timestamp().Logger()
}
