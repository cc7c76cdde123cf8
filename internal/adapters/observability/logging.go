package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger tagged with service and env.
// APP_ENV=dev (or development) uses a console writer with caller info.
// An unparsable level falls back to info.
func NewLogger(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	ctx := zerolog.New(os.Stdout).With()
	if env == "dev" || env == "development" {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller()
	}
	return ctx.Timestamp().Str("service", "sweepstakes").Str("env", env).Logger().Level(lvl)
}
