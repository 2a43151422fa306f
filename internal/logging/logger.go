package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. DEV gets a human readable console writer on
// stderr, everything else gets JSON.
func Setup(env, level string) {
	SetupWriter(os.Stderr, env, level)
}

func SetupWriter(w io.Writer, env, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "DEV" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
