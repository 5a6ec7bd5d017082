package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger. DEV gets a human friendly console writer,
// every other environment gets JSON lines on stderr.
func New(env, appName, level string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if strings.EqualFold(env, "DEV") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(w, appName, level)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, appName, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", appName).Logger()
}

// SetGlobal installs l as the package level zerolog logger.
func SetGlobal(l zerolog.Logger) {
	log.Logger = l
}
