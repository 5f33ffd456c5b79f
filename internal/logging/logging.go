package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a human-oriented console logger. Debug enables job argument
// dumps; noColor strips ANSI sequences for logs redirected to files.
func New(w io.Writer, debug, noColor bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
