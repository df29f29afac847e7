package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the diagnostic logger for a command. Logs always go to
// w, never to the command's output stream, so JSON output stays parseable.
func newLogger(opts *RootOptions, w io.Writer) zerolog.Logger {
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
