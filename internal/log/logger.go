package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Production output is uncoloured and info level; everything
// else logs at debug level.
func New(environment string, production bool) zerolog.Logger {
	return NewWithWriter(environment, production, os.Stdout)
}

// NewWithWriter is New writing to out.
func NewWithWriter(environment string, production bool, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    production,
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Logger()

	if production {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return logger
}
