// Package logger configures the process-wide zerolog instance.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the shared logger instance. It defaults to a console writer on
// stderr so collaborator stdout stays clean for machine consumers.
var Log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
	}

	Log = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

// SetDebug lowers the level to debug when enabled.
func SetDebug(enabled bool) {
	if enabled {
		Log = Log.Level(zerolog.DebugLevel)
		return
	}
	Log = Log.Level(zerolog.InfoLevel)
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	Log = Log.Output(w)
}
