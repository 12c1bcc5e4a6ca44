// Package logger provides the zerolog logger shared by all recall binaries.
package logger

import (
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// New returns a JSON logger writing to stdout, tagged with the service name.
// Error events logged with .Stack() include a pkg/errors stack trace even
// when the underlying error is a plain std error.
func New(service string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	lvl := zerolog.InfoLevel
	if raw := os.Getenv("RECALL_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(os.Stdout).Level(lvl).With().
		Str("service", service).
		Timestamp().
		Logger()
}
