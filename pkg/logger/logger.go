// Package logger provides component-scoped structured logging.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used throughout the module.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop implements Logger with no-op methods.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}

// New returns a Logger for the given component, writing to w. The APP_ENV
// environment variable selects console output in dev, JSON otherwise.
func New(component string, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	var z zerolog.Logger
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		z = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	}
	return &zl{log: z}
}

type zl struct {
	log zerolog.Logger
}

func (l *zl) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }
func (l *zl) Infof(format string, args ...any)  { l.log.Info().Msgf(format, args...) }
func (l *zl) Warnf(format string, args ...any)  { l.log.Warn().Msgf(format, args...) }
func (l *zl) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }
