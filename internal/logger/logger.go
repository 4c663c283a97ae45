// logger adapts zerolog to the seclayer.Logger interface.
package logger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/perimetr/gatekeeper/seclayer"
)

// Logger is a zerolog-backed seclayer.Logger. Bound fields accumulate
// in the underlying context; the name is attached at emission time so
// Named never duplicates keys.
type Logger struct {
	name string
	log  zerolog.Logger
}

// New builds a root logger writing human-readable lines to stderr.
func New(debug bool) Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return Logger{log: log}
}

func (l Logger) Named(name string) seclayer.Logger {
	fullName := name
	if l.name != "" {
		fullName = l.name + "." + name
	}

	return Logger{
		name: fullName,
		log:  l.log,
	}
}

func (l Logger) BindInt(name string, value int) seclayer.Logger {
	return Logger{
		name: l.name,
		log:  l.log.With().Int(name, value).Logger(),
	}
}

func (l Logger) BindStr(name, value string) seclayer.Logger {
	return Logger{
		name: l.name,
		log:  l.log.With().Str(name, value).Logger(),
	}
}

// Printf exists so the logger can be handed to libraries expecting a
// printf-style sink, the worker pool among them.
func (l Logger) Printf(format string, args ...interface{}) {
	l.emit(l.log.Info(), fmt.Sprintf(format, args...))
}

func (l Logger) Info(msg string) {
	l.emit(l.log.Info(), msg)
}

func (l Logger) InfoError(msg string, err error) {
	l.emit(l.log.Info().Err(err), msg)
}

func (l Logger) Warning(msg string) {
	l.emit(l.log.Warn(), msg)
}

func (l Logger) WarningError(msg string, err error) {
	l.emit(l.log.Warn().Err(err), msg)
}

func (l Logger) Debug(msg string) {
	l.emit(l.log.Debug(), msg)
}

func (l Logger) DebugError(msg string, err error) {
	l.emit(l.log.Debug().Err(err), msg)
}

func (l Logger) emit(evt *zerolog.Event, msg string) {
	if l.name != "" {
		evt = evt.Str("logger", l.name)
	}

	evt.Msg(msg)
}

var _ seclayer.Logger = Logger{}
