// Package log provides the structured, leveled logger used across gbdt.
//
// It wraps zerolog so call sites can pass key/value pairs the way the
// training loop and network layer do, without every package importing
// zerolog directly.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	out     io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	level             = zerolog.InfoLevel
	loggers           = map[string]*Logger{}
)

// Logger is a named, leveled logger. The zero value is not usable; obtain
// one with GetLoggerWithName.
type Logger struct {
	name string
	zl   zerolog.Logger
}

// SetOutput redirects all future loggers (and already-created ones) to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	for name, l := range loggers {
		*l = *newLogger(name)
	}
}

// SetLevel sets the global minimum level for all loggers.
func SetLevel(lvl string) {
	mu.Lock()
	defer mu.Unlock()
	parsed, err := zerolog.ParseLevel(lvl)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	level = parsed
	for name, l := range loggers {
		*l = *newLogger(name)
	}
}

func newLogger(name string) *Logger {
	return &Logger{
		name: name,
		zl:   zerolog.New(out).Level(level).With().Timestamp().Str("component", name).Logger(),
	}
}

// GetLoggerWithName returns the named logger, creating it on first use.
func GetLoggerWithName(name string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[name]; ok {
		return l
	}
	l := newLogger(name)
	loggers[name] = l
	return l
}

func fields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

// Debug logs msg at debug level with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	fields(l.zl.Debug(), kv).Msg(msg)
}

// Info logs msg at info level with alternating key/value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) {
	fields(l.zl.Info(), kv).Msg(msg)
}

// Warn logs msg at warn level with alternating key/value pairs.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	fields(l.zl.Warn(), kv).Msg(msg)
}

// Error logs msg at error level with alternating key/value pairs.
func (l *Logger) Error(msg string, kv ...interface{}) {
	fields(l.zl.Error(), kv).Msg(msg)
}

// Fatal logs msg at fatal level and terminates the process, matching the
// "fatal at construction/step" error policy for config and I/O failures.
func (l *Logger) Fatal(msg string, kv ...interface{}) {
	fields(l.zl.Fatal(), kv).Msg(msg)
}
