// Package diag provides the container's diagnostic logging, adapted from
// the framework's hand-rolled leveled logger
// (packages/logger/src/logger.go): a small Level enum layered over the
// standard library's log.Logger, with contextual fields attached per call
// instead of per logger instance.
//
// Unlike the framework logger, the zero value here is silent: a library
// should not write to stdout unless a caller opts in via WithLogger.
package diag

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/dromara/carbon/v2"
)

// Level gates which calls actually reach the underlying writer.
type Level int

const (
	// Debug is the most verbose level: every resolution/activation step.
	Debug Level = iota
	// Info covers notable lifecycle events (scope created, singleton
	// activated for the first time).
	Info
	// Warn covers recoverable oddities (a get-all query with zero matches).
	Warn
	// Error covers resolution failures (cyclic dependency, scope misuse).
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is a minimal leveled logger. The zero value discards everything,
// so a *Logger field left unset by a caller costs nothing.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    *log.Logger
	active bool
}

// New returns a Logger that writes lines at level and above to w, stamped
// with the current time formatted by carbon (the teacher's preferred
// wall-clock formatter) rather than the monotonic clock the threading
// package's deadlines use — these two clocks serve different purposes and
// must not be confused.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level:  level,
		out:    log.New(w, "", 0),
		active: true,
	}
}

// Fields is a small set of key/value pairs attached to one log line. It is a
// map, so the pairs are printed in no particular order.
type Fields map[string]any

func (l *Logger) log(level Level, msg string, fields Fields) {
	if l == nil || !l.active || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := carbon.Now().ToIso8601String()
	if len(fields) == 0 {
		l.out.Printf("%s [%s] %s", ts, level, msg)
		return
	}
	l.out.Printf("%s [%s] %s %s", ts, level, msg, formatFields(fields))
}

func formatFields(fields Fields) string {
	out := ""
	for k, v := range fields {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, v)
	}
	return out
}

func (l *Logger) Debug(msg string, fields Fields) { l.log(Debug, msg, fields) }
func (l *Logger) Info(msg string, fields Fields)  { l.log(Info, msg, fields) }
func (l *Logger) Warn(msg string, fields Fields)  { l.log(Warn, msg, fields) }
func (l *Logger) Error(msg string, fields Fields) { l.log(Error, msg, fields) }
