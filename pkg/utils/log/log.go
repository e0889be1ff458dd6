// Package log is a small level-keyed logger used throughout the relay. Each
// level is a value with an F (printf-style) and Ln (Println-style) method,
// so call sites read as log.I.F("...", v) or log.W.Ln("...").
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
)

// Level identifies a logging severity, ordered from most to least verbose.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var current atomic.Int32

func init() { current.Store(int32(Info)) }

// SetLogLevel sets the minimum level that will be emitted. Unrecognised
// names are silently ignored and leave the current level unchanged.
func SetLogLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		current.Store(int32(Trace))
	case "debug":
		current.Store(int32(Debug))
	case "info":
		current.Store(int32(Info))
	case "warn", "warning":
		current.Store(int32(Warn))
	case "error":
		current.Store(int32(Error))
	case "fatal":
		current.Store(int32(Fatal))
	}
}

// Logger writes lines at one fixed level.
type Logger struct {
	level Level
	color *color.Color
}

var (
	T = &Logger{level: Trace, color: color.New(color.FgHiBlack)}
	D = &Logger{level: Debug, color: color.New(color.FgCyan)}
	I = &Logger{level: Info, color: color.New(color.FgGreen)}
	W = &Logger{level: Warn, color: color.New(color.FgYellow)}
	E = &Logger{level: Error, color: color.New(color.FgRed)}
	F = &Logger{level: Fatal, color: color.New(color.FgHiRed, color.Bold)}
)

func (l *Logger) enabled() bool { return int32(l.level) >= current.Load() }

func (l *Logger) emit(msg string) {
	if !l.enabled() {
		return
	}
	prefix := l.color.Sprintf("[%s]", l.level.String())
	stdlog.Println(prefix, msg)
	if l.level == Fatal {
		os.Exit(1)
	}
}

// F writes a printf-formatted message at this level.
func (l *Logger) F(format string, v ...any) { l.emit(fmt.Sprintf(format, v...)) }

// Ln writes a space-joined message at this level.
func (l *Logger) Ln(v ...any) { l.emit(fmt.Sprintln(v...)) }

// C lazily evaluates msg only if the level is enabled, for expensive
// messages (e.g. serializing a frame) that should not run at quiet levels.
func (l *Logger) C(msg func() string) {
	if !l.enabled() {
		return
	}
	l.emit(msg())
}
