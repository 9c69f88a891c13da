// Package diag is an opt-in diagnostics logger: when inactive it is a
// zero-cost no-op, and it is never consulted for control flow, only for
// operator-facing narration of what the volume manager and stream stack are
// doing.
package diag

import (
	"log"
	"os"
)

// Logger writes Info/Warning/Error lines when active, and does nothing
// otherwise. The zero value is an inactive logger, safe to use.
type Logger struct {
	info    *log.Logger
	warning *log.Logger
	error_  *log.Logger
	active  bool
}

// New returns a logger writing to w with the given active flag. Passing a
// nil writer with active=true falls back to os.Stderr.
func New(active bool, w *os.File) Logger {
	if !active {
		return Logger{}
	}
	if w == nil {
		w = os.Stderr
	}
	return Logger{
		info:    log.New(w, "INFO: ", log.Ldate|log.Ltime),
		warning: log.New(w, "WARNING: ", log.Ldate|log.Ltime),
		error_:  log.New(w, "ERROR: ", log.Ldate|log.Ltime),
		active:  active,
	}
}

// Noop returns an inactive logger.
func Noop() Logger { return Logger{} }

func (l Logger) Info(msg string) {
	if l.active {
		l.info.Println(msg)
	}
}

func (l Logger) Warning(msg string) {
	if l.active {
		l.warning.Println(msg)
	}
}

func (l Logger) Error(msg any) {
	if l.active {
		l.error_.Println(msg)
	}
}

// Active reports whether the logger writes anything.
func (l Logger) Active() bool { return l.active }
