// Package debuglog is the opt-in diagnostic log (TASKLYNC_DEBUG_LOG).
//
// It is off unless a path is configured. All methods are safe on a nil *Logger.
package debuglog

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type Logger struct {
	l *log.Logger
	c io.Closer
}

// Open appends to path. An empty path yields a logger that discards everything.
func Open(path string) (*Logger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Discard(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &Logger{l: log.New(f, "tasklync ", log.LstdFlags|log.Lmicroseconds), c: f}, nil
}

func New(w io.Writer) *Logger {
	return &Logger{l: log.New(w, "", 0)}
}

func Discard() *Logger { return &Logger{l: log.New(io.Discard, "", 0)} }

func (g *Logger) Printf(format string, args ...any) {
	if g == nil || g.l == nil {
		return
	}
	g.l.Printf(format, args...)
}

func (g *Logger) Close() error {
	if g == nil || g.c == nil {
		return nil
	}
	return g.c.Close()
}
