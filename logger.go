package auth

import (
	"log"
	"os"
)

type stdLogger struct {
	debug bool
	out   *log.Logger
}

// NewStdLogger returns a Logger writing to stderr. Debug lines are dropped
// unless debug is set.
func NewStdLogger(debug bool) Logger {
	return &stdLogger{
		debug: debug,
		out:   log.New(os.Stderr, "", log.LstdFlags|log.LUTC),
	}
}

func (s *stdLogger) Debug(format string, args ...any) {
	if !s.debug {
		return
	}
	s.out.Printf("[DBG] AUTH "+newline(format), args...)
}

func (s *stdLogger) Info(format string, args ...any) {
	s.out.Printf("[INF] AUTH "+newline(format), args...)
}

func (s *stdLogger) Warn(format string, args ...any) {
	s.out.Printf("[WRN] AUTH "+newline(format), args...)
}

func (s *stdLogger) Error(format string, args ...any) {
	s.out.Printf("[ERR] AUTH "+newline(format), args...)
}
