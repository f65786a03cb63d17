package qbytes

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledServeError(err error)
	LogImplicitFlushError(err error)
	LogIgnoredRange(query string, err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledServeError(err error) {
	l.Logger.Printf("qbytes: unhandled server error: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("qbytes: error while flushing implicitly: %s", err)
}

func (l stdLogger) LogIgnoredRange(query string, err error) {
	l.Logger.Printf("qbytes: ignored range in query %q: %s", query, err)
}

// NewStdLogger adapts a standard library logger. A nil logger uses the default logger.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}

	return stdLogger{l}
}

// TestLogger logs to the test and counts what it was told.
type TestLogger struct {
	tb testing.TB

	NumLogUnhandledServeError int64
	NumLogImplicitFlushError  int64
	NumLogIgnoredRange        int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledServeError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledServeError, 1)
	l.tb.Logf("qbytes: unhandled server error: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.tb.Logf("qbytes: error while flushing implicitly: %s", err)
}

func (l *TestLogger) LogIgnoredRange(query string, err error) {
	atomic.AddInt64(&l.NumLogIgnoredRange, 1)
	l.tb.Logf("qbytes: ignored range in query %q: %s", query, err)
}

var _ Logger = &TestLogger{}
