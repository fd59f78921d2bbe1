package volren

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by volren and all its sub-packages.
// Nothing is logged by default. Passing nil restores the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: uploads, compilations, uniform tables
//   - [slog.LevelInfo]: context and lifecycle events
//   - [slog.LevelWarn]: texture padding and down-sampling
//   - [slog.LevelError]: GLSL info logs of failed programs
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
