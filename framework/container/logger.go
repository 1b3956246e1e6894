package container

import "context"

// Logger receives the container's lifecycle events. Messages are short
// constant strings; args are alternating key/value pairs, the same
// convention log/slog and hclog use.
//
// The framework/logging package adapts *slog.Logger and hclog.Logger to
// this interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warning(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards everything. It is the default for every container.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any)   {}
func (NopLogger) Info(string, ...any)    {}
func (NopLogger) Warning(string, ...any) {}
func (NopLogger) Error(string, ...any)   {}

type loggerKey struct{}

// ContextWithLogger returns a context carrying l. Recipes realized with
// that context report their events to l.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// LoggerFrom extracts the logger stored by ContextWithLogger, or a
// NopLogger.
func LoggerFrom(ctx context.Context) Logger {
	if ctx == nil {
		return NopLogger{}
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok && l != nil {
		return l
	}
	return NopLogger{}
}
