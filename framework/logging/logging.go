// Package logging builds the log sinks an application hands to its
// container. Two sinks are supported: log/slog and hashicorp/go-hclog.
//
//	log := logging.NewContainerLogger(cfg.App.Name, cfg.Log)
//	c := b.Build(container.WithLogger(log))
//
// The level comes from LOG_LEVEL (debug, info, warn or error, case
// insensitive; default info). Debug output carries the source location.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/km-arc/go-bakery/framework/config"
	"github.com/km-arc/go-bakery/framework/container"
)

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a slog logger writing to stderr.
func New(name string, cfg config.LogConfig) *slog.Logger {
	return NewWriter(name, cfg, os.Stderr)
}

// NewWriter is New with an explicit destination.
func NewWriter(name string, cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("module", name)
}

// NewHCLog returns an hclog logger configured like NewWriter.
func NewHCLog(name string, cfg config.LogConfig, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(strings.ToLower(cfg.Level)),
		Output:     w,
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
	})
}

// NewContainerLogger picks the sink named by cfg.Sink and adapts it to
// container.Logger. Anything but "hclog" means slog.
func NewContainerLogger(name string, cfg config.LogConfig) container.Logger {
	if strings.EqualFold(cfg.Sink, "hclog") {
		return FromHCLog(NewHCLog(name, cfg, os.Stderr))
	}
	return FromSlog(New(name, cfg))
}

// ── adapters ─────────────────────────────────────────────────────────────────

type slogLogger struct{ l *slog.Logger }

// FromSlog adapts l to container.Logger.
func FromSlog(l *slog.Logger) container.Logger {
	if l == nil {
		return container.NopLogger{}
	}
	return slogLogger{l}
}

func (s slogLogger) Debug(msg string, args ...any)   { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)    { s.l.Info(msg, args...) }
func (s slogLogger) Warning(msg string, args ...any) { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any)   { s.l.Error(msg, args...) }

type hcLogger struct{ l hclog.Logger }

// FromHCLog adapts l to container.Logger.
func FromHCLog(l hclog.Logger) container.Logger {
	if l == nil {
		return container.NopLogger{}
	}
	return hcLogger{l}
}

func (h hcLogger) Debug(msg string, args ...any)   { h.l.Debug(msg, args...) }
func (h hcLogger) Info(msg string, args ...any)    { h.l.Info(msg, args...) }
func (h hcLogger) Warning(msg string, args ...any) { h.l.Warn(msg, args...) }
func (h hcLogger) Error(msg string, args ...any)   { h.l.Error(msg, args...) }
