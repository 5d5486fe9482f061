// Package logx holds the logging helpers shared by the front end.
package logx

import (
	"context"
	"io"
	"strings"

	"pkt.systems/pslog"
)

// Ctx returns the logger bound to ctx.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// Options returns logger options for a level name. Unknown names mean info.
func Options(level string, structured bool) pslog.Options {
	opts := pslog.Options{Mode: pslog.ModeConsole, NoColor: true, MinLevel: pslog.InfoLevel}
	if structured {
		opts.Mode = pslog.ModeStructured
		opts.VerboseFields = true
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "warn", "warning":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return opts
}

// New creates a logger writing to w.
func New(w io.Writer, level string, structured bool) pslog.Logger {
	return pslog.NewWithOptions(w, Options(level, structured))
}

// Discard returns a logger that drops everything.
func Discard() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, Options("error", true))
}

// WithView annotates the logger with a view id if present.
func WithView(log pslog.Logger, viewID string) pslog.Logger {
	if viewID != "" {
		log = log.With("view", viewID)
	}
	return log
}

// WithViewTab annotates the logger with view and tab identifiers.
func WithViewTab(log pslog.Logger, viewID, tab string) pslog.Logger {
	log = WithView(log, viewID)
	if tab != "" {
		log = log.With("tab", tab)
	}
	return log
}

// WithFile annotates the logger with a file path if present.
func WithFile(log pslog.Logger, path string) pslog.Logger {
	if path != "" {
		log = log.With("file", path)
	}
	return log
}
