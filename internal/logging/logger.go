// Package logging defines the structured-logging interface used across the
// portal, with zap and slog implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "payment confirmed", "email", email, "new_credential", true)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendZap  = "zap"
	BackendSlog = "slog"
)

// New builds a Logger for the given backend. Development mode enables
// debug output and human-friendly encoding; otherwise JSON at info level.
func New(backend string, development bool) (Logger, error) {
	switch backend {
	case "", BackendZap:
		return NewZapLogger(development)
	case BackendSlog:
		return NewSlogJSON(os.Stdout, development), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// NewSlogJSON returns a SlogLogger writing JSON lines to w.
func NewSlogJSON(w io.Writer, development bool) *SlogLogger {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// Nop discards everything. Useful in tests.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
