// Package ctxlog carries the compilation logger through context.Context so
// every stage of a pass logs with the same pass and block attributes.
package ctxlog

import (
	"context"
	"log/slog"
)

// Attribute keys shared by every stage of a compilation pass.
const (
	PassKey  = "pass"
	BlockKey = "block"
)

type key struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// With returns a context whose logger adds args to the current one.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// WithPass tags the logger with the compilation pass ID.
func WithPass(ctx context.Context, passID string) context.Context {
	return With(ctx, PassKey, passID)
}

// ForBlock returns the context logger tagged with a block ID.
func ForBlock(ctx context.Context, blockID string) *slog.Logger {
	return FromContext(ctx).With(BlockKey, blockID)
}
