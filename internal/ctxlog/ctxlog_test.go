package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTextLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(WithLogger(context.Background(), newTextLogger(&buf)), "stage", "resolve")
	FromContext(ctx).Debug("Resolving wires.")

	assert.Contains(t, buf.String(), "stage=resolve")
	assert.Contains(t, buf.String(), `msg="Resolving wires."`)
}

func TestWithPass_ForBlock(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithPass(WithLogger(context.Background(), newTextLogger(&buf)), "abc123")
	ForBlock(ctx, "tq").Debug("Descriptor constructed.")

	assert.Contains(t, buf.String(), "pass=abc123 block=tq")
}
