// Package publish pushes compiled schedules to a live editor session.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/rcpgrid/internal/compiler"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/render"
)

//go:generate mockgen -destination mock_emitter_test.go -package publish -write_package_comment=false github.com/specialistvlad/rcpgrid/internal/publish Emitter

// ScheduleEvent is the event name a compiled schedule is emitted under.
const ScheduleEvent = "schedule"

// Emitter sends named events to a remote peer.
type Emitter interface {
	Emit(event string, payload []byte) error
	Close() error
}

// Publisher emits compiled schedules as JSON documents.
type Publisher struct {
	emitter Emitter
}

// New wraps an emitter.
func New(emitter Emitter) *Publisher {
	return &Publisher{emitter: emitter}
}

// Publish renders res as JSON and emits it as a ScheduleEvent.
func (p *Publisher) Publish(ctx context.Context, res *compiler.Result) error {
	if res == nil {
		return errors.New("publish: nothing to publish")
	}
	logger := ctxlog.FromContext(ctx).With(ctxlog.PassKey, res.PassID)

	var buf bytes.Buffer
	if err := render.JSON(&buf, res); err != nil {
		return fmt.Errorf("failed to render schedule: %w", err)
	}

	logger.Debug("Emitting schedule.", "event", ScheduleEvent, "bytes", buf.Len(), "steps", len(res.Steps))
	if err := p.emitter.Emit(ScheduleEvent, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to emit schedule: %w", err)
	}
	logger.Info("Schedule published.")
	return nil
}

// Close releases the underlying emitter.
func (p *Publisher) Close() error {
	return p.emitter.Close()
}
