package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/rcpgrid/internal/compiler"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/publish"
	"github.com/specialistvlad/rcpgrid/internal/render"
)

// Compile loads kinds and the diagram, then runs one compilation pass.
func (app *App) Compile(ctx context.Context) (*compiler.Result, error) {
	ctx = ctxlog.WithLogger(ctx, app.logger)

	if err := app.LoadKinds(ctx); err != nil {
		return nil, err
	}
	if err := app.LoadDiagram(ctx); err != nil {
		return nil, err
	}
	return compiler.Compile(ctx, app.kinds, app.diagram)
}

// Run compiles the diagram, writes the rendered schedule and publishes it
// when a publish URL is configured.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.")

	res, err := app.Compile(ctx)
	if err != nil {
		return err
	}

	if err := app.writeOutput(res); err != nil {
		return err
	}

	if app.config.PublishURL != "" {
		if err := app.publish(ctx, res); err != nil {
			return err
		}
	}

	app.logger.Debug("App.Run method finished.")
	return nil
}

func (app *App) writeOutput(res *compiler.Result) (err error) {
	w := app.outW
	if app.config.OutputPath != "" {
		f, createErr := os.Create(app.config.OutputPath)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := renderTo(w, app.config.Format, res); err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}
	app.logger.Info("Schedule written.", "format", app.config.Format, "output", outputName(app.config.OutputPath), "steps", len(res.Steps))
	return nil
}

func renderTo(w io.Writer, format string, res *compiler.Result) error {
	if format == FormatHCL {
		return render.HCL(w, res)
	}
	return render.JSON(w, res)
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

func (app *App) publish(ctx context.Context, res *compiler.Result) error {
	emitter, err := app.dial(ctx, publish.DialOptions{
		URL:        app.config.PublishURL,
		Namespace:  app.config.PublishNamespace,
		AckTimeout: app.config.PublishAckTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect publisher: %w", err)
	}
	p := publish.New(emitter)
	defer func() {
		if cerr := p.Close(); cerr != nil {
			ctxlog.FromContext(ctx).Warn("Failed to close publisher.", "error", cerr)
		}
	}()
	return p.Publish(ctx, res)
}
